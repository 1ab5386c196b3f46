package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/natserract/dotmailer/pkg/dotmailer"
	"github.com/spf13/cobra"
)

func newServerTimeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "server-time",
		Short: "Print the dotMailer server clock and the local skew",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			client, err := newClient(logger)
			if err != nil {
				return err
			}

			raw, err := client.GetServerTime(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, raw)
			if ts, err := dotmailer.ParseServerTime(raw); err == nil && !ts.IsZero() {
				fmt.Fprintf(out, "skew: %s\n", time.Since(ts.Time).Round(time.Millisecond))
			}
			return nil
		},
	}
}

func newAccountCommand(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Print the account the credentials belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := root.logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			client, err := newClient(logger)
			if err != nil {
				return err
			}

			info, err := client.GetCurrentAccountInfo(cmd.Context())
			if err != nil {
				return err
			}
			return printAccount(cmd, info, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")

	return cmd
}

func printAccount(cmd *cobra.Command, info *dotmailer.AccountInfo, output string) error {
	out := cmd.OutOrStdout()

	switch output {
	case "json":
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal account info: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "text":
		fmt.Fprintf(out, "Account %d\n", info.ID)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, p := range info.Properties {
			fmt.Fprintf(w, "  %s\t%s\n", p.Name, p.Value)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}

	return nil
}
