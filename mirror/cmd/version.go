package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/natserract/dotmailer/pkg/version"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version subcommand
func NewVersionCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")

	return cmd
}

func runVersion(cmd *cobra.Command, output string) error {
	versionInfo := version.Get()
	out := cmd.OutOrStdout()

	switch output {
	case "json":
		data, err := json.MarshalIndent(versionInfo, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "text":
		fmt.Fprintln(out, versionInfo.String())
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}

	return nil
}
