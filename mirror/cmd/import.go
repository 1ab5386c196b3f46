package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natserract/dotmailer/mirror/services"
	"github.com/natserract/dotmailer/pkg/dotmailer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCommand(root *rootOptions) *cobra.Command {
	var (
		dataType     string
		concurrency  int
		pollInterval time.Duration
		maxWait      time.Duration
		initSchema   bool
	)

	cmd := &cobra.Command{
		Use:   "import ADDRESS_BOOK_ID FILE...",
		Short: "Upload CSV or XLS contact files into an address book",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addressBookID, err := dotmailer.ParseID(args[0])
			if err != nil {
				return err
			}

			files := make([]services.ImportFile, 0, len(args)-1)
			for _, path := range args[1:] {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				files = append(files, services.ImportFile{
					Name:     filepath.Base(path),
					Data:     data,
					DataType: dataType,
				})
			}

			logger, err := root.logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()

			client, err := newClient(logger)
			if err != nil {
				return err
			}

			db, store, err := openStore(ctx, logger, initSchema)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := services.NewImportService(client, store, logger, dotmailer.PollOptions{
				InitialInterval: pollInterval,
				MaxElapsed:      maxWait,
			}, concurrency)

			results, err := svc.ImportFiles(ctx, addressBookID, files)

			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(out, "%s: FAILED %v\n", r.File, r.Err)
					continue
				}
				fmt.Fprintf(out, "%s: %s (%s)\n", r.File, r.Status, r.ProgressID)
			}
			if err != nil {
				logger.Error("Contact import failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataType, "data-type", "", "CSV or XLS; taken from each file extension when empty")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Files uploaded in parallel")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 2*time.Second, "First delay between progress checks")
	cmd.Flags().DurationVar(&maxWait, "max-wait", 30*time.Minute, "Give up waiting for an import after this long (0 waits forever)")
	cmd.Flags().BoolVar(&initSchema, "init-schema", false, "Create the mirror tables before importing")

	return cmd
}
