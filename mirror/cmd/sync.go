package cmd

import (
	"fmt"

	"github.com/natserract/dotmailer/mirror/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSyncCommand(root *rootOptions) *cobra.Command {
	var (
		addressBooks []int
		pageSize     int
		concurrency  int
		initSchema   bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync address books and their contacts into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			svc := services.NewSyncService(client, store, logger, services.SyncOptions{
				PageSize:    pageSize,
				Concurrency: concurrency,
			})

			metrics, err := svc.SyncAll(ctx, addressBooks...)
			if err != nil {
				logger.Error("Failed to sync address books", zap.Error(err))
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Sync Metrics:")
			fmt.Fprintf(out, "  Address books: %d succeeded, %d failed\n", metrics.AddressBooksSucceeded, metrics.AddressBooksFailed)
			fmt.Fprintf(out, "  Contacts: %d succeeded, %d failed\n", metrics.ContactsSucceeded, metrics.ContactsFailed)
			fmt.Fprintf(out, "  Total: %d succeeded, %d failed\n", metrics.TotalSucceeded(), metrics.TotalFailed())
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&addressBooks, "address-book", nil, "Only sync these address book IDs (repeatable)")
	cmd.Flags().IntVar(&pageSize, "page-size", services.DefaultPageSize, "Contacts requested per page")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "Address books synced in parallel")
	cmd.Flags().BoolVar(&initSchema, "init-schema", false, "Create the mirror tables before syncing")

	return cmd
}
