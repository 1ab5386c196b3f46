package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/natserract/dotmailer/mirror/schema/postgres"
	"github.com/natserract/dotmailer/pkg/dotmailer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newJobCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "job JOB_ID",
		Short: "Print a recorded sync job",
		Long:  "Print the progress and outcome of a sync job. The job ID is logged as job_id when sync starts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%w: job ID %q is not a UUID", dotmailer.ErrInvalidParameters, args[0])
			}

			logger, err := root.logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()

			db, store, err := openStore(ctx, logger, false)
			if err != nil {
				return err
			}
			defer db.Close()

			job, err := store.GetSyncJob(ctx, id)
			if err != nil {
				logger.Error("Failed to load sync job", zap.String("job_id", id.String()), zap.Error(err))
				return err
			}
			return printJob(cmd, job)
		},
	}
}

func printJob(cmd *cobra.Command, job *postgres.SyncJob) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Job\t%s\n", job.ID)
	fmt.Fprintf(w, "Type\t%s\n", job.JobType)
	fmt.Fprintf(w, "Status\t%s\n", job.Status)
	fmt.Fprintf(w, "Items\t%d/%d processed, %d succeeded, %d failed\n",
		job.ProcessedItems, job.TotalItems, job.SucceededItems, job.FailedItems)
	if job.StartedAt.Valid {
		fmt.Fprintf(w, "Started\t%s\n", job.StartedAt.Time.Format(time.RFC3339))
	}
	if job.CompletedAt.Valid {
		fmt.Fprintf(w, "Completed\t%s\n", job.CompletedAt.Time.Format(time.RFC3339))
	}
	if job.DurationMs.Valid {
		fmt.Fprintf(w, "Duration\t%s\n", time.Duration(job.DurationMs.Int32)*time.Millisecond)
	}
	if job.ErrorMessage.Valid {
		fmt.Fprintf(w, "Error\t%s\n", job.ErrorMessage.String)
	}
	return w.Flush()
}
