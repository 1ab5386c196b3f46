package cmd

import (
	"context"
	"fmt"

	"github.com/natserract/dotmailer/mirror/schema/postgres"
	"github.com/natserract/dotmailer/pkg/config"
	"github.com/natserract/dotmailer/pkg/dotmailer"
	"github.com/natserract/dotmailer/pkg/soap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	debug bool
}

// NewRootCommand builds the dotmailer-mirror command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "dotmailer-mirror",
		Short:         "Mirror a dotMailer account into Postgres",
		Long:          "Sync dotMailer address books and contacts into Postgres, upload contact files and inspect the account.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	root.AddCommand(newSyncCommand(opts))
	root.AddCommand(newImportCommand(opts))
	root.AddCommand(newServerTimeCommand(opts))
	root.AddCommand(newAccountCommand(opts))
	root.AddCommand(newJobCommand(opts))
	root.AddCommand(NewVersionCommand())

	return root
}

// Execute runs the command tree and adds a configuration hint to errors
// caused by a rejected login or a wrong endpoint.
func Execute(ctx context.Context) error {
	return describeError(NewRootCommand().ExecuteContext(ctx))
}

func describeError(err error) error {
	switch {
	case err == nil:
		return nil
	case soap.IsUnauthorized(err):
		return fmt.Errorf("%w (check DOTMAILER_USERNAME and DOTMAILER_PASSWORD)", err)
	case soap.IsNotFound(err):
		return fmt.Errorf("%w (check DOTMAILER_ENDPOINT)", err)
	}
	return err
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if o.debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func newClient(logger *zap.Logger) (*dotmailer.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client, err := dotmailer.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dotMailer client: %w", err)
	}
	return client, nil
}

func openStore(ctx context.Context, logger *zap.Logger, initSchema bool) (*postgres.DB, *postgres.Store, error) {
	db, err := postgres.New(ctx, postgres.NewConfig(), logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if initSchema {
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	return db, postgres.NewStore(db, logger), nil
}
