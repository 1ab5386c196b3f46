package dotmailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// errImportPending keeps the poll loop going while an import runs.
var errImportPending = errors.New("contact import not finished")

// PollOptions controls WaitForImport. Zero values pick the defaults.
type PollOptions struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// MaxElapsed bounds the whole wait; 0 waits until ctx is done.
	MaxElapsed time.Duration
}

const (
	defaultPollInitialInterval = 2 * time.Second
	defaultPollMaxInterval     = 30 * time.Second
)

// WaitForImport polls GetContactImportProgress with exponential backoff until
// the import reaches a terminal status, which is returned. Remote and
// transport failures stop the wait immediately.
func (c *Client) WaitForImport(ctx context.Context, progressID string, opts PollOptions) (ImportStatus, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = defaultPollInitialInterval
	eb.MaxInterval = defaultPollMaxInterval
	if opts.InitialInterval > 0 {
		eb.InitialInterval = opts.InitialInterval
	}
	if opts.MaxInterval > 0 {
		eb.MaxInterval = opts.MaxInterval
	}

	polls := 0
	operation := func() (ImportStatus, error) {
		polls++
		status, err := c.GetContactImportProgress(ctx, progressID)
		if err != nil {
			return "", backoff.Permanent(err)
		}
		if !status.Done() {
			c.logger.Debug("Contact import still running",
				zap.String("progress_id", progressID),
				zap.Int("polls", polls))
			return "", errImportPending
		}
		return status, nil
	}

	status, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(eb),
		backoff.WithMaxElapsedTime(opts.MaxElapsed),
	)
	if err != nil {
		if errors.Is(err, errImportPending) {
			return ImportNotFinished, fmt.Errorf("import %s did not finish after %d polls: %w", progressID, polls, err)
		}
		return "", err
	}

	c.logger.Info("Contact import finished",
		zap.String("progress_id", progressID),
		zap.String("status", string(status)),
		zap.Int("polls", polls))
	return status, nil
}
