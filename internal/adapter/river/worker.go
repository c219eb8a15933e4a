package river

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// NotifyFunc receives a committed status change. Returning an error makes
// River retry the job.
type NotifyFunc func(ctx context.Context, change StatusChangeArgs) error

// StatusChangeWorker processes status change jobs from the River queue.
type StatusChangeWorker struct {
	river.WorkerDefaults[StatusChangeArgs]

	Notify NotifyFunc
	Logger *slog.Logger
}

// Timeout bounds a single notification attempt.
func (w *StatusChangeWorker) Timeout(*river.Job[StatusChangeArgs]) time.Duration {
	return 30 * time.Second
}

// Work logs the change and hands it to Notify when one is set.
func (w *StatusChangeWorker) Work(ctx context.Context, job *river.Job[StatusChangeArgs]) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		"season_id", job.Args.SeasonID,
		"from", job.Args.From,
		"to", job.Args.To,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)

	if w.Notify != nil {
		if err := w.Notify(ctx, job.Args); err != nil {
			logger.WarnContext(ctx, "status change notification failed", "error", err)
			return err
		}
	}

	logger.InfoContext(ctx, "season status changed",
		"reason", job.Args.Reason,
		"force_complete", job.Args.ForceComplete,
		"force_cancel", job.Args.ForceCancel,
	)
	return nil
}
