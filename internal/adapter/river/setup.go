package river

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
)

// QueueStatusChanges is the queue status change jobs are inserted into.
const QueueStatusChanges = "season_status"

// Options configures the River client built by Setup.
type Options struct {
	// Workers caps concurrent status change jobs. Zero means 2.
	Workers int
	// Notify is called by the worker for every status change.
	Notify NotifyFunc
	Logger *slog.Logger
}

// Setup runs River's migrations and creates a client with the status change
// worker registered. The caller starts it with client.Start and stops it
// with client.Stop.
func Setup(ctx context.Context, db *sql.DB, opts Options) (*Client, error) {
	driver := riversqlite.New(db)

	// river_job, river_leader and friends live beside the goose schema but
	// are versioned by River itself.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &StatusChangeWorker{Notify: opts.Notify, Logger: opts.Logger})

	maxWorkers := opts.Workers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}

	client, err := river.NewClient(driver, &river.Config{
		Logger: opts.Logger,
		Queues: map[string]river.QueueConfig{
			QueueStatusChanges: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
