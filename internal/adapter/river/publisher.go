package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/cropseason/internal/adapter/sqlite"
	"github.com/neomorfeo/cropseason/internal/domain"
)

// Compile-time check: Publisher implements sqlite.Publisher.
var _ sqlite.Publisher = (*Publisher)(nil)

// StatusChangeArgs carries a persisted status change to the worker. River
// serializes it as JSON into its job table; the snapshot means the worker
// never reads the seasons table.
type StatusChangeArgs struct {
	SeasonID      int64     `json:"season_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Reason        string    `json:"reason,omitempty"`
	ForceComplete bool      `json:"force_complete,omitempty"`
	ForceCancel   bool      `json:"force_cancel,omitempty"`
	ChangedAt     time.Time `json:"changed_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (StatusChangeArgs) Kind() string { return "season.status_changed" }

// InsertOpts routes every status change to its own queue.
func (StatusChangeArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueStatusChanges, MaxAttempts: 5}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher enqueues status changes as River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// PublishTx enqueues the change in tx, so the job exists only if the
// status change commits.
func (p *Publisher) PublishTx(ctx context.Context, tx *sql.Tx, change domain.StatusChange) error {
	if _, err := p.client.InsertTx(ctx, tx, argsFor(change), nil); err != nil {
		return fmt.Errorf("enqueuing status change job: %w", err)
	}
	return nil
}

func argsFor(change domain.StatusChange) StatusChangeArgs {
	return StatusChangeArgs{
		SeasonID:      change.SeasonID,
		From:          string(change.From),
		To:            string(change.To),
		Reason:        change.Data.Reason,
		ForceComplete: change.Data.ForceComplete,
		ForceCancel:   change.Data.ForceCancel,
		ChangedAt:     change.ChangedAt,
	}
}
