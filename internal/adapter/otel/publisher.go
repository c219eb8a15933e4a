package otel

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/cropseason/internal/adapter/sqlite"
	"github.com/neomorfeo/cropseason/internal/domain"
)

// TracingPublisher wraps a sqlite.Publisher with a span per enqueued status
// change and counts publish outcomes.
type TracingPublisher struct {
	next      sqlite.Publisher
	tracer    trace.Tracer
	published metric.Int64Counter
}

var _ sqlite.Publisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next sqlite.Publisher) (*TracingPublisher, error) {
	published, err := otel.Meter(instrumentationName).Int64Counter("season.events.published",
		metric.WithDescription("Status change events handed to the job queue"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating published counter: %w", err)
	}

	return &TracingPublisher{
		next:      next,
		tracer:    otel.Tracer(instrumentationName),
		published: published,
	}, nil
}

func (p *TracingPublisher) PublishTx(ctx context.Context, tx *sql.Tx, change domain.StatusChange) error {
	ctx, span := p.tracer.Start(ctx, "Publisher.PublishTx",
		trace.WithAttributes(
			attribute.Int64("season.id", change.SeasonID),
			attribute.String("season.from_status", string(change.From)),
			attribute.String("season.status", string(change.To)),
		),
	)
	defer span.End()

	outcome := "ok"
	err := p.next.PublishTx(ctx, tx, change)
	if err != nil {
		recordError(span, err)
		outcome = "error"
	}
	p.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("to", string(change.To)),
		attribute.String("outcome", outcome),
	))
	return err
}
