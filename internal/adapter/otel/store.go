package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/cropseason/internal/domain"
)

const instrumentationName = "github.com/neomorfeo/cropseason/internal/adapter/otel"

// TracingStore wraps a domain.SeasonStore with OpenTelemetry tracing.
// Each method creates a span with season attributes and records errors.
// Successful SetStatus calls increment the season.transitions counter.
type TracingStore struct {
	next        domain.SeasonStore
	tracer      trace.Tracer
	transitions metric.Int64Counter
}

// Compile-time check: TracingStore implements domain.SeasonStore.
var _ domain.SeasonStore = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.SeasonStore) (*TracingStore, error) {
	transitions, err := otel.Meter(instrumentationName).Int64Counter("season.transitions",
		metric.WithDescription("Persisted season status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}
	return &TracingStore{
		next:        next,
		tracer:      otel.Tracer(instrumentationName),
		transitions: transitions,
	}, nil
}

func (s *TracingStore) FetchSeason(ctx context.Context, id int64) (domain.Season, error) {
	ctx, span := s.tracer.Start(ctx, "SeasonStore.FetchSeason",
		trace.WithAttributes(attribute.Int64("season.id", id)),
	)
	defer span.End()

	season, err := s.next.FetchSeason(ctx, id)
	if err != nil {
		recordError(span, err)
		return season, err
	}
	span.SetAttributes(attribute.String("season.status", string(season.Status)))
	return season, nil
}

func (s *TracingStore) ListSeasons(ctx context.Context, filter domain.ListFilter) ([]domain.Season, error) {
	ctx, span := s.tracer.Start(ctx, "SeasonStore.ListSeasons",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.PlotID != nil {
		span.SetAttributes(attribute.Int64("filter.plot_id", *filter.PlotID))
	}
	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	seasons, err := s.next.ListSeasons(ctx, filter)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(seasons)))
	}
	return seasons, err
}

func (s *TracingStore) CreateSeason(ctx context.Context, form domain.SeasonForm) (domain.Season, error) {
	ctx, span := s.tracer.Start(ctx, "SeasonStore.CreateSeason",
		trace.WithAttributes(
			attribute.Int64("season.plot_id", form.PlotID),
			attribute.Int64("season.crop_id", form.CropID),
		),
	)
	defer span.End()

	season, err := s.next.CreateSeason(ctx, form)
	if err != nil {
		recordError(span, err)
		return season, err
	}
	span.SetAttributes(attribute.Int64("season.id", season.ID))
	return season, nil
}

func (s *TracingStore) UpdateSeason(ctx context.Context, id int64, patch domain.SeasonPatch) (domain.Season, error) {
	ctx, span := s.tracer.Start(ctx, "SeasonStore.UpdateSeason",
		trace.WithAttributes(attribute.Int64("season.id", id)),
	)
	defer span.End()

	season, err := s.next.UpdateSeason(ctx, id, patch)
	if err != nil {
		recordError(span, err)
	}
	return season, err
}

func (s *TracingStore) SetStatus(ctx context.Context, id int64, target domain.Status, data domain.ActionData) (domain.Season, error) {
	ctx, span := s.tracer.Start(ctx, "SeasonStore.SetStatus",
		trace.WithAttributes(
			attribute.Int64("season.id", id),
			attribute.String("season.target_status", string(target)),
		),
	)
	defer span.End()

	season, err := s.next.SetStatus(ctx, id, target, data)
	if err != nil {
		recordError(span, err)
		return season, err
	}
	span.SetAttributes(attribute.String("season.status", string(season.Status)))
	s.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("to", string(target))))
	return season, nil
}

func (s *TracingStore) DeleteSeason(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "SeasonStore.DeleteSeason",
		trace.WithAttributes(attribute.Int64("season.id", id)),
	)
	defer span.End()

	err := s.next.DeleteSeason(ctx, id)
	if err != nil {
		recordError(span, err)
	}
	return err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
