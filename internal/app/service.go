package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/cropseason/internal/domain"
)

// StartInput carries the optional data of a start action.
type StartInput struct {
	ActualStartDate   string
	CurrentPlantCount *int
}

// CompleteInput carries the data of a complete action. EndDate is required.
type CompleteInput struct {
	EndDate       string
	ActualYieldKg *float64
	ForceComplete bool
}

// CancelInput carries the optional data of a cancel action.
type CancelInput struct {
	Reason      string
	ForceCancel bool
}

// StartedError reports a start whose status change was applied but whose
// follow-up plant count update failed.
type StartedError struct {
	ID  int64
	Err error
}

func (e *StartedError) Error() string {
	return fmt.Sprintf("season %d started, but saving the plant count failed: %v", e.ID, e.Err)
}

func (e *StartedError) Unwrap() error { return e.Err }

// SeasonService drives seasons through their lifecycle. It owns no state:
// every action reads the season's current status from the store, checks the
// transition locally and issues a single mutating call. Callers refresh
// their own view afterwards.
type SeasonService struct {
	store     domain.SeasonStore
	validator domain.TransitionValidator
	logger    *slog.Logger
}

// Option configures a SeasonService.
type Option func(*SeasonService)

// WithLogger overrides the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *SeasonService) { s.logger = l }
}

// NewSeasonService creates a service with the given adapters.
func NewSeasonService(store domain.SeasonStore, validator domain.TransitionValidator, opts ...Option) *SeasonService {
	s := &SeasonService{
		store:     store,
		validator: validator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate runs the form rules without contacting the store.
func (s *SeasonService) Validate(form domain.SeasonForm) domain.ValidationResult {
	return domain.Validate(form)
}

// Create validates the form and asks the store to create a PLANNED season.
func (s *SeasonService) Create(ctx context.Context, form domain.SeasonForm) (domain.Season, error) {
	if err := domain.Validate(form).Err(); err != nil {
		return domain.Season{}, err
	}

	season, err := s.store.CreateSeason(ctx, form)
	if err != nil {
		s.logger.WarnContext(ctx, "create season failed", "plot_id", form.PlotID, "error", err)
		return domain.Season{}, err
	}

	s.logger.InfoContext(ctx, "season created", "season_id", season.ID, "plot_id", season.PlotID)
	return season, nil
}

// Update validates the full form and overwrites the season's form fields.
func (s *SeasonService) Update(ctx context.Context, id int64, form domain.SeasonForm) (domain.Season, error) {
	if err := domain.Validate(form).Err(); err != nil {
		return domain.Season{}, err
	}
	return s.store.UpdateSeason(ctx, id, form.Patch())
}

// Get returns the season as the store currently holds it.
func (s *SeasonService) Get(ctx context.Context, id int64) (domain.Season, error) {
	return s.store.FetchSeason(ctx, id)
}

// List returns seasons matching the filter.
func (s *SeasonService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Season, error) {
	return s.store.ListSeasons(ctx, filter)
}

// Delete removes a season regardless of its status.
func (s *SeasonService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteSeason(ctx, id)
}

// Start moves a PLANNED season to ACTIVE. The planned start date is kept
// unless ActualStartDate is given. A revised plant count is persisted with a
// follow-up update; if that update fails the season is still ACTIVE, so the
// started season is returned together with the error.
func (s *SeasonService) Start(ctx context.Context, id int64, in StartInput) (domain.Season, error) {
	season, err := s.transition(ctx, id, domain.ActionStart, domain.ActionData{
		ActualStartDate: in.ActualStartDate,
	})
	if err != nil {
		return domain.Season{}, err
	}

	if in.CurrentPlantCount == nil {
		return season, nil
	}
	updated, err := s.store.UpdateSeason(ctx, id, domain.SeasonPatch{CurrentPlantCount: in.CurrentPlantCount})
	if err != nil {
		s.logger.WarnContext(ctx, "plant count not saved after start",
			"season_id", id,
			"error", err,
		)
		return season, &StartedError{ID: id, Err: err}
	}
	return updated, nil
}

// Complete moves an ACTIVE season to COMPLETED. ForceComplete is forwarded
// to the store untouched.
func (s *SeasonService) Complete(ctx context.Context, id int64, in CompleteInput) (domain.Season, error) {
	if in.EndDate == "" {
		return domain.Season{}, &domain.ValidationError{
			Violations: []string{domain.MsgMandatory + ": end date is required"},
		}
	}
	if _, err := domain.ParseDate(in.EndDate); err != nil {
		return domain.Season{}, &domain.ValidationError{
			Violations: []string{domain.MsgInvalidFormat + ": end date must be a date in YYYY-MM-DD form"},
		}
	}

	return s.transition(ctx, id, domain.ActionComplete, domain.ActionData{
		EndDate:       in.EndDate,
		ActualYieldKg: in.ActualYieldKg,
		ForceComplete: in.ForceComplete,
	})
}

// Cancel moves a PLANNED or ACTIVE season to CANCELLED. ForceCancel is
// forwarded to the store untouched.
func (s *SeasonService) Cancel(ctx context.Context, id int64, in CancelInput) (domain.Season, error) {
	return s.transition(ctx, id, domain.ActionCancel, domain.ActionData{
		Reason:      in.Reason,
		ForceCancel: in.ForceCancel,
	})
}

// Archive moves a COMPLETED or CANCELLED season to ARCHIVED. Confirmation
// is the caller's job.
func (s *SeasonService) Archive(ctx context.Context, id int64) (domain.Season, error) {
	return s.transition(ctx, id, domain.ActionArchive, domain.ActionData{})
}

// transition fetches the current status, checks the action against it and
// only then asks the store for the status change. Store errors are returned
// unchanged.
func (s *SeasonService) transition(ctx context.Context, id int64, action domain.Action, data domain.ActionData) (domain.Season, error) {
	current, err := s.store.FetchSeason(ctx, id)
	if err != nil {
		return domain.Season{}, err
	}

	target, err := s.validator.Apply(ctx, current.Status, action)
	if err != nil {
		s.logger.InfoContext(ctx, "transition rejected",
			"season_id", id,
			"action", string(action),
			"status", string(current.Status),
		)
		return domain.Season{}, err
	}

	season, err := s.store.SetStatus(ctx, id, target, data)
	if err != nil {
		s.logger.WarnContext(ctx, "status change failed",
			"season_id", id,
			"action", string(action),
			"target", string(target),
			"error", err,
		)
		return domain.Season{}, err
	}

	s.logger.InfoContext(ctx, "season transitioned",
		"season_id", id,
		"action", string(action),
		"from", string(current.Status),
		"to", string(season.Status),
	)
	return season, nil
}
