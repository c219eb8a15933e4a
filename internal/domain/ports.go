package domain

import "context"

// SeasonStore is the season persistence collaborator. Implementations may be
// local (sqlite) or remote (the HTTP API); callers only rely on Status and on
// the error kinds in errors.go.
type SeasonStore interface {
	FetchSeason(ctx context.Context, id int64) (Season, error)
	ListSeasons(ctx context.Context, filter ListFilter) ([]Season, error)
	CreateSeason(ctx context.Context, form SeasonForm) (Season, error)
	UpdateSeason(ctx context.Context, id int64, patch SeasonPatch) (Season, error)
	SetStatus(ctx context.Context, id int64, target Status, data ActionData) (Season, error)
	DeleteSeason(ctx context.Context, id int64) error
}

// ListFilter holds optional criteria for listing seasons.
type ListFilter struct {
	PlotID *int64
	Status *Status
	Limit  int
	Offset int
}

// TransitionValidator resolves the destination of an action from a status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, action Action) (Status, error)
}
