package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/cropseason/internal/app"
	"github.com/neomorfeo/cropseason/internal/domain"
)

// HistorySource reads the recorded status changes of a season.
type HistorySource interface {
	History(ctx context.Context, id int64) ([]domain.StatusChange, error)
}

// --- Seasons ---

type SeasonIDInput struct {
	ID int64 `path:"id" doc:"Season ID"`
}

type SeasonOutput struct {
	Body SeasonResponse
}

type CreateSeasonInput struct {
	Body SeasonBody
}

type UpdateSeasonInput struct {
	ID   int64 `path:"id" doc:"Season ID"`
	Body SeasonBody
}

type PatchSeasonInput struct {
	ID   int64 `path:"id" doc:"Season ID"`
	Body domain.SeasonPatch
}

type ListSeasonsInput struct {
	PlotID int64  `query:"plotId" required:"false" doc:"Filter by plot"`
	Status string `query:"status" required:"false" enum:"PLANNED,ACTIVE,COMPLETED,CANCELLED,ARCHIVED" doc:"Filter by status"`
	Limit  int    `query:"limit" required:"false" default:"50" minimum:"1" maximum:"500" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListSeasonsOutput struct {
	Body []SeasonResponse
}

// --- Status ---

type SetStatusInput struct {
	ID   int64 `path:"id" doc:"Season ID"`
	Body StatusBody
}

type HistoryOutput struct {
	Body []StatusChangeResponse
}

// --- Lifecycle actions ---

type StartInput struct {
	ID   int64 `path:"id" doc:"Season ID"`
	Body struct {
		ActualStartDate   string `json:"actualStartDate,omitempty" required:"false" doc:"Actual start date (YYYY-MM-DD), defaults to the planned start date"`
		CurrentPlantCount *int   `json:"currentPlantCount,omitempty" required:"false" minimum:"0" doc:"Revised plant count"`
	} `required:"false"`
}

type CompleteInput struct {
	ID   int64 `path:"id" doc:"Season ID"`
	Body struct {
		EndDate       string   `json:"endDate,omitempty" required:"false" doc:"End date (YYYY-MM-DD)"`
		ActualYieldKg *float64 `json:"actualYieldKg,omitempty" required:"false" minimum:"0" doc:"Harvested yield in kg"`
		ForceComplete bool     `json:"forceComplete,omitempty" required:"false" doc:"Complete despite pending tasks"`
	}
}

type CancelInput struct {
	ID   int64 `path:"id" doc:"Season ID"`
	Body struct {
		Reason      string `json:"reason,omitempty" required:"false" doc:"Why the season was cancelled"`
		ForceCancel bool   `json:"forceCancel,omitempty" required:"false" doc:"Cancel despite harvest records"`
	} `required:"false"`
}

// --- Validation ---

type ValidateInput struct {
	Body SeasonBody
}

type ValidateOutput struct {
	Body domain.ValidationResult
}

// Register adds all season API routes to the Huma API. Lifecycle actions and
// validated writes go through svc; the raw persistence routes (PATCH and
// PUT status) go straight to store so remote controllers can use this API as
// their season store.
func Register(api huma.API, svc *app.SeasonService, store domain.SeasonStore, history HistorySource) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-season",
		Method:        http.MethodPost,
		Path:          "/api/v1/seasons",
		Summary:       "Create a new season",
		Tags:          []string{"Seasons"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateSeasonInput) (*SeasonOutput, error) {
		season, err := svc.Create(ctx, input.Body.form())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SeasonOutput{Body: ToSeasonResponse(season)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-season",
		Method:      http.MethodGet,
		Path:        "/api/v1/seasons/{id}",
		Summary:     "Get a season by ID",
		Tags:        []string{"Seasons"},
	}, func(ctx context.Context, input *SeasonIDInput) (*SeasonOutput, error) {
		season, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SeasonOutput{Body: ToSeasonResponse(season)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-seasons",
		Method:      http.MethodGet,
		Path:        "/api/v1/seasons",
		Summary:     "List seasons",
		Tags:        []string{"Seasons"},
	}, func(ctx context.Context, input *ListSeasonsInput) (*ListSeasonsOutput, error) {
		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.PlotID != 0 {
			filter.PlotID = &input.PlotID
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		seasons, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]SeasonResponse, len(seasons))
		for i, s := range seasons {
			resp[i] = ToSeasonResponse(s)
		}
		return &ListSeasonsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-season",
		Method:      http.MethodPut,
		Path:        "/api/v1/seasons/{id}",
		Summary:     "Replace a season's form fields",
		Tags:        []string{"Seasons"},
	}, func(ctx context.Context, input *UpdateSeasonInput) (*SeasonOutput, error) {
		season, err := svc.Update(ctx, input.ID, input.Body.form())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SeasonOutput{Body: ToSeasonResponse(season)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "patch-season",
		Method:      http.MethodPatch,
		Path:        "/api/v1/seasons/{id}",
		Summary:     "Partially update a season",
		Tags:        []string{"Seasons"},
	}, func(ctx context.Context, input *PatchSeasonInput) (*SeasonOutput, error) {
		season, err := store.UpdateSeason(ctx, input.ID, input.Body)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SeasonOutput{Body: ToSeasonResponse(season)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-season",
		Method:      http.MethodDelete,
		Path:        "/api/v1/seasons/{id}",
		Summary:     "Delete a season",
		Tags:        []string{"Seasons"},
	}, func(ctx context.Context, input *SeasonIDInput) (*struct{}, error) {
		if err := svc.Delete(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-season-status",
		Method:      http.MethodPut,
		Path:        "/api/v1/seasons/{id}/status",
		Summary:     "Set a season's status",
		Description: "Applies a status change the lattice allows and records it in the history. Refused changes return 409.",
		Tags:        []string{"Status"},
	}, func(ctx context.Context, input *SetStatusInput) (*SeasonOutput, error) {
		season, err := store.SetStatus(ctx, input.ID, domain.Status(input.Body.Status), input.Body.Data)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SeasonOutput{Body: ToSeasonResponse(season)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "season-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/seasons/{id}/history",
		Summary:     "List a season's status changes",
		Tags:        []string{"Status"},
	}, func(ctx context.Context, input *SeasonIDInput) (*HistoryOutput, error) {
		changes, err := history.History(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]StatusChangeResponse, len(changes))
		for i, c := range changes {
			resp[i] = toStatusChangeResponse(c)
		}
		return &HistoryOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-season",
		Method:      http.MethodPost,
		Path:        "/api/v1/seasons/{id}/start",
		Summary:     "Start a planned season",
		Tags:        []string{"Lifecycle"},
	}, func(ctx context.Context, input *StartInput) (*SeasonOutput, error) {
		season, err := svc.Start(ctx, input.ID, app.StartInput{
			ActualStartDate:   input.Body.ActualStartDate,
			CurrentPlantCount: input.Body.CurrentPlantCount,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SeasonOutput{Body: ToSeasonResponse(season)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-season",
		Method:      http.MethodPost,
		Path:        "/api/v1/seasons/{id}/complete",
		Summary:     "Complete an active season",
		Tags:        []string{"Lifecycle"},
	}, func(ctx context.Context, input *CompleteInput) (*SeasonOutput, error) {
		season, err := svc.Complete(ctx, input.ID, app.CompleteInput{
			EndDate:       input.Body.EndDate,
			ActualYieldKg: input.Body.ActualYieldKg,
			ForceComplete: input.Body.ForceComplete,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SeasonOutput{Body: ToSeasonResponse(season)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-season",
		Method:      http.MethodPost,
		Path:        "/api/v1/seasons/{id}/cancel",
		Summary:     "Cancel a planned or active season",
		Tags:        []string{"Lifecycle"},
	}, func(ctx context.Context, input *CancelInput) (*SeasonOutput, error) {
		season, err := svc.Cancel(ctx, input.ID, app.CancelInput{
			Reason:      input.Body.Reason,
			ForceCancel: input.Body.ForceCancel,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SeasonOutput{Body: ToSeasonResponse(season)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "archive-season",
		Method:      http.MethodPost,
		Path:        "/api/v1/seasons/{id}/archive",
		Summary:     "Archive a completed or cancelled season",
		Tags:        []string{"Lifecycle"},
	}, func(ctx context.Context, input *SeasonIDInput) (*SeasonOutput, error) {
		season, err := svc.Archive(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SeasonOutput{Body: ToSeasonResponse(season)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "validate-season",
		Method:      http.MethodPost,
		Path:        "/api/v1/seasons/validate",
		Summary:     "Check a season form without saving it",
		Tags:        []string{"Seasons"},
	}, func(_ context.Context, input *ValidateInput) (*ValidateOutput, error) {
		return &ValidateOutput{Body: svc.Validate(input.Body.form())}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrSeasonNotFound) {
		return huma.Error404NotFound("season not found")
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return huma.Error409Conflict(conflictErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		details := make([]error, len(trErr.Allowed))
		for i, s := range trErr.Allowed {
			details[i] = &huma.ErrorDetail{Message: "allowed target", Location: "status", Value: string(s)}
		}
		return huma.Error422UnprocessableEntity(trErr.Error(), details...)
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		details := make([]error, len(valErr.Violations))
		for i, v := range valErr.Violations {
			details[i] = &huma.ErrorDetail{Message: v, Location: "body"}
		}
		// err keeps any context around the violations, such as a start
		// that was applied before a follow-up update failed.
		return huma.Error422UnprocessableEntity(err.Error(), details...)
	}

	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) && remoteErr.StatusCode >= 400 {
		return huma.NewError(remoteErr.StatusCode, remoteErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
