package http

import (
	"fmt"
	"time"

	"github.com/neomorfeo/cropseason/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// SeasonResponse is the API representation of a season.
type SeasonResponse struct {
	ID                 int64    `json:"id" doc:"Unique identifier"`
	PlotID             int64    `json:"plotId" doc:"Plot the season runs on"`
	CropID             int64    `json:"cropId" doc:"Crop grown"`
	VarietyID          *int64   `json:"varietyId,omitempty" doc:"Crop variety"`
	SeasonName         string   `json:"seasonName" doc:"Display name"`
	Status             string   `json:"status" doc:"Lifecycle state" enum:"PLANNED,ACTIVE,COMPLETED,CANCELLED,ARCHIVED"`
	StartDate          string   `json:"startDate" doc:"Start date (YYYY-MM-DD)"`
	PlannedHarvestDate string   `json:"plannedHarvestDate,omitempty" doc:"Planned harvest date (YYYY-MM-DD)"`
	EndDate            string   `json:"endDate,omitempty" doc:"End date (YYYY-MM-DD)"`
	InitialPlantCount  int      `json:"initialPlantCount" doc:"Plants at planting"`
	CurrentPlantCount  *int     `json:"currentPlantCount,omitempty" doc:"Plants alive now"`
	ExpectedYieldKg    *float64 `json:"expectedYieldKg,omitempty" doc:"Expected yield in kg"`
	ActualYieldKg      *float64 `json:"actualYieldKg,omitempty" doc:"Harvested yield in kg"`
	Notes              string   `json:"notes,omitempty" doc:"Free text"`
	CreatedAt          string   `json:"createdAt" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt          string   `json:"updatedAt" doc:"Last update timestamp (ISO 8601)"`
}

// ToSeasonResponse converts a domain season to its API representation.
func ToSeasonResponse(s domain.Season) SeasonResponse {
	return SeasonResponse{
		ID:                 s.ID,
		PlotID:             s.PlotID,
		CropID:             s.CropID,
		VarietyID:          s.VarietyID,
		SeasonName:         s.SeasonName,
		Status:             string(s.Status),
		StartDate:          s.StartDate.Format(domain.DateLayout),
		PlannedHarvestDate: formatDate(s.PlannedHarvestDate),
		EndDate:            formatDate(s.EndDate),
		InitialPlantCount:  s.InitialPlantCount,
		CurrentPlantCount:  s.CurrentPlantCount,
		ExpectedYieldKg:    s.ExpectedYieldKg,
		ActualYieldKg:      s.ActualYieldKg,
		Notes:              s.Notes,
		CreatedAt:          s.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:          s.UpdatedAt.UTC().Format(timestampLayout),
	}
}

// Season converts the API representation back to a domain season. The
// status is taken as sent: one outside the lifecycle is left for the
// transition validator to reject.
func (r SeasonResponse) Season() (domain.Season, error) {
	s := domain.Season{
		ID:                r.ID,
		PlotID:            r.PlotID,
		CropID:            r.CropID,
		VarietyID:         r.VarietyID,
		SeasonName:        r.SeasonName,
		Status:            domain.Status(r.Status),
		InitialPlantCount: r.InitialPlantCount,
		CurrentPlantCount: r.CurrentPlantCount,
		ExpectedYieldKg:   r.ExpectedYieldKg,
		ActualYieldKg:     r.ActualYieldKg,
		Notes:             r.Notes,
	}

	var err error
	if s.StartDate, err = domain.ParseDate(r.StartDate); err != nil {
		return domain.Season{}, fmt.Errorf("parsing startDate: %w", err)
	}
	if s.PlannedHarvestDate, err = parseOptionalDate(r.PlannedHarvestDate); err != nil {
		return domain.Season{}, fmt.Errorf("parsing plannedHarvestDate: %w", err)
	}
	if s.EndDate, err = parseOptionalDate(r.EndDate); err != nil {
		return domain.Season{}, fmt.Errorf("parsing endDate: %w", err)
	}
	if s.CreatedAt, err = time.Parse(timestampLayout, r.CreatedAt); err != nil {
		return domain.Season{}, fmt.Errorf("parsing createdAt: %w", err)
	}
	if s.UpdatedAt, err = time.Parse(timestampLayout, r.UpdatedAt); err != nil {
		return domain.Season{}, fmt.Errorf("parsing updatedAt: %w", err)
	}
	return s, nil
}

// SeasonBody is the create/update/validate payload. Every field is optional
// at the schema level so the season rules can report what is missing.
type SeasonBody struct {
	SeasonName         string   `json:"seasonName,omitempty" required:"false" doc:"Display name (letters, digits, space, _ and -; at most 100 characters)"`
	PlotID             int64    `json:"plotId,omitempty" required:"false" doc:"Plot ID"`
	CropID             int64    `json:"cropId,omitempty" required:"false" doc:"Crop ID"`
	VarietyID          *int64   `json:"varietyId,omitempty" required:"false" doc:"Variety ID"`
	StartDate          string   `json:"startDate,omitempty" required:"false" doc:"Start date (YYYY-MM-DD)"`
	PlannedHarvestDate string   `json:"plannedHarvestDate,omitempty" required:"false" doc:"Planned harvest date (YYYY-MM-DD)"`
	EndDate            string   `json:"endDate,omitempty" required:"false" doc:"End date (YYYY-MM-DD)"`
	InitialPlantCount  *int     `json:"initialPlantCount,omitempty" required:"false" doc:"Plants at planting"`
	ExpectedYieldKg    *float64 `json:"expectedYieldKg,omitempty" required:"false" doc:"Expected yield in kg"`
	Notes              string   `json:"notes,omitempty" required:"false" doc:"Free text"`
}

func (b SeasonBody) form() domain.SeasonForm {
	return domain.SeasonForm{
		SeasonName:         b.SeasonName,
		PlotID:             b.PlotID,
		CropID:             b.CropID,
		VarietyID:          b.VarietyID,
		StartDate:          b.StartDate,
		PlannedHarvestDate: b.PlannedHarvestDate,
		EndDate:            b.EndDate,
		InitialPlantCount:  b.InitialPlantCount,
		ExpectedYieldKg:    b.ExpectedYieldKg,
		Notes:              b.Notes,
	}
}

// StatusBody is the raw status change payload.
type StatusBody struct {
	Status string            `json:"status" enum:"PLANNED,ACTIVE,COMPLETED,CANCELLED,ARCHIVED" doc:"Target status"`
	Data   domain.ActionData `json:"data,omitempty" required:"false" doc:"Data attached to the change"`
}

// StatusChangeResponse is one entry of a season's status history.
type StatusChangeResponse struct {
	From      string            `json:"from" doc:"Status before the change"`
	To        string            `json:"to" doc:"Status after the change"`
	Data      domain.ActionData `json:"data" doc:"Data attached to the change"`
	ChangedAt string            `json:"changedAt" doc:"Change timestamp (ISO 8601)"`
}

func toStatusChangeResponse(c domain.StatusChange) StatusChangeResponse {
	return StatusChangeResponse{
		From:      string(c.From),
		To:        string(c.To),
		Data:      c.Data,
		ChangedAt: c.ChangedAt.UTC().Format(timestampLayout),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
