package domain

import "time"

// DateLayout is the wire format of every season date.
const DateLayout = "2006-01-02"

// Status represents the lifecycle state of a season.
type Status string

const (
	StatusPlanned   Status = "PLANNED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusArchived  Status = "ARCHIVED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPlanned,
	StatusActive,
	StatusCompleted,
	StatusCancelled,
	StatusArchived,
}

// Season is one crop-growing cycle on a plot.
type Season struct {
	ID                 int64
	PlotID             int64
	CropID             int64
	VarietyID          *int64
	SeasonName         string
	Status             Status
	StartDate          time.Time
	PlannedHarvestDate *time.Time
	EndDate            *time.Time
	InitialPlantCount  int
	CurrentPlantCount  *int
	ExpectedYieldKg    *float64
	ActualYieldKg      *float64
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SeasonForm is the create/update payload as entered by an operator.
// Dates are kept as entered so the validator can report malformed values.
type SeasonForm struct {
	SeasonName         string   `json:"seasonName"`
	PlotID             int64    `json:"plotId"`
	CropID             int64    `json:"cropId"`
	VarietyID          *int64   `json:"varietyId,omitempty"`
	StartDate          string   `json:"startDate"`
	PlannedHarvestDate string   `json:"plannedHarvestDate,omitempty"`
	EndDate            string   `json:"endDate"`
	InitialPlantCount  *int     `json:"initialPlantCount,omitempty"`
	ExpectedYieldKg    *float64 `json:"expectedYieldKg,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// SeasonPatch is a partial update. Nil fields are left unchanged.
type SeasonPatch struct {
	SeasonName         *string  `json:"seasonName,omitempty"`
	PlotID             *int64   `json:"plotId,omitempty"`
	CropID             *int64   `json:"cropId,omitempty"`
	VarietyID          *int64   `json:"varietyId,omitempty"`
	StartDate          *string  `json:"startDate,omitempty"`
	PlannedHarvestDate *string  `json:"plannedHarvestDate,omitempty"`
	EndDate            *string  `json:"endDate,omitempty"`
	InitialPlantCount  *int     `json:"initialPlantCount,omitempty"`
	CurrentPlantCount  *int     `json:"currentPlantCount,omitempty"`
	ExpectedYieldKg    *float64 `json:"expectedYieldKg,omitempty"`
	ActualYieldKg      *float64 `json:"actualYieldKg,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
}

// Patch converts a validated form into a patch that overwrites every form field.
func (f SeasonForm) Patch() SeasonPatch {
	p := SeasonPatch{
		SeasonName:        &f.SeasonName,
		PlotID:            &f.PlotID,
		CropID:            &f.CropID,
		VarietyID:         f.VarietyID,
		StartDate:         &f.StartDate,
		EndDate:           &f.EndDate,
		InitialPlantCount: f.InitialPlantCount,
		ExpectedYieldKg:   f.ExpectedYieldKg,
		Notes:             &f.Notes,
	}
	if f.PlannedHarvestDate != "" {
		p.PlannedHarvestDate = &f.PlannedHarvestDate
	}
	return p
}

// ActionData travels with a status change to the persistence collaborator.
// Force flags are opaque here and forwarded unchanged.
type ActionData struct {
	ActualStartDate string   `json:"actualStartDate,omitempty"`
	EndDate         string   `json:"endDate,omitempty"`
	ActualYieldKg   *float64 `json:"actualYieldKg,omitempty"`
	Reason          string   `json:"reason,omitempty"`
	ForceComplete   bool     `json:"forceComplete,omitempty"`
	ForceCancel     bool     `json:"forceCancel,omitempty"`
}

// StatusChange records one persisted transition.
type StatusChange struct {
	SeasonID  int64
	From      Status
	To        Status
	Data      ActionData
	ChangedAt time.Time
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
