package sqlite

import (
	"database/sql"
	"time"

	"github.com/neomorfeo/cropseason/internal/domain"
)

func (row seasonRow) toDomain() domain.Season {
	s := domain.Season{
		ID:                row.ID,
		PlotID:            row.PlotID,
		CropID:            row.CropID,
		SeasonName:        row.SeasonName,
		Status:            domain.Status(row.Status),
		InitialPlantCount: row.InitialPlantCount,
		Notes:             row.Notes,
	}
	s.StartDate, _ = domain.ParseDate(row.StartDate)
	s.PlannedHarvestDate = parseNullDate(row.PlannedHarvestDate)
	s.EndDate = parseNullDate(row.EndDate)
	if row.VarietyID.Valid {
		v := row.VarietyID.Int64
		s.VarietyID = &v
	}
	if row.CurrentPlantCount.Valid {
		v := int(row.CurrentPlantCount.Int64)
		s.CurrentPlantCount = &v
	}
	if row.ExpectedYieldKg.Valid {
		v := row.ExpectedYieldKg.Float64
		s.ExpectedYieldKg = &v
	}
	if row.ActualYieldKg.Valid {
		v := row.ActualYieldKg.Float64
		s.ActualYieldKg = &v
	}
	s.CreatedAt, _ = time.Parse(timeFormat, row.CreatedAt)
	s.UpdatedAt, _ = time.Parse(timeFormat, row.UpdatedAt)
	return s
}

// apply overwrites the columns a patch sets.
func (row *seasonRow) apply(p domain.SeasonPatch) {
	if p.SeasonName != nil {
		row.SeasonName = *p.SeasonName
	}
	if p.PlotID != nil {
		row.PlotID = *p.PlotID
	}
	if p.CropID != nil {
		row.CropID = *p.CropID
	}
	if p.VarietyID != nil {
		row.VarietyID = sql.NullInt64{Int64: *p.VarietyID, Valid: true}
	}
	if p.StartDate != nil {
		row.StartDate = *p.StartDate
	}
	if p.PlannedHarvestDate != nil {
		row.PlannedHarvestDate = nullString(*p.PlannedHarvestDate)
	}
	if p.EndDate != nil {
		row.EndDate = nullString(*p.EndDate)
	}
	if p.InitialPlantCount != nil {
		row.InitialPlantCount = *p.InitialPlantCount
	}
	if p.CurrentPlantCount != nil {
		row.CurrentPlantCount = sql.NullInt64{Int64: int64(*p.CurrentPlantCount), Valid: true}
	}
	if p.ExpectedYieldKg != nil {
		row.ExpectedYieldKg = sql.NullFloat64{Float64: *p.ExpectedYieldKg, Valid: true}
	}
	if p.ActualYieldKg != nil {
		row.ActualYieldKg = sql.NullFloat64{Float64: *p.ActualYieldKg, Valid: true}
	}
	if p.Notes != nil {
		row.Notes = *p.Notes
	}
}

// validatePatch runs the form rules a patch can break over the patched row.
// Rule groups the patch leaves alone get neutral values, so a count-only
// patch never fails on dates it did not touch. The end date is only
// mandatory on forms, so a stored season without one is checked as if its
// end date equalled its start date.
func (row seasonRow) validatePatch(p domain.SeasonPatch) error {
	form := domain.SeasonForm{
		SeasonName: "season",
		PlotID:     1,
		CropID:     1,
		StartDate:  "2000-01-01",
		EndDate:    "2000-01-01",
	}
	if p.SeasonName != nil {
		form.SeasonName = row.SeasonName
	}
	if p.PlotID != nil {
		form.PlotID = row.PlotID
	}
	if p.CropID != nil {
		form.CropID = row.CropID
	}
	if p.StartDate != nil || p.EndDate != nil || p.PlannedHarvestDate != nil {
		form.StartDate = row.StartDate
		form.EndDate = row.EndDate.String
		form.PlannedHarvestDate = row.PlannedHarvestDate.String
		if !row.EndDate.Valid || row.EndDate.String == "" {
			form.EndDate = row.StartDate
		}
	}
	if p.InitialPlantCount != nil {
		n := row.InitialPlantCount
		form.InitialPlantCount = &n
	}
	if p.ExpectedYieldKg != nil {
		v := row.ExpectedYieldKg.Float64
		form.ExpectedYieldKg = &v
	}

	result := domain.Validate(form)
	if p.CurrentPlantCount != nil && row.CurrentPlantCount.Int64 < 0 {
		result.Errors = append(result.Errors, domain.MsgInvalidValue+": current plant count must not be negative")
	}
	if p.ActualYieldKg != nil && row.ActualYieldKg.Float64 < 0 {
		result.Errors = append(result.Errors, domain.MsgInvalidValue+": actual yield must not be negative")
	}
	result.Valid = len(result.Errors) == 0
	return result.Err()
}

// startViolations checks an actual start date against the stored end date.
func startViolations(current domain.Season, data domain.ActionData) []string {
	start, err := domain.ParseDate(data.ActualStartDate)
	if err != nil {
		return []string{domain.MsgInvalidFormat + ": actual start date must be a date in YYYY-MM-DD form"}
	}
	if current.EndDate != nil && start.After(*current.EndDate) {
		return []string{domain.MsgInvalidRange + ": actual start date must not be after end date"}
	}
	return nil
}

// completionViolations checks the data attached to a complete action.
func completionViolations(current domain.Season, data domain.ActionData) []string {
	var out []string
	if data.EndDate != "" {
		end, err := domain.ParseDate(data.EndDate)
		switch {
		case err != nil:
			out = append(out, domain.MsgInvalidFormat+": end date must be a date in YYYY-MM-DD form")
		case end.Before(current.StartDate):
			out = append(out, domain.MsgInvalidRange+": end date must not be before start date")
		}
	}
	if data.ActualYieldKg != nil && *data.ActualYieldKg < 0 {
		out = append(out, domain.MsgInvalidValue+": actual yield must not be negative")
	}
	return out
}

func parseNullDate(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := domain.ParseDate(v.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
