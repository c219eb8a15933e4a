package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Message prefixes group violations by kind.
const (
	MsgMandatory     = "Mandatory data"
	MsgInvalidFormat = "Invalid format"
	MsgInvalidRange  = "Invalid date range"
	MsgInvalidValue  = "Invalid value"
)

// MaxSeasonNameLength is counted in characters, not bytes.
const MaxSeasonNameLength = 100

// seasonNamePattern accepts ASCII letters and digits, space, underscore,
// hyphen and the accented letters of the Latin-1, Latin Extended-A/B and
// Latin Extended Additional blocks.
var seasonNamePattern = regexp.MustCompile(
	`^[A-Za-z0-9 _\-\x{00C0}-\x{00D6}\x{00D8}-\x{00F6}\x{00F8}-\x{024F}\x{1E00}-\x{1EFF}]+$`,
)

// ValidationResult is the outcome of validating a season form.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Err returns the result as a *ValidationError, or nil when the form is valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Violations: r.Errors}
}

// Validate checks a season form. Every rule runs, so a single call reports
// all violations in rule order: mandatory fields, name format, dates, numbers.
func Validate(form SeasonForm) ValidationResult {
	errs := make([]string, 0)
	add := func(prefix, msg string) {
		errs = append(errs, prefix+": "+msg)
	}

	if strings.TrimSpace(form.SeasonName) == "" {
		add(MsgMandatory, "season name is required")
	}
	if strings.TrimSpace(form.StartDate) == "" {
		add(MsgMandatory, "start date is required")
	}
	if form.PlotID == 0 {
		add(MsgMandatory, "plot is required")
	}
	if form.CropID == 0 {
		add(MsgMandatory, "crop is required")
	}
	if strings.TrimSpace(form.EndDate) == "" {
		add(MsgMandatory, "end date is required")
	}

	if form.SeasonName != "" {
		name := norm.NFC.String(form.SeasonName)
		if !seasonNamePattern.MatchString(name) {
			add(MsgInvalidFormat, "season name may only contain letters, digits, spaces, hyphens and underscores")
		}
		if utf8.RuneCountInString(name) > MaxSeasonNameLength {
			add(MsgInvalidFormat, "season name must not exceed 100 characters")
		}
	}

	start, startOK := checkDate(form.StartDate, "start date", add)
	end, endOK := checkDate(form.EndDate, "end date", add)
	checkDate(form.PlannedHarvestDate, "planned harvest date", add)
	if startOK && endOK && end.Before(start) {
		add(MsgInvalidRange, "end date must not be before start date")
	}

	if form.InitialPlantCount != nil && *form.InitialPlantCount <= 0 {
		add(MsgInvalidValue, "initial plant count must be greater than 0")
	}
	if form.ExpectedYieldKg != nil && *form.ExpectedYieldKg < 0 {
		add(MsgInvalidValue, "expected yield must not be negative")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// checkDate parses a present date and reports a format violation when it is malformed.
// Absent dates are left to the mandatory check.
func checkDate(v, field string, add func(prefix, msg string)) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	parsed, err := ParseDate(v)
	if err != nil {
		add(MsgInvalidFormat, field+" must be a date in YYYY-MM-DD form")
		return time.Time{}, false
	}
	return parsed, true
}
