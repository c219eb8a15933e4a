package domain_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/neomorfeo/cropseason/internal/domain"
)

func validForm() domain.SeasonForm {
	return domain.SeasonForm{
		SeasonName: "Winter Rice 2025",
		PlotID:     1,
		CropID:     1,
		StartDate:  "2025-01-01",
		EndDate:    "2025-01-01",
	}
}

func intPtr(v int) *int { return &v }

func TestValidate_Valid(t *testing.T) {
	got := domain.Validate(validForm())
	want := domain.ValidationResult{Valid: true, Errors: []string{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Validate mismatch (-want +got):\n%s", diff)
	}
	if err := got.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestValidate_AllMissing(t *testing.T) {
	got := domain.Validate(domain.SeasonForm{})
	want := []string{
		"Mandatory data: season name is required",
		"Mandatory data: start date is required",
		"Mandatory data: plot is required",
		"Mandatory data: crop is required",
		"Mandatory data: end date is required",
	}
	if got.Valid {
		t.Error("Valid = true, want false")
	}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_NameTooLong(t *testing.T) {
	form := validForm()
	form.SeasonName = strings.Repeat("A", 101)

	got := domain.Validate(form)
	want := []string{"Invalid format: season name must not exceed 100 characters"}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_NameLengthCountsCharacters(t *testing.T) {
	form := validForm()
	form.SeasonName = strings.Repeat("é", 100)

	if got := domain.Validate(form); !got.Valid {
		t.Errorf("100 accented characters should be valid, got %v", got.Errors)
	}
}

func TestValidate_NameCharacterSet(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"Corn Plot#1", false},
		{"Corn Plot 1", true},
		{"north_field-2", true},
		{"Vụ Đông Xuân", true},
		{"Café Crème", true},
		{"Cafe\u0301", true}, // decomposed é
		{"Maize/Beans", false},
		{"Plot × 2", false},
	}

	for _, tc := range cases {
		form := validForm()
		form.SeasonName = tc.name
		got := domain.Validate(form)
		if got.Valid != tc.valid {
			t.Errorf("Validate(name=%q).Valid = %v, want %v (errors %v)", tc.name, got.Valid, tc.valid, got.Errors)
		}
		if !tc.valid {
			if len(got.Errors) != 1 || !strings.HasPrefix(got.Errors[0], domain.MsgInvalidFormat) {
				t.Errorf("Validate(name=%q) errors = %v, want one format error", tc.name, got.Errors)
			}
		}
	}
}

func TestValidate_WhitespaceName(t *testing.T) {
	form := validForm()
	form.SeasonName = "   "

	got := domain.Validate(form)
	want := []string{"Mandatory data: season name is required"}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_DateOrder(t *testing.T) {
	form := validForm()
	form.StartDate = "2025-06-01"
	form.EndDate = "2025-05-01"

	got := domain.Validate(form)
	want := []string{"Invalid date range: end date must not be before start date"}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}

	form.EndDate = "2025-06-01"
	if got := domain.Validate(form); !got.Valid {
		t.Errorf("equal dates should be valid, got %v", got.Errors)
	}
}

func TestValidate_MalformedDate(t *testing.T) {
	form := validForm()
	form.StartDate = "01/06/2025"

	got := domain.Validate(form)
	want := []string{"Invalid format: start date must be a date in YYYY-MM-DD form"}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_InitialPlantCount(t *testing.T) {
	for _, n := range []int{0, -5} {
		form := validForm()
		form.InitialPlantCount = intPtr(n)
		got := domain.Validate(form)
		want := []string{"Invalid value: initial plant count must be greater than 0"}
		if diff := cmp.Diff(want, got.Errors); diff != "" {
			t.Errorf("count=%d: Errors mismatch (-want +got):\n%s", n, diff)
		}
	}

	form := validForm()
	form.InitialPlantCount = intPtr(1200)
	if got := domain.Validate(form); !got.Valid {
		t.Errorf("positive count should be valid, got %v", got.Errors)
	}
}

func TestValidate_Order(t *testing.T) {
	form := domain.SeasonForm{
		SeasonName:        "Bad#Name",
		StartDate:         "2025-06-01",
		EndDate:           "2025-05-01",
		InitialPlantCount: intPtr(0),
	}

	got := domain.Validate(form)
	want := []string{
		"Mandatory data: plot is required",
		"Mandatory data: crop is required",
		"Invalid format: season name may only contain letters, digits, spaces, hyphens and underscores",
		"Invalid date range: end date must not be before start date",
		"Invalid value: initial plant count must be greater than 0",
	}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidationResult_Err(t *testing.T) {
	err := domain.Validate(domain.SeasonForm{}).Err()
	verr, ok := err.(*domain.ValidationError)
	if !ok {
		t.Fatalf("Err() = %T, want *domain.ValidationError", err)
	}
	if len(verr.Violations) != 5 {
		t.Errorf("got %d violations, want 5", len(verr.Violations))
	}
}
