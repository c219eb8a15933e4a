package domain_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/neomorfeo/cropseason/internal/domain"
)

func TestTransitionError_Error(t *testing.T) {
	err := &domain.TransitionError{
		Action:  domain.ActionStart,
		Current: domain.StatusActive,
		Target:  domain.StatusActive,
		Allowed: []domain.Status{domain.StatusCompleted, domain.StatusCancelled},
	}
	want := `cannot start season: "ACTIVE" cannot move to "ACTIVE" (allowed: COMPLETED, CANCELLED)`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTransitionError_NoAlternatives(t *testing.T) {
	err := &domain.TransitionError{
		Action:  domain.ActionArchive,
		Current: domain.StatusArchived,
		Target:  domain.StatusArchived,
		Allowed: []domain.Status{},
	}
	want := `cannot archive season: "ARCHIVED" cannot move to "ARCHIVED" (allowed: none)`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConflictError_Error(t *testing.T) {
	err := &domain.ConflictError{ID: 7, From: domain.StatusArchived, To: domain.StatusActive}
	want := `season 7: status "ARCHIVED" cannot move to "ACTIVE"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &domain.ValidationError{Violations: []string{"a", "b"}}
	if got, want := err.Error(), "invalid season: a; b"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRemoteError_IsNotFound(t *testing.T) {
	err := fmt.Errorf("fetching: %w", &domain.RemoteError{Op: "fetch season", StatusCode: http.StatusNotFound})
	if !errors.Is(err, domain.ErrSeasonNotFound) {
		t.Error("remote 404 should match ErrSeasonNotFound")
	}

	conflict := &domain.RemoteError{Op: "set status", StatusCode: http.StatusConflict, Detail: "busy"}
	if errors.Is(conflict, domain.ErrSeasonNotFound) {
		t.Error("remote 409 should not match ErrSeasonNotFound")
	}
	if got, want := conflict.Error(), "set status: 409 busy"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRemoteError_Transport(t *testing.T) {
	cause := errors.New("connection refused")
	err := &domain.RemoteError{Op: "fetch season", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("RemoteError should unwrap to its transport error")
	}
	if got, want := err.Error(), "fetch season: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
