package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrSeasonNotFound = errors.New("season not found")
)

// ValidationError is returned when a season form fails local validation.
// No collaborator has been contacted when it is returned.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid season: " + strings.Join(e.Violations, "; ")
}

// TransitionError is returned when an action does not fit the season's current status.
type TransitionError struct {
	Action  Action
	Current Status
	Target  Status
	Allowed []Status
}

func (e *TransitionError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		parts := make([]string, len(e.Allowed))
		for i, s := range e.Allowed {
			parts[i] = string(s)
		}
		allowed = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("cannot %s season: %q cannot move to %q (allowed: %s)",
		e.Action, e.Current, e.Target, allowed)
}

// ConflictError is returned by a store that refuses a status change
// because the stored status no longer permits it.
type ConflictError struct {
	ID   int64
	From Status
	To   Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("season %d: status %q cannot move to %q", e.ID, e.From, e.To)
}

// RemoteError is a failure reported by a remote persistence collaborator:
// transport errors carry Err, rejected requests carry StatusCode and Detail.
type RemoteError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is lets callers match a remote 404 with ErrSeasonNotFound.
func (e *RemoteError) Is(target error) bool {
	return target == ErrSeasonNotFound && e.StatusCode == http.StatusNotFound
}
