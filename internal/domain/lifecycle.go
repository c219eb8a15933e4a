package domain

import "fmt"

// AllowedTargets returns the statuses reachable from current in one step.
// The switch is the single source of truth for the status lattice; the
// exhaustive linter flags any status added without a case here.
func AllowedTargets(current Status) []Status {
	switch current {
	case StatusPlanned:
		return []Status{StatusActive, StatusCancelled}
	case StatusActive:
		return []Status{StatusCompleted, StatusCancelled}
	case StatusCompleted:
		return []Status{StatusArchived}
	case StatusCancelled:
		return []Status{StatusArchived}
	case StatusArchived:
		return []Status{}
	}
	return []Status{}
}

// IsTransitionValid reports whether target is reachable from current.
func IsTransitionValid(current, target Status) bool {
	for _, s := range AllowedTargets(current) {
		if s == target {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusActive, StatusCompleted, StatusCancelled, StatusArchived:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(AllowedTargets(s)) == 0
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown season status %q", v)
	}
	return s, nil
}

// Action is an operator request that moves a season along the lattice.
type Action string

const (
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionArchive  Action = "archive"
)

// Actions lists every lifecycle action.
var Actions = []Action{ActionStart, ActionComplete, ActionCancel, ActionArchive}

// Target returns the status an action moves a season into.
func (a Action) Target() Status {
	switch a {
	case ActionStart:
		return StatusActive
	case ActionComplete:
		return StatusCompleted
	case ActionCancel:
		return StatusCancelled
	case ActionArchive:
		return StatusArchived
	}
	return ""
}

// Transition defines a valid state change: an action moves a season from Src to Dst.
type Transition struct {
	Action Action
	Src    Status
	Dst    Status
}

// Transitions defines every action edge of the season lifecycle.
// Each edge is also an edge of AllowedTargets.
var Transitions = []Transition{
	{Action: ActionStart, Src: StatusPlanned, Dst: StatusActive},
	{Action: ActionComplete, Src: StatusActive, Dst: StatusCompleted},
	{Action: ActionCancel, Src: StatusPlanned, Dst: StatusCancelled},
	{Action: ActionCancel, Src: StatusActive, Dst: StatusCancelled},
	{Action: ActionArchive, Src: StatusCompleted, Dst: StatusArchived},
	{Action: ActionArchive, Src: StatusCancelled, Dst: StatusArchived},
}
