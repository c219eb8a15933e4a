package fsm

import (
	"context"
	"errors"
	"slices"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/cropseason/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// events has one EventDesc per action. Every action lands on a single
// status, so cancel and archive carry all of their source statuses.
var events = lifecycleEvents()

func lifecycleEvents() []loopfsm.EventDesc {
	var descs []loopfsm.EventDesc
	for _, action := range domain.Actions {
		var src []string
		for _, t := range domain.Transitions {
			if t.Action == action {
				src = append(src, string(t.Src))
			}
		}
		if len(src) == 0 {
			continue
		}
		descs = append(descs, loopfsm.EventDesc{
			Name: string(action),
			Src:  src,
			Dst:  string(action.Target()),
		})
	}
	return descs
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// looplab/fsm keeps its own current state, so each Apply builds a
// short-lived machine seeded with the season's status.
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Apply returns the status action leads to from current, or a
// *domain.TransitionError listing the statuses current may move to.
func (v *Validator) Apply(ctx context.Context, current domain.Status, action domain.Action) (domain.Status, error) {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(action)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{
				Action:  action,
				Current: current,
				Target:  action.Target(),
				Allowed: domain.AllowedTargets(current),
			}
		}
		return "", err
	}

	return domain.Status(machine.Current()), nil
}

// Actions lists the actions that are valid from current, sorted by name.
// Statuses outside the lifecycle have none.
func (v *Validator) Actions(current domain.Status) []domain.Action {
	machine := loopfsm.NewFSM(string(current), events, nil)

	names := machine.AvailableTransitions()
	slices.Sort(names)

	actions := make([]domain.Action, len(names))
	for i, name := range names {
		actions[i] = domain.Action(name)
	}
	return actions
}
