package domain_test

import (
	"testing"

	"github.com/neomorfeo/cropseason/internal/domain"
)

var lattice = map[domain.Status][]domain.Status{
	domain.StatusPlanned:   {domain.StatusActive, domain.StatusCancelled},
	domain.StatusActive:    {domain.StatusCompleted, domain.StatusCancelled},
	domain.StatusCompleted: {domain.StatusArchived},
	domain.StatusCancelled: {domain.StatusArchived},
	domain.StatusArchived:  {},
}

func inLattice(current, target domain.Status) bool {
	for _, s := range lattice[current] {
		if s == target {
			return true
		}
	}
	return false
}

func TestIsTransitionValid_AllPairs(t *testing.T) {
	for _, current := range domain.Statuses {
		for _, target := range domain.Statuses {
			want := inLattice(current, target)
			if got := domain.IsTransitionValid(current, target); got != want {
				t.Errorf("IsTransitionValid(%q, %q) = %v, want %v", current, target, got, want)
			}
		}
	}
}

func TestAllowedTargets_Order(t *testing.T) {
	for current, want := range lattice {
		got := domain.AllowedTargets(current)
		if len(got) != len(want) {
			t.Fatalf("AllowedTargets(%q) = %v, want %v", current, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("AllowedTargets(%q)[%d] = %q, want %q", current, i, got[i], want[i])
			}
		}
	}
}

func TestAllowedTargets_Archived(t *testing.T) {
	got := domain.AllowedTargets(domain.StatusArchived)
	if got == nil || len(got) != 0 {
		t.Errorf("AllowedTargets(ARCHIVED) = %#v, want empty non-nil slice", got)
	}
	if !domain.StatusArchived.Terminal() {
		t.Error("ARCHIVED should be terminal")
	}
	if domain.StatusCompleted.Terminal() {
		t.Error("COMPLETED should not be terminal")
	}
}

func TestAllowedTargets_Unknown(t *testing.T) {
	if got := domain.AllowedTargets("GROWING"); len(got) != 0 {
		t.Errorf("AllowedTargets(unknown) = %v, want none", got)
	}
	if domain.IsTransitionValid("GROWING", domain.StatusActive) {
		t.Error("unknown status should have no valid transitions")
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range domain.Statuses {
		got, err := domain.ParseStatus(string(s))
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStatus(%q) = %q", s, got)
		}
	}
	if _, err := domain.ParseStatus("planned"); err == nil {
		t.Error("ParseStatus should be case sensitive")
	}
}

func TestTransitions_MatchLattice(t *testing.T) {
	for _, tr := range domain.Transitions {
		if !domain.IsTransitionValid(tr.Src, tr.Dst) {
			t.Errorf("action %q: %q → %q is not in the lattice", tr.Action, tr.Src, tr.Dst)
		}
		if tr.Action.Target() != tr.Dst {
			t.Errorf("action %q targets %q, table says %q", tr.Action, tr.Action.Target(), tr.Dst)
		}
	}

	// Every lattice edge must be reachable through some action.
	for current, targets := range lattice {
		for _, target := range targets {
			found := false
			for _, tr := range domain.Transitions {
				if tr.Src == current && tr.Dst == target {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("no action moves %q → %q", current, target)
			}
		}
	}
}

func TestTransitions_AllActionsHaveEntries(t *testing.T) {
	for _, action := range domain.Actions {
		found := false
		for _, tr := range domain.Transitions {
			if tr.Action == action {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("action %q has no transition defined", action)
		}
	}
}
