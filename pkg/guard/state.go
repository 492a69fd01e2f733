package guard

import (
	"errors"
	"fmt"
	"slices"
)

// State is a step of a navigation check.
type State int

const (
	Unchecked State = iota
	Allowed
	AutoLoginAttempted
	Denied
)

func (s State) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Allowed:
		return "allowed"
	case AutoLoginAttempted:
		return "auto_login_attempted"
	case Denied:
		return "denied"
	}
	return "unknown"
}

// Final reports whether no transition leaves s.
func (s State) Final() bool {
	return len(transitions[s]) == 0
}

// transitions lists the legal moves. Denied is reachable only through an
// auto-login attempt.
var transitions = map[State][]State{
	Unchecked:          {Allowed, AutoLoginAttempted},
	AutoLoginAttempted: {Allowed, Denied},
}

// ErrInvalidTransition is wrapped by every TransitionError.
var ErrInvalidTransition = errors.New("guard.invalid_transition")

// TransitionError reports a move missing from the transition table.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("guard: no transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// machine tracks one check.
type machine struct {
	current State
	trace   []State
}

func newMachine() *machine {
	return &machine{current: Unchecked, trace: []State{Unchecked}}
}

func (m *machine) to(next State) error {
	if !slices.Contains(transitions[m.current], next) {
		return &TransitionError{From: m.current, To: next}
	}
	m.current = next
	m.trace = append(m.trace, next)
	return nil
}

// CanTransition reports whether from → to is in the transition table.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}
