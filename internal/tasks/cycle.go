package tasks

import (
	"fmt"

	"github.com/desertthunder/playgen/internal/shared"
)

// State is the position of a generation cycle.
type State int

const (
	Idle State = iota
	AwaitingCompletion
	Resolving
	Materializing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingCompletion:
		return "awaiting_completion"
	case Resolving:
		return "resolving"
	case Materializing:
		return "materializing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

var transitions = map[State]State{
	Idle:               AwaitingCompletion,
	AwaitingCompletion: Resolving,
	Resolving:          Materializing,
	Materializing:      Done,
}

// Cycle tracks the state of one generation. A Cycle is not safe for concurrent use.
type Cycle struct {
	ID     string
	state  State
	reason error
}

// NewCycle returns an idle cycle with a fresh ID.
func NewCycle() *Cycle {
	return &Cycle{ID: shared.GenerateID(), state: Idle}
}

func (c *Cycle) State() State {
	return c.state
}

// Reason returns the failure reason once the cycle is [Failed].
func (c *Cycle) Reason() error {
	return c.reason
}

// Advance moves the cycle to next, which must be the successor of the current state.
func (c *Cycle) Advance(next State) error {
	if want, ok := transitions[c.state]; !ok || want != next {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.state, next)
	}
	c.state = next
	return nil
}

// Fail moves a non-terminal cycle to [Failed].
func (c *Cycle) Fail(reason error) error {
	if c.state.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.state, Failed)
	}
	c.state = Failed
	c.reason = reason
	return nil
}
