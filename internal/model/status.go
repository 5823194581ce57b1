package model

import "fmt"

// RunState is a phase of the delivery loop.
type RunState string

const (
	StateSetup      RunState = "setup"
	StateDelivering RunState = "delivering"
	StateCheckpoint RunState = "checkpoint"
	StateDrained    RunState = "drained"
	StateStopped    RunState = "stopped"
)

var allowedTransitions = map[RunState]map[RunState]bool{
	"": {
		StateSetup: true,
	},
	StateSetup: {
		StateDelivering: true,
		StateDrained:    true, // backlog already empty, nothing to focus for
		StateStopped:    true,
	},
	StateDelivering: {
		StateDelivering: true,
		StateCheckpoint: true,
		StateDrained:    true,
		StateStopped:    true,
	},
	StateCheckpoint: {
		StateDelivering: true,
		StateStopped:    true,
	},
	StateDrained: {},
	StateStopped: {},
}

func IsTerminal(state RunState) bool {
	return state == StateDrained || state == StateStopped
}

func CanTransition(from, to RunState) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// Transition moves *state to to, rejecting edges the loop must never take.
func Transition(state *RunState, to RunState) error {
	from := *state
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid run state transition: %q -> %q", from, to)
	}
	*state = to
	return nil
}
