package task

import "testing"

func TestCanTransition_LegalEdges(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{StateSubmitted, StateWorking, true},
		{StateSubmitted, StateFailed, true},
		{StateSubmitted, StateCancelled, true},
		{StateSubmitted, StateRejected, true},
		{StateSubmitted, StateCompleted, false},
		{StateWorking, StateInputRequired, true},
		{StateWorking, StateAuthRequired, true},
		{StateWorking, StateCompleted, true},
		{StateWorking, StateFailed, true},
		{StateWorking, StateCancelled, true},
		{StateWorking, StateRejected, false},
		{StateInputRequired, StateWorking, true},
		{StateInputRequired, StateCompleted, false},
		{StateAuthRequired, StateWorking, true},
		{StateCompleted, StateWorking, false},
		{StateFailed, StateWorking, false},
		{StateCancelled, StateWorking, false},
		{StateRejected, StateWorking, false},
	}

	for _, c := range cases {
		got := CanTransition(c.from, c.to)
		if got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	terminal := []State{StateCompleted, StateFailed, StateCancelled, StateRejected}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	nonTerminal := []State{StateSubmitted, StateWorking, StateInputRequired, StateAuthRequired}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
