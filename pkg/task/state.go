package task

// transitions is the legal state-edge table from spec.md §4.8. Terminal
// states have no entry (and thus no outbound edges).
var transitions = map[State]map[State]bool{
	StateSubmitted: {
		StateWorking:   true,
		StateFailed:    true,
		StateCancelled: true,
		StateRejected:  true,
	},
	StateWorking: {
		StateInputRequired: true,
		StateAuthRequired:  true,
		StateCompleted:     true,
		StateFailed:        true,
		StateCancelled:     true,
	},
	StateInputRequired: {
		StateWorking:   true,
		StateFailed:    true,
		StateCancelled: true,
	},
	StateAuthRequired: {
		StateWorking:   true,
		StateFailed:    true,
		StateCancelled: true,
	},
}

// CanTransition reports whether the from→to edge is permitted.
func CanTransition(from, to State) bool {
	edges, ok := transitions[from]
	if !ok {
		return false
	}
	return edges[to]
}
