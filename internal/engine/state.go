// SPDX-License-Identifier: MPL-2.0

package engine

// State is the progress of the current pass.
type State int

const (
	// StateIdle means no pass has run yet.
	StateIdle State = iota
	// StateResolving means the entry set is being resolved.
	StateResolving
	// StateMaterializing means candidates are being resolved to files.
	StateMaterializing
	// StateAwaitingChunkGraph means entries are declared and the host has
	// not reached chunk emission yet.
	StateAwaitingChunkGraph
	// StateSuppressing means the aggregate chunk is being removed.
	StateSuppressing
	// StateDone means the last pass completed.
	StateDone
	// StateFailed means the last pass was aborted by an error.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateMaterializing:
		return "materializing"
	case StateAwaitingChunkGraph:
		return "awaiting-chunk-graph"
	case StateSuppressing:
		return "suppressing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a pass.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
