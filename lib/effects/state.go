// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package effects

// State is the progress of one host session.
type State int

const (
	// StatePending is a session that has not started.
	StatePending State = iota
	StateConnecting
	StateUploading
	StateExecuting

	// StateStreaming is a command whose PID has been reported and whose
	// output is being relayed.
	StateStreaming
	StateDone
	StateCancelled

	// StateFailed is a session ended by a configuration, connection,
	// upload, or start error.
	StateFailed
)

var stateNames = [...]string{
	StatePending:    "PENDING",
	StateConnecting: "CONNECTING",
	StateUploading:  "UPLOADING",
	StateExecuting:  "EXECUTING",
	StateStreaming:  "STREAMING",
	StateDone:       "DONE",
	StateCancelled:  "CANCELLED",
	StateFailed:     "FAILED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Terminal reports whether the session has ended.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}
