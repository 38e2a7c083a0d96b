// internal/generation/client/states.go
package client

// State is the closed set of job-client states. Representing the lifecycle as
// one tagged value instead of ad hoc boolean flags rules out impossible
// combinations like "polling and completed".
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
	StateTimedOut   State = "timed_out"
)

// Terminal reports whether no further transition can occur from s. A new
// submission starts a fresh lifecycle instead of resurrecting a terminal one.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled, StateTimedOut:
		return true
	}
	return false
}
