package scheduler

import "time"

// State represents the window membership state of the scheduler.
type State string

const (
	// StateArmed means "now" is outside the inactive window and no polling runs.
	StateArmed State = "armed"
	// StateMonitoring means the poll timer is running inside the window.
	StateMonitoring State = "monitoring"
	// StateShutdownPending means a shutdown was requested and polling stopped.
	// Only an out-of-window hour-gate tick leaves this state.
	StateShutdownPending State = "shutdown_pending"
)

// EventType defines the type of scheduler event.
type EventType string

const (
	EventStateChange   EventType = "state_change"
	EventPoll          EventType = "poll"
	EventQueryError    EventType = "query_error"
	EventShutdownError EventType = "shutdown_error"
)

// Event represents a scheduler update for observers.
type Event struct {
	Type      EventType
	State     State
	Outcome   Outcome
	Idle      time.Duration
	KeepAlive string
	Message   string
	At        time.Time
}
