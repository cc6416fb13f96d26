package scheduler

import (
	"time"

	"idleshutdown/internal/core/model"
)

// IdleSource reports the time elapsed since the last keyboard or mouse input.
type IdleSource interface {
	ElapsedSinceLastInput() (time.Duration, error)
}

// ProcessCensus reports the names of the processes running on the host.
type ProcessCensus interface {
	RunningProcessNames() ([]string, error)
}

// Outcome is the result of one shutdown decision.
type Outcome string

const (
	OutcomeNotIdle            Outcome = "not_idle"
	OutcomeKeepAlive          Outcome = "keep_alive"
	OutcomeIdleQueryFailed    Outcome = "idle_query_failed"
	OutcomeProcessQueryFailed Outcome = "process_query_failed"
	OutcomeShutdown           Outcome = "shutdown"
)

// Decision captures why a poll did or did not qualify for shutdown.
type Decision struct {
	Outcome   Outcome
	Idle      time.Duration
	KeepAlive string
	Err       error
}

// ShouldShutdown reports whether the decision qualifies for shutdown.
func (decision Decision) ShouldShutdown() bool {
	return decision.Outcome == OutcomeShutdown
}

// Decide evaluates the shutdown predicate once. The process census is only
// consulted when the idle threshold is met. Query failures resolve to the
// conservative answer: an unreadable idle time counts as not idle and an
// unreadable process list suppresses the shutdown.
func Decide(settings model.Settings, idle IdleSource, census ProcessCensus) Decision {
	elapsed, err := idle.ElapsedSinceLastInput()
	if err != nil {
		return Decision{Outcome: OutcomeIdleQueryFailed, Err: asIdleQueryError(err)}
	}
	if !settings.IsIdle(elapsed) {
		return Decision{Outcome: OutcomeNotIdle, Idle: elapsed}
	}

	running, err := census.RunningProcessNames()
	if err != nil {
		return Decision{Outcome: OutcomeProcessQueryFailed, Idle: elapsed, Err: asProcessQueryError(err)}
	}
	if name, ok := settings.MatchKeepAlive(running); ok {
		return Decision{Outcome: OutcomeKeepAlive, Idle: elapsed, KeepAlive: name}
	}
	return Decision{Outcome: OutcomeShutdown, Idle: elapsed}
}
