package scheduler

import (
	"fmt"
	"sync"
	"time"

	"idleshutdown/internal/core/model"
)

const (
	// HourGateInterval is the cadence of the window membership check.
	HourGateInterval = time.Minute
	// ShutdownWarningSeconds is the delay between the request and power-off.
	ShutdownWarningSeconds = 300
	// ShutdownReason is shown to logged-in users by the host.
	ShutdownReason = "System will shut down in 5 minutes due to inactivity."
)

// SettingsProvider returns the latest settings snapshot.
type SettingsProvider interface {
	Current() model.Settings
}

// ShutdownInvoker asks the host to power off after a warning delay.
type ShutdownInvoker interface {
	RequestShutdown(warningSeconds int, reason string) error
}

// EventSink receives human-readable scheduler log lines.
type EventSink interface {
	Log(message string)
}

// LeveledSink is an EventSink that separates per-poll detail and failures
// from state transitions.
type LeveledSink interface {
	EventSink
	Debug(message string)
	Warn(message string)
}

// Dependencies are the collaborators the scheduler consults.
type Dependencies struct {
	Settings SettingsProvider
	Idle     IdleSource
	Census   ProcessCensus
	Shutdown ShutdownInvoker
	Sink     EventSink
}

// Config contains runtime options for the Scheduler.
type Config struct {
	Clock            Clock
	HourGateInterval time.Duration
	WarningSeconds   int
	Reason           string
}

// Scheduler is the two-timer idle monitoring state machine. The hour gate
// fires every HourGateInterval and starts or stops polling depending on the
// inactive-hours window; the poll timer re-arms itself after every decision
// until it requests a shutdown or the window closes.
type Scheduler struct {
	mu      sync.Mutex
	deps    Dependencies
	options Config
	clock   Clock

	state    State
	running  bool
	settings model.Settings

	gateTimer Timer
	gateGen   uint64
	pollTimer Timer
	pollGen   uint64

	// requestGen identifies the shutdown request in flight.
	requestGen uint64

	events []chan Event
}

// New creates a Scheduler with the provided collaborators.
func New(deps Dependencies, options Config) *Scheduler {
	if options.Clock == nil {
		options.Clock = SystemClock()
	}
	if options.HourGateInterval <= 0 {
		options.HourGateInterval = HourGateInterval
	}
	if options.WarningSeconds <= 0 {
		options.WarningSeconds = ShutdownWarningSeconds
	}
	if options.Reason == "" {
		options.Reason = ShutdownReason
	}
	if deps.Sink == nil {
		deps.Sink = discardSink{}
	}

	return &Scheduler{
		deps:     deps,
		options:  options,
		clock:    options.Clock,
		state:    StateArmed,
		settings: model.DefaultSettings(),
	}
}

// Subscribe registers a new observer channel. Slow observers miss events
// rather than stall the scheduler.
func (scheduler *Scheduler) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	scheduler.mu.Lock()
	scheduler.events = append(scheduler.events, ch)
	scheduler.mu.Unlock()
	return ch
}

// State returns the current window membership state.
func (scheduler *Scheduler) State() State {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	return scheduler.state
}

// PollActive reports whether the poll timer is running.
func (scheduler *Scheduler) PollActive() bool {
	return scheduler.State() == StateMonitoring
}

// Start arms the hour gate. The first window check happens one gate
// interval after Start.
func (scheduler *Scheduler) Start() {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if scheduler.running {
		return
	}
	scheduler.running = true
	scheduler.state = StateArmed

	now := scheduler.clock.Now()
	scheduler.infoLocked(fmt.Sprintf("starting hour gate (every %s)", scheduler.options.HourGateInterval))
	scheduler.armGateLocked(now)
}

// Stop cancels both timers and closes observer channels. Callbacks that
// were already scheduled become no-ops.
func (scheduler *Scheduler) Stop() {
	scheduler.mu.Lock()
	if !scheduler.running {
		scheduler.mu.Unlock()
		return
	}
	scheduler.running = false
	scheduler.stopGateLocked()
	scheduler.stopPollLocked()
	scheduler.state = StateArmed
	scheduler.infoLocked("scheduler stopped")
	events := scheduler.events
	scheduler.events = nil
	scheduler.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (scheduler *Scheduler) armGateLocked(firedAt time.Time) {
	scheduler.gateGen++
	gen := scheduler.gateGen
	delay := nextDelay(scheduler.options.HourGateInterval, firedAt, scheduler.clock.Now())
	scheduler.gateTimer = scheduler.clock.AfterFunc(delay, func() {
		scheduler.onGate(gen)
	})
}

func (scheduler *Scheduler) stopGateLocked() {
	scheduler.gateGen++
	if scheduler.gateTimer != nil {
		scheduler.gateTimer.Stop()
		scheduler.gateTimer = nil
	}
}

func (scheduler *Scheduler) armPollLocked(firedAt time.Time, interval time.Duration) {
	scheduler.pollGen++
	gen := scheduler.pollGen
	delay := nextDelay(interval, firedAt, scheduler.clock.Now())
	scheduler.pollTimer = scheduler.clock.AfterFunc(delay, func() {
		scheduler.onPoll(gen)
	})
}

func (scheduler *Scheduler) stopPollLocked() {
	scheduler.pollGen++
	if scheduler.pollTimer != nil {
		scheduler.pollTimer.Stop()
		scheduler.pollTimer = nil
	}
}

func (scheduler *Scheduler) onGate(gen uint64) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	if !scheduler.running || gen != scheduler.gateGen {
		return
	}

	firedAt := scheduler.clock.Now()
	defer scheduler.armGateLocked(firedAt)
	defer scheduler.recoverLocked("hour gate", firedAt)

	scheduler.evaluateWindowLocked(firedAt)
}

func (scheduler *Scheduler) evaluateWindowLocked(now time.Time) {
	settings := scheduler.currentSettingsLocked()
	inWindow := settings.InWindow(now)

	switch {
	case inWindow && scheduler.state == StateArmed:
		scheduler.setStateLocked(StateMonitoring, now,
			fmt.Sprintf("entering inactive window [%02d:00,%02d:00); polling idle time every %s",
				settings.StartHour, settings.EndHour, settings.CheckInterval()))
		scheduler.armPollLocked(now, settings.CheckInterval())
	case !inWindow && scheduler.state == StateMonitoring:
		scheduler.stopPollLocked()
		scheduler.setStateLocked(StateArmed, now, "leaving inactive window; idle polling stopped")
	case !inWindow && scheduler.state == StateShutdownPending:
		scheduler.stopPollLocked()
		scheduler.setStateLocked(StateArmed, now, "leaving inactive window; re-armed after shutdown request")
	}
}

func (scheduler *Scheduler) onPoll(gen uint64) {
	scheduler.mu.Lock()
	if !scheduler.running || scheduler.state != StateMonitoring || gen != scheduler.pollGen {
		scheduler.mu.Unlock()
		return
	}

	firedAt := scheduler.clock.Now()
	settings := scheduler.currentSettingsLocked()
	decision := scheduler.decide(settings)
	scheduler.reportDecisionLocked(decision, firedAt)

	if !decision.ShouldShutdown() {
		scheduler.armPollLocked(firedAt, settings.CheckInterval())
		scheduler.mu.Unlock()
		return
	}

	// The host may take seconds to answer, so the request runs unlocked.
	// SHUTDOWN_PENDING keeps the gate and further polls from acting on it.
	scheduler.stopPollLocked()
	scheduler.state = StateShutdownPending
	scheduler.requestGen++
	request := scheduler.requestGen
	scheduler.mu.Unlock()

	err := scheduler.requestShutdown()

	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	current := scheduler.running && scheduler.state == StateShutdownPending && request == scheduler.requestGen

	if err != nil {
		message := fmt.Sprintf("shutdown request failed, will retry next poll: %v", err)
		if current {
			scheduler.state = StateMonitoring
			scheduler.armPollLocked(firedAt, settings.CheckInterval())
		} else {
			message = fmt.Sprintf("shutdown request failed after monitoring ended: %v", err)
		}
		scheduler.warnLocked(message)
		scheduler.emitLocked(Event{Type: EventShutdownError, State: scheduler.state, Message: message, At: firedAt})
		return
	}

	message := fmt.Sprintf("system is idle and no keep-alive processes are running; shutdown requested with %ds warning",
		scheduler.options.WarningSeconds)
	if current {
		scheduler.setStateLocked(StateShutdownPending, firedAt, message)
		return
	}
	scheduler.infoLocked(message)
}

func (scheduler *Scheduler) decide(settings model.Settings) (decision Decision) {
	defer func() {
		if recovered := recover(); recovered != nil {
			decision = Decision{Outcome: OutcomeIdleQueryFailed, Err: fmt.Errorf("poll panicked: %v", recovered)}
		}
	}()
	return Decide(settings, scheduler.deps.Idle, scheduler.deps.Census)
}

func (scheduler *Scheduler) requestShutdown() (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &ShutdownInvocationError{Err: fmt.Errorf("panicked: %v", recovered)}
		}
	}()
	if err := scheduler.deps.Shutdown.RequestShutdown(scheduler.options.WarningSeconds, scheduler.options.Reason); err != nil {
		return asShutdownInvocationError(err)
	}
	return nil
}

func (scheduler *Scheduler) reportDecisionLocked(decision Decision, now time.Time) {
	event := Event{
		Type:      EventPoll,
		State:     scheduler.state,
		Outcome:   decision.Outcome,
		Idle:      decision.Idle,
		KeepAlive: decision.KeepAlive,
		At:        now,
	}

	switch decision.Outcome {
	case OutcomeIdleQueryFailed, OutcomeProcessQueryFailed:
		event.Type = EventQueryError
		event.Message = fmt.Sprintf("%v; no shutdown this cycle", decision.Err)
		scheduler.warnLocked(event.Message)
	case OutcomeNotIdle:
		event.Message = fmt.Sprintf("idle time detected: %s", formatSeconds(decision.Idle))
		scheduler.debugLocked(event.Message)
	case OutcomeKeepAlive:
		event.Message = fmt.Sprintf("idle time detected: %s; keep-alive process detected: %s",
			formatSeconds(decision.Idle), decision.KeepAlive)
		scheduler.debugLocked(event.Message)
	case OutcomeShutdown:
		event.Message = fmt.Sprintf("idle time detected: %s; no keep-alive processes detected",
			formatSeconds(decision.Idle))
		scheduler.debugLocked(event.Message)
	}
	scheduler.emitLocked(event)
}

// currentSettingsLocked reads the snapshot once per evaluation and clamps
// values a validated snapshot would never carry. A provider that panics
// leaves the last good snapshot in effect.
func (scheduler *Scheduler) currentSettingsLocked() model.Settings {
	settings, err := scheduler.readSettings()
	if err != nil {
		scheduler.warnLocked(fmt.Sprintf("settings unavailable, keeping previous snapshot: %v", err))
		return scheduler.settings
	}
	if settings.IdleCheckIntervalSeconds <= 0 {
		scheduler.warnLocked(fmt.Sprintf("invalid idle check interval %ds, using %ds",
			settings.IdleCheckIntervalSeconds, model.DefaultIdleCheckInterval))
		settings.IdleCheckIntervalSeconds = model.DefaultIdleCheckInterval
	}
	if settings.IdleTimeThresholdSeconds <= 0 {
		scheduler.warnLocked(fmt.Sprintf("invalid idle time threshold %ds, using %ds",
			settings.IdleTimeThresholdSeconds, model.DefaultIdleTimeThreshold))
		settings.IdleTimeThresholdSeconds = model.DefaultIdleTimeThreshold
	}
	scheduler.settings = settings
	return settings
}

func (scheduler *Scheduler) readSettings() (settings model.Settings, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("settings provider panicked: %v", recovered)
		}
	}()
	return scheduler.deps.Settings.Current(), nil
}

func (scheduler *Scheduler) setStateLocked(state State, now time.Time, message string) {
	scheduler.state = state
	scheduler.infoLocked(message)
	scheduler.emitLocked(Event{
		Type:    EventStateChange,
		State:   state,
		Message: message,
		At:      now,
	})
}

func (scheduler *Scheduler) recoverLocked(stage string, now time.Time) {
	if recovered := recover(); recovered != nil {
		message := fmt.Sprintf("%s evaluation panicked, skipping tick: %v", stage, recovered)
		scheduler.warnLocked(message)
		scheduler.emitLocked(Event{Type: EventQueryError, State: scheduler.state, Message: message, At: now})
	}
}

func (scheduler *Scheduler) infoLocked(message string) {
	safeLog(func() { scheduler.deps.Sink.Log(message) })
}

func (scheduler *Scheduler) debugLocked(message string) {
	if leveled, ok := scheduler.deps.Sink.(LeveledSink); ok {
		safeLog(func() { leveled.Debug(message) })
		return
	}
	safeLog(func() { scheduler.deps.Sink.Log(message) })
}

func (scheduler *Scheduler) warnLocked(message string) {
	if leveled, ok := scheduler.deps.Sink.(LeveledSink); ok {
		safeLog(func() { leveled.Warn(message) })
		return
	}
	safeLog(func() { scheduler.deps.Sink.Log(message) })
}

func (scheduler *Scheduler) emitLocked(event Event) {
	for _, ch := range scheduler.events {
		select {
		case ch <- event:
		default:
		}
	}
}

// safeLog keeps a misbehaving sink from unwinding a timer callback.
func safeLog(write func()) {
	defer func() {
		_ = recover()
	}()
	write()
}

func formatSeconds(duration time.Duration) string {
	return fmt.Sprintf("%d seconds", int64(duration/time.Second))
}

type discardSink struct{}

func (discardSink) Log(string) {}
