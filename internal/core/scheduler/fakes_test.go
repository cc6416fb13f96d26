package scheduler

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"idleshutdown/internal/core/model"
)

type fakeTimer struct {
	clock   *fakeClock
	seq     int
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (timer *fakeTimer) Stop() bool {
	timer.clock.mu.Lock()
	defer timer.clock.mu.Unlock()
	pending := !timer.stopped && !timer.fired
	timer.stopped = true
	return pending
}

// fakeClock runs timer callbacks on the goroutine calling Advance, in fire
// order, never while holding its own lock.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) AfterFunc(delay time.Duration, callback func()) Timer {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.seq++
	timer := &fakeTimer{clock: clock, seq: clock.seq, at: clock.now.Add(delay), fn: callback}
	clock.timers = append(clock.timers, timer)
	return timer
}

// Advance moves time forward, firing every timer that comes due.
func (clock *fakeClock) Advance(delta time.Duration) {
	clock.mu.Lock()
	target := clock.now.Add(delta)
	clock.mu.Unlock()

	for {
		clock.mu.Lock()
		next := clock.nextDueLocked(target)
		if next == nil {
			if target.After(clock.now) {
				clock.now = target
			}
			clock.mu.Unlock()
			return
		}
		if next.at.After(clock.now) {
			clock.now = next.at
		}
		next.fired = true
		clock.mu.Unlock()
		next.fn()
	}
}

// Skew moves time forward without firing timers, like a slow query would.
func (clock *fakeClock) Skew(delta time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(delta)
	clock.mu.Unlock()
}

func (clock *fakeClock) nextDueLocked(target time.Time) *fakeTimer {
	var pending []*fakeTimer
	for _, timer := range clock.timers {
		if timer.stopped || timer.fired || timer.at.After(target) {
			continue
		}
		pending = append(pending, timer)
	}
	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].at.Equal(pending[j].at) {
			return pending[i].seq < pending[j].seq
		}
		return pending[i].at.Before(pending[j].at)
	})
	return pending[0]
}

func (clock *fakeClock) pendingAt(at time.Time) *fakeTimer {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	for _, timer := range clock.timers {
		if !timer.stopped && !timer.fired && timer.at.Equal(at) {
			return timer
		}
	}
	return nil
}

func (clock *fakeClock) pendingCount() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	count := 0
	for _, timer := range clock.timers {
		if !timer.stopped && !timer.fired {
			count++
		}
	}
	return count
}

type fakeSettings struct {
	mu       sync.Mutex
	settings model.Settings
}

func newFakeSettings(settings model.Settings) *fakeSettings {
	return &fakeSettings{settings: settings}
}

func (provider *fakeSettings) Current() model.Settings {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	return provider.settings.Clone()
}

func (provider *fakeSettings) Set(settings model.Settings) {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	provider.settings = settings
}

type fakeIdle struct {
	mu     sync.Mutex
	idle   time.Duration
	err    error
	panics bool
	calls  int
	before func()
}

func (source *fakeIdle) ElapsedSinceLastInput() (time.Duration, error) {
	source.mu.Lock()
	source.calls++
	idle, err, panics, before := source.idle, source.err, source.panics, source.before
	source.mu.Unlock()
	if before != nil {
		before()
	}
	if panics {
		panic("idle source exploded")
	}
	return idle, err
}

func (source *fakeIdle) set(idle time.Duration, err error) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.idle = idle
	source.err = err
}

func (source *fakeIdle) Calls() int {
	source.mu.Lock()
	defer source.mu.Unlock()
	return source.calls
}

type fakeCensus struct {
	mu      sync.Mutex
	running []string
	err     error
	calls   int
}

func (census *fakeCensus) RunningProcessNames() ([]string, error) {
	census.mu.Lock()
	defer census.mu.Unlock()
	census.calls++
	return append([]string(nil), census.running...), census.err
}

func (census *fakeCensus) Calls() int {
	census.mu.Lock()
	defer census.mu.Unlock()
	return census.calls
}

type shutdownRequest struct {
	warningSeconds int
	reason         string
}

type fakeInvoker struct {
	mu       sync.Mutex
	requests []shutdownRequest
	err      error
	// during runs while the request is being handled, like a slow host.
	during func()
}

func (invoker *fakeInvoker) RequestShutdown(warningSeconds int, reason string) error {
	invoker.mu.Lock()
	invoker.requests = append(invoker.requests, shutdownRequest{warningSeconds: warningSeconds, reason: reason})
	err, during := invoker.err, invoker.during
	invoker.mu.Unlock()
	if during != nil {
		during()
	}
	return err
}

func (invoker *fakeInvoker) setErr(err error) {
	invoker.mu.Lock()
	defer invoker.mu.Unlock()
	invoker.err = err
}

func (invoker *fakeInvoker) Requests() []shutdownRequest {
	invoker.mu.Lock()
	defer invoker.mu.Unlock()
	return append([]shutdownRequest(nil), invoker.requests...)
}

type recordingSink struct {
	mu    sync.Mutex
	info  []string
	debug []string
	warn  []string
}

func (sink *recordingSink) Log(message string) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.info = append(sink.info, message)
}

func (sink *recordingSink) Debug(message string) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.debug = append(sink.debug, message)
}

func (sink *recordingSink) Warn(message string) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.warn = append(sink.warn, message)
}

func (sink *recordingSink) countInfo(substr string) int {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return countContaining(sink.info, substr)
}

func (sink *recordingSink) countWarn(substr string) int {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return countContaining(sink.warn, substr)
}

func countContaining(lines []string, substr string) int {
	count := 0
	for _, line := range lines {
		if strings.Contains(line, substr) {
			count++
		}
	}
	return count
}

type panickySink struct{}

func (panickySink) Log(string) { panic("sink exploded") }

var errBoom = errors.New("boom")
