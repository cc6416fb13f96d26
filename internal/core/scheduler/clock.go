package scheduler

import "time"

// Timer is a pending one-shot callback.
type Timer interface {
	Stop() bool
}

// Clock supplies wall-clock time and one-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(delay time.Duration, callback func()) Timer
}

type systemClock struct{}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(delay time.Duration, callback func()) Timer {
	return time.AfterFunc(delay, callback)
}

// nextDelay returns how long to wait so the next fire lands interval after
// firedAt, given that the evaluation itself already took some of it.
func nextDelay(interval time.Duration, firedAt, now time.Time) time.Duration {
	delay := interval - now.Sub(firedAt)
	if delay < 0 {
		return 0
	}
	return delay
}
