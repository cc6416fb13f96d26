package logx

import (
	"sync"

	"golang.org/x/time/rate"
)

// Sink adapts a Logger to the scheduler's leveled event sink. Transitions
// are logged at info and per-poll detail at debug. Warnings share a token
// bucket; the ones dropped while it is empty are counted and reported on the
// next warning that gets through.
type Sink struct {
	logger Logger

	mu         sync.Mutex
	limiter    *rate.Limiter
	suppressed int
}

// NewSink creates a Sink allowing burst warnings and then one every
// 1/perSecond seconds. perSecond <= 0 disables throttling.
func NewSink(logger Logger, perSecond float64, burst int) *Sink {
	sink := &Sink{logger: logger.With(String("component", "scheduler"))}
	if perSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		sink.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return sink
}

func (s *Sink) Log(message string)   { s.logger.Info(message) }
func (s *Sink) Debug(message string) { s.logger.Debug(message) }

func (s *Sink) Warn(message string) {
	s.mu.Lock()
	if s.limiter != nil && !s.limiter.Allow() {
		s.suppressed++
		s.mu.Unlock()
		return
	}
	suppressed := s.suppressed
	s.suppressed = 0
	s.mu.Unlock()

	if suppressed > 0 {
		s.logger.Warn(message, Int("suppressed", suppressed))
		return
	}
	s.logger.Warn(message)
}
