package platform

import (
	"time"

	"idleshutdown/internal/core/scheduler"
	"idleshutdown/internal/logx"
)

// NewIdleSource returns the idle-time source for this OS. When no backend is
// usable, every query fails with scheduler.ErrIdleUnsupported, which the
// scheduler treats as "not idle".
func NewIdleSource(log logx.Logger) scheduler.IdleSource {
	return newIdleSource(log.With(logx.String("component", "idle")))
}

type unsupportedIdleSource struct{}

func (unsupportedIdleSource) ElapsedSinceLastInput() (time.Duration, error) {
	return 0, &scheduler.IdleQueryError{Err: scheduler.ErrIdleUnsupported}
}
