//go:build darwin

package platform

import (
	"context"
	"time"

	"idleshutdown/internal/core/scheduler"
	"idleshutdown/internal/logx"
)

type idleSource struct{}

func newIdleSource(logx.Logger) scheduler.IdleSource {
	return idleSource{}
}

func (idleSource) ElapsedSinceLastInput() (time.Duration, error) {
	output, err := runCommand(context.Background(), "ioreg", "-c", "IOHIDSystem", "-d", "4", "-r", "-k", "HIDIdleTime")
	if err != nil {
		return 0, &scheduler.IdleQueryError{Err: err}
	}
	idle, err := parseHIDIdleTime(output)
	if err != nil {
		return 0, &scheduler.IdleQueryError{Err: err}
	}
	return idle, nil
}
