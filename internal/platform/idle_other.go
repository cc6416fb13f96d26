//go:build !linux && !windows && !darwin

package platform

import (
	"idleshutdown/internal/core/scheduler"
	"idleshutdown/internal/logx"
)

func newIdleSource(logx.Logger) scheduler.IdleSource {
	return unsupportedIdleSource{}
}
