//go:build !linux && !windows

package platform

import (
	"context"
	"fmt"

	"idleshutdown/internal/core/scheduler"
	"idleshutdown/internal/logx"
)

// hostShutdown uses BSD shutdown(8), which needs root.
type hostShutdown struct {
	log logx.Logger
}

func newShutdownController(log logx.Logger) ShutdownController {
	return &hostShutdown{log: log}
}

func (host *hostShutdown) RequestShutdown(warningSeconds int, reason string) error {
	minutes := fmt.Sprintf("+%d", warningMinutes(warningSeconds))
	if _, err := runCommand(context.Background(), "shutdown", "-h", minutes, reason); err != nil {
		return &scheduler.ShutdownInvocationError{Err: err}
	}
	host.log.Info("shutdown scheduled via shutdown(8)", logx.Int("warning_seconds", warningSeconds))
	return nil
}

// CancelShutdown stops the pending shutdown(8) process; BSD shutdown has
// no cancel flag.
func (host *hostShutdown) CancelShutdown() error {
	if _, err := runCommand(context.Background(), "killall", "shutdown"); err != nil {
		return fmt.Errorf("cancel shutdown: %w", err)
	}
	host.log.Info("scheduled shutdown cancelled")
	return nil
}
