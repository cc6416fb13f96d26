//go:build windows

package platform

import (
	"context"
	"fmt"
	"strconv"

	"idleshutdown/internal/core/scheduler"
	"idleshutdown/internal/logx"
)

// shutdown.exe rejects comments longer than this.
const maxShutdownComment = 512

type hostShutdown struct {
	log logx.Logger
}

func newShutdownController(log logx.Logger) ShutdownController {
	return &hostShutdown{log: log}
}

func (host *hostShutdown) RequestShutdown(warningSeconds int, reason string) error {
	if len(reason) > maxShutdownComment {
		reason = reason[:maxShutdownComment]
	}
	if _, err := runCommand(context.Background(), "shutdown", "/s", "/t", strconv.Itoa(warningSeconds), "/c", reason); err != nil {
		return &scheduler.ShutdownInvocationError{Err: err}
	}
	host.log.Info("shutdown scheduled via shutdown.exe", logx.Int("warning_seconds", warningSeconds))
	return nil
}

func (host *hostShutdown) CancelShutdown() error {
	if _, err := runCommand(context.Background(), "shutdown", "/a"); err != nil {
		return fmt.Errorf("cancel shutdown: %w", err)
	}
	host.log.Info("scheduled shutdown cancelled")
	return nil
}
