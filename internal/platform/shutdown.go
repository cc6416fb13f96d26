package platform

import (
	"idleshutdown/internal/core/scheduler"
	"idleshutdown/internal/logx"
)

// ShutdownController requests a delayed power-off and can abort it while
// the warning delay is still running.
type ShutdownController interface {
	scheduler.ShutdownInvoker
	CancelShutdown() error
}

// NewShutdownController returns the power-off backend for this OS.
func NewShutdownController(log logx.Logger) ShutdownController {
	return newShutdownController(log.With(logx.String("component", "shutdown")))
}

// DryRun logs shutdown requests instead of acting on them.
type DryRun struct {
	Log logx.Logger
}

func (d DryRun) RequestShutdown(warningSeconds int, reason string) error {
	d.Log.Warn("dry run: shutdown not requested",
		logx.Int("warning_seconds", warningSeconds),
		logx.String("reason", reason),
	)
	return nil
}

func (d DryRun) CancelShutdown() error {
	d.Log.Info("dry run: nothing to cancel")
	return nil
}
