//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"idleshutdown/internal/core/scheduler"
	"idleshutdown/internal/logx"
)

const logindRequestTimeout = 15 * time.Second

// hostShutdown schedules the power-off through logind so the wall message
// reaches every session, and falls back to shutdown(8) when the bus or
// polkit refuses.
type hostShutdown struct {
	log logx.Logger
}

func newShutdownController(log logx.Logger) ShutdownController {
	return &hostShutdown{log: log}
}

func (host *hostShutdown) RequestShutdown(warningSeconds int, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), logindRequestTimeout)
	defer cancel()

	at := time.Now().Add(time.Duration(warningSeconds) * time.Second)
	err := retry.Do(
		func() error {
			manager, err := systemLogind()
			if err != nil {
				return err
			}
			return manager.scheduleShutdown(ctx, at, reason)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryableLogindError),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			host.log.Debug("retrying logind shutdown request", logx.Int("attempt", int(n)+1), logx.Err(err))
		}),
	)
	if err == nil {
		host.log.Info("shutdown scheduled via logind", logx.Int("warning_seconds", warningSeconds))
		return nil
	}

	host.log.Warn("logind shutdown request failed; falling back to shutdown(8)", logx.Err(err))
	minutes := fmt.Sprintf("+%d", warningMinutes(warningSeconds))
	if _, execErr := runCommand(context.Background(), "shutdown", "-P", minutes, reason); execErr != nil {
		return &scheduler.ShutdownInvocationError{Err: errors.Join(err, execErr)}
	}
	return nil
}

func (host *hostShutdown) CancelShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), logindRequestTimeout)
	defer cancel()

	manager, err := systemLogind()
	if err == nil {
		var cancelled bool
		if cancelled, err = manager.cancelShutdown(ctx); err == nil {
			host.log.Info("scheduled shutdown cancelled", logx.Bool("was_pending", cancelled))
			return nil
		}
	}

	host.log.Warn("logind cancel failed; falling back to shutdown -c", logx.Err(err))
	if _, execErr := runCommand(context.Background(), "shutdown", "-c"); execErr != nil {
		return fmt.Errorf("cancel shutdown: %w", errors.Join(err, execErr))
	}
	return nil
}
