//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	logindDest    = "org.freedesktop.login1"
	logindPath    = dbus.ObjectPath("/org/freedesktop/login1")
	logindManager = "org.freedesktop.login1.Manager"
)

// logind talks to systemd-logind's Manager object on the system bus.
type logind struct {
	object dbus.BusObject
}

func systemLogind() (*logind, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &logind{object: conn.Object(logindDest, logindPath)}, nil
}

// idle reads the seat-wide idle hint logind aggregates from all sessions.
func (l *logind) idle(now time.Time) (time.Duration, error) {
	hint, err := l.object.GetProperty(logindManager + ".IdleHint")
	if err != nil {
		return 0, fmt.Errorf("logind IdleHint: %w", err)
	}
	idle, ok := hint.Value().(bool)
	if !ok {
		return 0, fmt.Errorf("logind IdleHint: unexpected type %s", hint.Signature())
	}
	since, err := l.object.GetProperty(logindManager + ".IdleSinceHint")
	if err != nil {
		return 0, fmt.Errorf("logind IdleSinceHint: %w", err)
	}
	sinceMicros, ok := since.Value().(uint64)
	if !ok {
		return 0, fmt.Errorf("logind IdleSinceHint: unexpected type %s", since.Signature())
	}
	return idleSinceHint(idle, sinceMicros, now), nil
}

func (l *logind) scheduleShutdown(ctx context.Context, at time.Time, reason string) error {
	if err := l.object.CallWithContext(ctx, logindManager+".SetWallMessage", 0, reason, true).Err; err != nil {
		return fmt.Errorf("logind SetWallMessage: %w", err)
	}
	if err := l.object.CallWithContext(ctx, logindManager+".ScheduleShutdown", 0, "poweroff", uint64(at.UnixMicro())).Err; err != nil {
		return fmt.Errorf("logind ScheduleShutdown: %w", err)
	}
	return nil
}

func (l *logind) cancelShutdown(ctx context.Context) (bool, error) {
	var cancelled bool
	if err := l.object.CallWithContext(ctx, logindManager+".CancelScheduledShutdown", 0).Store(&cancelled); err != nil {
		return false, fmt.Errorf("logind CancelScheduledShutdown: %w", err)
	}
	return cancelled, nil
}

// retryableLogindError is false for polkit and permission refusals, which
// will not change on a second attempt.
func retryableLogindError(err error) bool {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		switch dbusErr.Name {
		case "org.freedesktop.DBus.Error.AccessDenied",
			"org.freedesktop.DBus.Error.InteractiveAuthorizationRequired",
			"org.freedesktop.DBus.Error.UnknownMethod",
			"org.freedesktop.DBus.Error.ServiceUnknown":
			return false
		}
	}
	return true
}
