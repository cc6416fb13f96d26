//go:build linux

package platform

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"idleshutdown/internal/core/scheduler"
	"idleshutdown/internal/logx"
)

// idleSource prefers xprintidle on X11 sessions and falls back to logind's
// idle hint, which also covers Wayland desktops and headless hosts.
type idleSource struct {
	log            logx.Logger
	xprintidlePath string
}

func newIdleSource(log logx.Logger) scheduler.IdleSource {
	source := &idleSource{log: log}
	if path, err := exec.LookPath("xprintidle"); err == nil {
		source.xprintidlePath = path
	}
	return source
}

func (source *idleSource) ElapsedSinceLastInput() (time.Duration, error) {
	var errs []error

	if source.xprintidlePath != "" && os.Getenv("DISPLAY") != "" {
		output, err := runCommand(context.Background(), source.xprintidlePath)
		if err == nil {
			idle, parseErr := parseMillis(output)
			if parseErr == nil {
				return idle, nil
			}
			err = parseErr
		}
		source.log.Debug("xprintidle failed; trying logind", logx.Err(err))
		errs = append(errs, err)
	}

	manager, err := systemLogind()
	if err == nil {
		var idle time.Duration
		if idle, err = manager.idle(time.Now()); err == nil {
			return idle, nil
		}
	}
	errs = append(errs, err)
	return 0, &scheduler.IdleQueryError{Err: errors.Join(errs...)}
}
