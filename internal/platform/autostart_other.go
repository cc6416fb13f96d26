//go:build !linux && !windows && !darwin

package platform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

var errAutostartUnsupported = errors.New("autostart is not supported on " + runtime.GOOS)

func (service *platformService) EnableAutostart(appName, execPath string, args ...string) error {
	if err := validateAutostart("enable", appName, execPath); err != nil {
		return err
	}
	return errAutostartUnsupported
}

func (service *platformService) DisableAutostart(appName string) error {
	if err := validateAutostart("disable", appName, ""); err != nil {
		return err
	}
	return errAutostartUnsupported
}

func (service *platformService) OpenInEditor(path string) error {
	if _, err := runCommand(context.Background(), "xdg-open", path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}
