//go:build windows

package platform

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

const registryRunKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

func (service *platformService) EnableAutostart(appName, execPath string, args ...string) error {
	if err := validateAutostart("enable", appName, execPath); err != nil {
		return err
	}

	command := exec.Command(
		"reg",
		"add",
		registryRunKey,
		"/v",
		appName,
		"/t",
		"REG_SZ",
		"/d",
		runKeyValue(execPath, args),
		"/f",
	)
	output, err := command.CombinedOutput()
	if err != nil {
		return fmt.Errorf("enable autostart: reg add failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return nil
}

func (service *platformService) DisableAutostart(appName string) error {
	if err := validateAutostart("disable", appName, ""); err != nil {
		return err
	}

	command := exec.Command("reg", "delete", registryRunKey, "/v", appName, "/f")
	output, err := command.CombinedOutput()
	if err != nil {
		return fmt.Errorf("disable autostart: reg delete failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return nil
}

// OpenInEditor uses Notepad since .yaml has no default handler on a stock
// install.
func (service *platformService) OpenInEditor(path string) error {
	command := exec.CommandContext(context.Background(), "notepad.exe", path)
	if err := command.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	go func() { _ = command.Wait() }()
	return nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "AppData", "Roaming")
}

func runKeyValue(execPath string, args []string) string {
	parts := []string{quoteWindowsPath(execPath)}
	for _, arg := range args {
		if strings.ContainsAny(arg, " \t") {
			arg = quoteWindowsPath(arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

func quoteWindowsPath(execPath string) string {
	trimmed := strings.Trim(execPath, `"`)
	return fmt.Sprintf(`"%s"`, trimmed)
}
