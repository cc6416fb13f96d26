package model

import (
	"fmt"
	"strings"
	"time"
)

// Default settings values.
const (
	DefaultIdleCheckInterval = 10
	DefaultIdleTimeThreshold = 1800
	DefaultStartHour         = 1
	DefaultEndHour           = 7
)

// Settings is an immutable snapshot of the idle shutdown configuration.
// Callers replace it wholesale; nothing mutates a snapshot after it has been
// handed to the scheduler.
type Settings struct {
	IdleCheckIntervalSeconds int
	IdleTimeThresholdSeconds int
	StartHour                int
	EndHour                  int
	KeepAliveProcessNames    []string
	// LogLevel overrides the command-line log level while set.
	LogLevel string
}

// DefaultSettings returns the settings written to a fresh settings file.
func DefaultSettings() Settings {
	return Settings{
		IdleCheckIntervalSeconds: DefaultIdleCheckInterval,
		IdleTimeThresholdSeconds: DefaultIdleTimeThreshold,
		StartHour:                DefaultStartHour,
		EndHour:                  DefaultEndHour,
		KeepAliveProcessNames:    []string{},
	}
}

// CheckInterval returns the poll cadence.
func (settings Settings) CheckInterval() time.Duration {
	return time.Duration(settings.IdleCheckIntervalSeconds) * time.Second
}

// IdleThreshold returns the minimum continuous idle time before shutdown.
func (settings Settings) IdleThreshold() time.Duration {
	return time.Duration(settings.IdleTimeThresholdSeconds) * time.Second
}

// InWindow reports whether now falls inside [StartHour, EndHour) in local
// wall-clock hours. The range does not wrap around midnight: a window with
// StartHour >= EndHour contains no hour at all.
func (settings Settings) InWindow(now time.Time) bool {
	hour := now.Hour()
	return hour >= settings.StartHour && hour < settings.EndHour
}

// IsIdle reports whether idle meets the configured threshold. Whole seconds
// are compared, the same way the threshold is configured.
func (settings Settings) IsIdle(idle time.Duration) bool {
	return int64(idle/time.Second) >= int64(settings.IdleTimeThresholdSeconds)
}

// MatchKeepAlive returns the first running process name that matches a
// configured keep-alive entry.
func (settings Settings) MatchKeepAlive(running []string) (string, bool) {
	if len(settings.KeepAliveProcessNames) == 0 || len(running) == 0 {
		return "", false
	}
	wanted := make(map[string]struct{}, len(settings.KeepAliveProcessNames))
	for _, name := range settings.KeepAliveProcessNames {
		key := NormalizeProcessName(name)
		if key == "" {
			continue
		}
		wanted[key] = struct{}{}
	}
	for _, name := range running {
		if _, ok := wanted[NormalizeProcessName(name)]; ok {
			return name, true
		}
	}
	return "", false
}

// NormalizeProcessName folds case and drops a trailing ".exe" so that
// "Backup.EXE" and "backup" name the same program. Beyond a plain
// case-insensitive comparison the suffix rule only adds matches: it can
// keep the machine running, never shut it down.
func NormalizeProcessName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(key, ".exe")
}

// Validate checks the ranges a settings file must respect.
func (settings Settings) Validate() error {
	if settings.IdleCheckIntervalSeconds <= 0 {
		return fmt.Errorf("idle_check_interval must be > 0, got %d", settings.IdleCheckIntervalSeconds)
	}
	if settings.IdleTimeThresholdSeconds <= 0 {
		return fmt.Errorf("idle_time_threshold must be > 0, got %d", settings.IdleTimeThresholdSeconds)
	}
	if settings.StartHour < 0 || settings.StartHour > 23 {
		return fmt.Errorf("start_hour must be in [0,23], got %d", settings.StartHour)
	}
	// 24 lets a window run until midnight.
	if settings.EndHour < 0 || settings.EndHour > 24 {
		return fmt.Errorf("end_hour must be in [0,24], got %d", settings.EndHour)
	}
	return nil
}

// Clone returns a copy that shares no backing arrays with settings.
func (settings Settings) Clone() Settings {
	clone := settings
	clone.KeepAliveProcessNames = append([]string(nil), settings.KeepAliveProcessNames...)
	return clone
}

// String renders the snapshot for start-up and reload log lines.
func (settings Settings) String() string {
	return fmt.Sprintf(
		"threshold=%ds interval=%ds window=[%02d:00,%02d:00) keep_alive=[%s]",
		settings.IdleTimeThresholdSeconds,
		settings.IdleCheckIntervalSeconds,
		settings.StartHour,
		settings.EndHour,
		strings.Join(settings.KeepAliveProcessNames, ", "),
	)
}
