package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"idleshutdown/internal/core/model"
	"idleshutdown/internal/logx"
)

const (
	settingsFileName = "settings.yaml"
	logFileName      = "idleshutdown.log"
)

type yamlSettings struct {
	IdleCheckInterval  int      `yaml:"idle_check_interval"`
	IdleTimeThreshold  int      `yaml:"idle_time_threshold"`
	StartHour          int      `yaml:"start_hour"`
	EndHour            int      `yaml:"end_hour"`
	KeepAliveProcesses []string `yaml:"keep_alive_processes"`
	LogLevel           string   `yaml:"log_level,omitempty"`
}

// LoadSettings reads settings from YAML at path. Keys missing from the file
// keep their defaults. If the file does not exist, a default file is written
// so the user has something to edit.
func LoadSettings(path string) (model.Settings, error) {
	settings := model.DefaultSettings()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := SaveSettings(path, settings); err != nil {
				return settings, err
			}
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	return parseSettings(rawData)
}

func parseSettings(rawData []byte) (model.Settings, error) {
	fileData := toYaml(model.DefaultSettings())
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return model.DefaultSettings(), fmt.Errorf("parse settings yaml: %w", err)
	}

	settings := fromYaml(fileData)
	if err := settings.Validate(); err != nil {
		return model.DefaultSettings(), fmt.Errorf("invalid settings: %w", err)
	}
	if _, ok := logx.LookupLevel(settings.LogLevel); settings.LogLevel != "" && !ok {
		return model.DefaultSettings(), fmt.Errorf("invalid settings: unknown log_level %q", settings.LogLevel)
	}
	return settings, nil
}

// SaveSettings writes settings to YAML at path.
func SaveSettings(path string, settings model.Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := yaml.Marshal(toYaml(settings))
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// ResolveConfigPath returns override when set, otherwise the settings file
// under the user config directory.
func ResolveConfigPath(appName, override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return filepath.Clean(override), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// DefaultLogPath places the log file next to the settings file.
func DefaultLogPath(settingsPath string) string {
	return filepath.Join(filepath.Dir(settingsPath), logFileName)
}

func toYaml(settings model.Settings) yamlSettings {
	keepAlive := settings.KeepAliveProcessNames
	if keepAlive == nil {
		keepAlive = []string{}
	}
	return yamlSettings{
		IdleCheckInterval:  settings.IdleCheckIntervalSeconds,
		IdleTimeThreshold:  settings.IdleTimeThresholdSeconds,
		StartHour:          settings.StartHour,
		EndHour:            settings.EndHour,
		KeepAliveProcesses: keepAlive,
		LogLevel:           settings.LogLevel,
	}
}

func fromYaml(fileData yamlSettings) model.Settings {
	keepAlive := make([]string, 0, len(fileData.KeepAliveProcesses))
	for _, name := range fileData.KeepAliveProcesses {
		if name = strings.TrimSpace(name); name != "" {
			keepAlive = append(keepAlive, name)
		}
	}
	return model.Settings{
		IdleCheckIntervalSeconds: fileData.IdleCheckInterval,
		IdleTimeThresholdSeconds: fileData.IdleTimeThreshold,
		StartHour:                fileData.StartHour,
		EndHour:                  fileData.EndHour,
		KeepAliveProcessNames:    keepAlive,
		LogLevel:                 strings.ToLower(strings.TrimSpace(fileData.LogLevel)),
	}
}
