package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"idleshutdown/internal/core/model"
	"idleshutdown/internal/core/scheduler"
	"idleshutdown/internal/logx"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		want    options
		wantErr string
	}{
		{
			name: "defaults",
			want: options{logLevel: "info"},
		},
		{
			name: "environment fills unset flags",
			env:  map[string]string{envConfig: "/etc/idle.yaml", envLogLevel: "debug", envDryRun: "true"},
			want: options{configPath: "/etc/idle.yaml", logLevel: "debug", dryRun: true},
		},
		{
			name: "flags beat environment",
			args: []string{"--config", "/tmp/s.yaml", "--log-level", "warn", "--dry-run=false"},
			env:  map[string]string{envConfig: "/etc/idle.yaml", envLogLevel: "debug", envDryRun: "1"},
			want: options{configPath: "/tmp/s.yaml", logLevel: "warn"},
		},
		{
			name: "headless with appended log",
			args: []string{"--no-tray", "--log-append", "--log-file", "/var/log/idle.log"},
			want: options{logLevel: "info", noTray: true, logAppend: true, logFile: "/var/log/idle.log"},
		},
		{
			name: "autostart",
			args: []string{"--autostart", "enable"},
			want: options{logLevel: "info", autostart: "enable"},
		},
		{
			name:    "bad autostart action",
			args:    []string{"--autostart", "maybe"},
			wantErr: "--autostart",
		},
		{
			name:    "bad dry run env",
			env:     map[string]string{envDryRun: "sometimes"},
			wantErr: envDryRun,
		},
		{
			name:    "bad log level",
			args:    []string{"--log-level", "loud"},
			wantErr: "log level",
		},
		{
			name:    "positional arguments",
			args:    []string{"now"},
			wantErr: "unexpected arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOptions(tt.args, envMap(tt.env), io.Discard)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOptions: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseOptionsHelp(t *testing.T) {
	var out bytes.Buffer
	_, err := parseOptions([]string{"--help"}, envMap(nil), &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "--no-tray") {
		t.Errorf("usage should list flags:\n%s", out.String())
	}
}

func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	printVersion(&out)
	if !strings.HasPrefix(out.String(), "IdleShutdown 1.0.1") {
		t.Errorf("unexpected version output %q", out.String())
	}
	if !strings.Contains(out.String(), "1.0.0 - Initial release.") {
		t.Errorf("changelog missing from %q", out.String())
	}
}

func TestWriteCheckReport(t *testing.T) {
	color.NoColor = true
	settings := model.DefaultSettings()
	settings.KeepAliveProcessNames = []string{"backup.exe"}
	inside := time.Date(2026, 3, 14, 2, 30, 0, 0, time.Local)
	outside := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name     string
		now      time.Time
		decision scheduler.Decision
		want     []string
	}{
		{
			name:     "would shut down",
			now:      inside,
			decision: scheduler.Decision{Outcome: scheduler.OutcomeShutdown, Idle: 2000 * time.Second},
			want:     []string{"inside inactive hours", "2000 seconds", "none running", "would request shutdown (300s warning)"},
		},
		{
			name:     "keep-alive running",
			now:      inside,
			decision: scheduler.Decision{Outcome: scheduler.OutcomeKeepAlive, Idle: 2000 * time.Second, KeepAlive: "backup.exe"},
			want:     []string{"backup.exe is running", "no shutdown (keep_alive)"},
		},
		{
			name:     "not idle",
			now:      inside,
			decision: scheduler.Decision{Outcome: scheduler.OutcomeNotIdle, Idle: 12 * time.Second},
			want:     []string{"12 seconds", "below 1800 second threshold", "not checked"},
		},
		{
			name:     "idle query failed",
			now:      inside,
			decision: scheduler.Decision{Outcome: scheduler.OutcomeIdleQueryFailed, Err: &scheduler.IdleQueryError{Err: scheduler.ErrIdleUnsupported}},
			want:     []string{"unavailable: idle query: idle detection unsupported", "no shutdown (idle_query_failed)"},
		},
		{
			name:     "outside window",
			now:      outside,
			decision: scheduler.Decision{Outcome: scheduler.OutcomeShutdown, Idle: 2000 * time.Second},
			want:     []string{"outside inactive hours; no polling", "shutdown conditions met, but outside inactive hours"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			writeCheckReport(&out, tt.now, "/home/u/.config/IdleShutdown/settings.yaml", settings, tt.decision)
			report := out.String()
			for _, want := range tt.want {
				if !strings.Contains(report, want) {
					t.Errorf("report missing %q:\n%s", want, report)
				}
			}
		})
	}
}

func TestFollowLogLevelAppliesSettings(t *testing.T) {
	logs, logger := logx.New(logx.Config{
		Level: "info",
		File:  logx.FileConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "idleshutdown.log")},
	})
	defer logs.Close()
	a := &app{logs: logs, log: logger}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := make(chan model.Settings)
	go a.followLogLevel(ctx, updates)

	steps := []struct {
		logLevel string
		want     string
	}{
		{logLevel: "debug", want: "debug"},
		{logLevel: "error", want: "error"},
		{logLevel: "", want: "info"},
	}
	for _, step := range steps {
		settings := model.DefaultSettings()
		settings.LogLevel = step.logLevel
		updates <- settings

		deadline := time.Now().Add(2 * time.Second)
		for logs.Level() != step.want && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if got := logs.Level(); got != step.want {
			t.Fatalf("log_level %q: level = %q, want %q", step.logLevel, got, step.want)
		}
	}
}
