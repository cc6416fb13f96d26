package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func jsonLogger(buf *bytes.Buffer, level zerolog.Level) Logger {
	zl := zerolog.New(buf).Level(level).With().Timestamp().Logger()
	return Logger{base: &zl}
}

func TestLookupLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   zerolog.Level
		wantOK bool
	}{
		{in: "debug", want: zerolog.DebugLevel, wantOK: true},
		{in: " WARNING ", want: zerolog.WarnLevel, wantOK: true},
		{in: "Error", want: zerolog.ErrorLevel, wantOK: true},
		{in: "", wantOK: false},
		{in: "trace", wantOK: false},
		{in: "loud", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := LookupLevel(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("LookupLevel(%q) = %s, %v, want %s, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, zerolog.DebugLevel).With(String("component", "test"))

	logger.Debug("poll", Int("idle_seconds", 42), Bool("in_window", true))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	line := lines[0]
	if line["message"] != "poll" || line["component"] != "test" {
		t.Errorf("unexpected line %v", line)
	}
	if line["idle_seconds"] != float64(42) || line["in_window"] != true {
		t.Errorf("unexpected fields %v", line)
	}
	caller, _ := line["caller"].(string)
	if !strings.HasPrefix(caller, "logging_test.go:") {
		t.Errorf("expected short caller, got %q", caller)
	}
}

func TestZeroLoggerIsNoop(t *testing.T) {
	var logger Logger
	logger.Info("nothing happens")
	logger.With(String("k", "v")).Warn("still nothing")
}

func TestServiceSetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idleshutdown.log")
	svc, logger := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	defer svc.Close()
	derived := logger.With(String("component", "scheduler"))

	derived.Debug("hidden before")
	if !svc.SetLevel("DEBUG") {
		t.Fatal("SetLevel(DEBUG) reported no change")
	}
	if svc.SetLevel("debug") {
		t.Error("SetLevel(debug) twice reported a change")
	}
	if got := svc.Level(); got != "debug" {
		t.Errorf("Level() = %q, want debug", got)
	}
	derived.Debug("shown after")

	if !svc.SetLevel("") {
		t.Error("SetLevel(\"\") did not restore the configured level")
	}
	if got := svc.Level(); got != "info" {
		t.Errorf("Level() after reset = %q, want info", got)
	}
	derived.Debug("hidden again")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if strings.Contains(content, "hidden") {
		t.Errorf("debug line written at info level: %q", content)
	}
	if !strings.Contains(content, "shown after") {
		t.Errorf("debug line missing after SetLevel: %q", content)
	}
}

func TestSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(jsonLogger(&buf, zerolog.InfoLevel), 0, 0)

	sink.Log("entering inactive window")
	sink.Debug("idle time detected: 5 seconds")
	sink.Warn("idle query: boom")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected debug to be filtered, got %d lines", len(lines))
	}
	if lines[0]["level"] != "info" || lines[1]["level"] != "warn" {
		t.Errorf("unexpected levels %v, %v", lines[0]["level"], lines[1]["level"])
	}
	if lines[0]["component"] != "scheduler" {
		t.Errorf("expected component=scheduler, got %v", lines[0]["component"])
	}
}

func TestSinkThrottlesWarnings(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(jsonLogger(&buf, zerolog.InfoLevel), 1e-9, 1)

	sink.Warn("first")
	sink.Warn("second")
	sink.Warn("third")

	sink.mu.Lock()
	sink.limiter = rate.NewLimiter(rate.Inf, 1)
	sink.mu.Unlock()
	sink.Warn("fourth")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 warnings through, got %d", len(lines))
	}
	if lines[1]["message"] != "fourth" {
		t.Errorf("unexpected message %v", lines[1]["message"])
	}
	if lines[1]["suppressed"] != float64(2) {
		t.Errorf("expected suppressed=2, got %v", lines[1]["suppressed"])
	}
}

func TestServiceTruncatesLogFile(t *testing.T) {
	tests := []struct {
		name    string
		append  bool
		wantOld bool
	}{
		{name: "truncate on start", append: false, wantOld: false},
		{name: "append mode", append: true, wantOld: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "logs", "idleshutdown.log")
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte("previous run\n"), 0o644); err != nil {
				t.Fatal(err)
			}

			svc, logger := New(Config{
				Level: "info",
				File:  FileConfig{Enabled: true, Path: path, Append: tt.append},
			})
			if svc.FilePath() != path {
				t.Errorf("expected FilePath %q, got %q", path, svc.FilePath())
			}
			logger.Info("scheduler started")
			if err := svc.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			content := string(data)
			if got := strings.Contains(content, "previous run"); got != tt.wantOld {
				t.Errorf("previous content kept=%v, want %v", got, tt.wantOld)
			}
			if !strings.Contains(content, "scheduler started") {
				t.Errorf("expected new line in %q", content)
			}
		})
	}
}

func TestServiceCreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "idleshutdown.log")
	svc, logger := New(Config{File: FileConfig{Enabled: true, Path: path}})
	defer svc.Close()

	logger.Warn("hello")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
}
