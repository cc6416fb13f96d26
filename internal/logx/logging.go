package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

func init() {
	zerolog.TimeFieldFormat = consoleTimeFormat
	zerolog.ErrorFieldName = "err"
}

// Config selects the outputs opened by New.
type Config struct {
	// Level is used whenever the settings file does not name one.
	Level   string
	Console bool
	File    FileConfig
}

type FileConfig struct {
	Enabled bool
	Path    string
	// Append keeps the previous run's lines instead of truncating.
	Append bool
}

// Field mutates a zerolog event. Later fields win when a key repeats.
type Field func(e *zerolog.Event)

func String(k, v string) Field  { return func(e *zerolog.Event) { e.Str(k, v) } }
func Int(k string, v int) Field { return func(e *zerolog.Event) { e.Int(k, v) } }
func Bool(k string, v bool) Field {
	return func(e *zerolog.Event) { e.Bool(k, v) }
}
func Duration(k string, v time.Duration) Field {
	return func(e *zerolog.Event) { e.Dur(k, v) }
}
func Err(err error) Field {
	return func(e *zerolog.Event) {
		if err != nil {
			e.Err(err)
		}
	}
}

// Logger writes through its Service when it has one, so level changes
// reach loggers handed out earlier. The zero value discards everything.
type Logger struct {
	svc    *Service
	base   *zerolog.Logger
	fields []Field
}

// NewConsole creates a standalone stderr logger for one-shot commands that
// never open the log file.
func NewConsole(level string) Logger {
	lvl, ok := LookupLevel(level)
	if !ok {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(newConsoleWriter(os.Stderr, false)).Level(lvl).With().Timestamp().Logger()
	return Logger{base: &zl}
}

func (l Logger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	cp := l
	cp.fields = append(append([]Field(nil), l.fields...), fields...)
	return cp
}

func (l Logger) Debug(msg string, fields ...Field) { l.log(zerolog.DebugLevel, msg, fields) }
func (l Logger) Info(msg string, fields ...Field)  { l.log(zerolog.InfoLevel, msg, fields) }
func (l Logger) Warn(msg string, fields ...Field)  { l.log(zerolog.WarnLevel, msg, fields) }
func (l Logger) Error(msg string, fields ...Field) { l.log(zerolog.ErrorLevel, msg, fields) }

func (l Logger) target() *zerolog.Logger {
	switch {
	case l.svc != nil:
		return l.svc.root.Load()
	case l.base != nil:
		return l.base
	default:
		return nil
	}
}

func (l Logger) log(level zerolog.Level, msg string, fields []Field) {
	zl := l.target()
	if zl == nil {
		return
	}
	e := zl.WithLevel(level)
	if e == nil {
		return
	}

	// Skip log and the exported level method.
	if _, file, line, ok := runtime.Caller(2); ok {
		e.Str(zerolog.CallerFieldName, filepath.Base(file)+":"+strconv.Itoa(line))
	}
	for _, f := range l.fields {
		f(e)
	}
	for _, f := range fields {
		if f != nil {
			f(e)
		}
	}
	e.Msg(msg)
}

// Service owns the log outputs. They are opened once by New; only the level
// changes afterwards.
type Service struct {
	out      io.Writer
	fallback zerolog.Level
	root     atomic.Pointer[zerolog.Logger]

	mu   sync.Mutex
	file *os.File
}

// New opens the configured outputs and returns the service with its root
// Logger. A log file that cannot be opened is reported on stderr and
// skipped.
func New(cfg Config) (*Service, Logger) {
	s := &Service{fallback: zerolog.InfoLevel}
	if lvl, ok := LookupLevel(cfg.Level); ok {
		s.fallback = lvl
	}

	writers := make([]io.Writer, 0, 2)
	if cfg.Console {
		writers = append(writers, newConsoleWriter(os.Stderr, false))
	}
	if cfg.File.Enabled {
		f, err := openLogFile(cfg.File.Path, cfg.File.Append)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logx: failed opening log file %q: %v\n", cfg.File.Path, err)
		} else {
			s.file = f
			writers = append(writers, newConsoleWriter(zerolog.SyncWriter(f), true))
		}
	}
	if len(writers) == 0 {
		writers = append(writers, newConsoleWriter(os.Stderr, false))
	}
	s.out = zerolog.MultiLevelWriter(writers...)
	s.store(s.fallback)
	return s, Logger{svc: s}
}

func (s *Service) store(level zerolog.Level) {
	zl := zerolog.New(s.out).Level(level).With().Timestamp().Logger()
	s.root.Store(&zl)
}

// SetLevel switches every Logger of the service to the named level. An
// empty or unknown name restores the level given to New. It reports
// whether the effective level changed.
func (s *Service) SetLevel(name string) bool {
	lvl, ok := LookupLevel(name)
	if !ok {
		lvl = s.fallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root.Load().GetLevel() == lvl {
		return false
	}
	s.store(lvl)
	return true
}

// Level returns the effective level name.
func (s *Service) Level() string {
	return s.root.Load().GetLevel().String()
}

// FilePath returns the path of the open log file, or "" when file output is
// disabled or failed to open.
func (s *Service) FilePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ""
	}
	return s.file.Name()
}

func (s *Service) Close() error {
	s.mu.Lock()
	f := s.file
	s.file = nil
	s.mu.Unlock()

	if f != nil {
		return f.Close()
	}
	return nil
}

func openLogFile(path string, appendMode bool) (*os.File, error) {
	if path = strings.TrimSpace(path); path == "" {
		path = "idleshutdown.log"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	return os.OpenFile(path, flags, 0o644)
}

func newConsoleWriter(w io.Writer, noColor bool) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: consoleTimeFormat,
		NoColor:    noColor,
		FormatCaller: func(i interface{}) string {
			s, _ := i.(string)
			return s
		},
	}
}

// LookupLevel maps debug, info, warn (or warning) and error to a zerolog
// level, ignoring case.
func LookupLevel(name string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	default:
		return zerolog.NoLevel, false
	}
}
