package storage

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"idleshutdown/internal/core/model"
	"idleshutdown/internal/logx"
)

const defaultReloadDebounce = 250 * time.Millisecond

// SettingsStore holds the current settings snapshot and reloads it when
// the settings file changes on disk. A reload that fails to parse or
// validate leaves the previous snapshot in effect.
type SettingsStore struct {
	path string
	log  logx.Logger

	// Debounce is the quiet period after a file event before reloading.
	Debounce time.Duration

	mu       sync.RWMutex
	current  model.Settings
	lastHash uint64

	subsMu sync.Mutex
	subs   []chan model.Settings
}

func NewSettingsStore(path string, log logx.Logger) *SettingsStore {
	return &SettingsStore{
		path:     path,
		log:      log.With(logx.String("component", "settings")),
		Debounce: defaultReloadDebounce,
		current:  model.DefaultSettings(),
	}
}

// Path returns the settings file location.
func (s *SettingsStore) Path() string { return s.path }

// Load reads the settings file, creating it with defaults when missing, and
// commits the result. On error the defaults stay in effect.
func (s *SettingsStore) Load() (model.Settings, error) {
	settings, err := LoadSettings(s.path)
	if err != nil {
		return s.Current(), err
	}
	s.commit(settings)
	return settings, nil
}

// Current returns a copy of the latest good snapshot.
func (s *SettingsStore) Current() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Subscribe returns a channel receiving every committed reload. Slow
// subscribers only ever see the newest snapshot.
func (s *SettingsStore) Subscribe(buffer int) <-chan model.Settings {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan model.Settings, buffer)
	s.subsMu.Lock()
	s.subs = append(s.subs, ch)
	s.subsMu.Unlock()
	return ch
}

// Reload re-reads the file. It reports whether a new snapshot was committed;
// unchanged content is not republished.
func (s *SettingsStore) Reload() (bool, error) {
	rawData, err := os.ReadFile(s.path)
	if err != nil {
		return false, fmt.Errorf("read settings file: %w", err)
	}
	settings, err := parseSettings(rawData)
	if err != nil {
		return false, err
	}

	h := hashSettings(settings)
	s.mu.RLock()
	unchanged := h != 0 && h == s.lastHash
	s.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	s.commit(settings)
	s.publish(settings)
	return true, nil
}

func (s *SettingsStore) commit(settings model.Settings) {
	s.mu.Lock()
	s.current = settings.Clone()
	s.lastHash = hashSettings(settings)
	s.mu.Unlock()
}

func (s *SettingsStore) publish(settings model.Settings) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- settings.Clone():
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- settings.Clone():
			default:
			}
		}
	}
}

func hashSettings(settings model.Settings) uint64 {
	b, err := yaml.Marshal(toYaml(settings))
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

// Watch follows the settings file until ctx is done. The watcher is
// recreated with jittered backoff when fsnotify stops delivering events.
func (s *SettingsStore) Watch(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	file := filepath.Base(s.path)

	const (
		restartBackoffBase = 250 * time.Millisecond
		restartBackoffMax  = 5 * time.Second
	)
	backoff := restartBackoffBase
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	nextWait := func() time.Duration {
		wait := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
		if backoff < restartBackoffMax {
			backoff = min(backoff*2, restartBackoffMax)
		}
		return wait
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(s.Debounce, s.reloadAndLog)
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		w, err := fsnotify.NewWatcher()
		if err == nil {
			if err = w.Add(dir); err != nil {
				_ = w.Close()
			}
		}
		if err != nil {
			s.log.Warn("settings watch init failed", logx.Err(err), logx.String("dir", dir))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(nextWait()):
				continue
			}
		}

		backoff = restartBackoffBase
		s.log.Debug("settings watcher started", logx.String("dir", dir), logx.String("file", file))

		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = w.Close()
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					broken = true
					break
				}
				if strings.EqualFold(filepath.Base(ev.Name), file) &&
					ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			case err, ok := <-w.Errors:
				if !ok {
					broken = true
					break
				}
				if err == nil {
					continue
				}
				if strings.Contains(strings.ToLower(err.Error()), "overflow") {
					s.log.Warn("settings watch overflow; forcing reload", logx.Err(err))
					debounce()
					continue
				}
				s.log.Warn("settings watch error", logx.Err(err), logx.String("dir", dir))
			}
		}

		_ = w.Close()
		wait := nextWait()
		s.log.Warn("settings watcher stopped; restarting", logx.Duration("backoff", wait))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (s *SettingsStore) reloadAndLog() {
	changed, err := s.Reload()
	if err != nil {
		s.log.Warn("settings reload rejected; keeping previous settings", logx.Err(err), logx.String("path", s.path))
		return
	}
	if !changed {
		s.log.Debug("settings unchanged; skipping publish", logx.String("path", s.path))
		return
	}
	s.log.Info("settings reloaded", logx.String("settings", s.Current().String()))
}
