package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"idleshutdown/internal/core/model"
	"idleshutdown/internal/core/scheduler"
	"idleshutdown/internal/logx"
	"idleshutdown/internal/platform"
	"idleshutdown/internal/storage"
	"idleshutdown/internal/ui/tray"
)

const (
	appName = "IdleShutdown"
	version = "1.0.1"

	// Warnings beyond the burst are logged at most twice a minute.
	warnRatePerSecond = 1.0 / 30
	warnBurst         = 10
)

var changelog = []string{
	"1.0.1 - Poll timers are released when monitoring stops.",
	"1.0.0 - Initial release.",
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n\nChangelog:\n", appName, version)
	for _, entry := range changelog {
		fmt.Fprintf(w, "  %s\n", entry)
	}
}

// app owns the long-running collaborators.
type app struct {
	opts      options
	logs      *logx.Service
	log       logx.Logger
	store     *storage.SettingsStore
	platform  platform.Service
	shutdown  platform.ShutdownController
	scheduler *scheduler.Scheduler
}

func newApp(opts options) (*app, error) {
	settingsPath, err := storage.ResolveConfigPath(appName, opts.configPath)
	if err != nil {
		return nil, err
	}

	logPath := opts.logFile
	if logPath == "" {
		logPath = storage.DefaultLogPath(settingsPath)
	}
	logs, logger := logx.New(logx.Config{
		Level:   opts.logLevel,
		Console: true,
		File:    logx.FileConfig{Enabled: true, Path: logPath, Append: opts.logAppend},
	})

	store := storage.NewSettingsStore(settingsPath, logger)
	settings, err := store.Load()
	if err != nil {
		logger.Warn("settings file unusable; running with defaults", logx.Err(err), logx.String("path", settingsPath))
	}
	logs.SetLevel(settings.LogLevel)

	var shutdown platform.ShutdownController = platform.NewShutdownController(logger)
	if opts.dryRun {
		shutdown = platform.DryRun{Log: logger.With(logx.String("component", "shutdown"))}
	}

	sched := scheduler.New(scheduler.Dependencies{
		Settings: store,
		Idle:     platform.NewIdleSource(logger),
		Census:   platform.NewProcessCensus(),
		Shutdown: shutdown,
		Sink:     logx.NewSink(logger, warnRatePerSecond, warnBurst),
	}, scheduler.Config{})

	logger.Info("idle shutdown started",
		logx.String("version", version),
		logx.String("settings_path", settingsPath),
		logx.String("log_file", logs.FilePath()),
		logx.String("log_level", logs.Level()),
		logx.String("settings", settings.String()),
		logx.Bool("dry_run", opts.dryRun),
		logx.Bool("tray", !opts.noTray),
	)

	return &app{
		opts:      opts,
		logs:      logs,
		log:       logger,
		store:     store,
		platform:  platform.NewService(),
		shutdown:  shutdown,
		scheduler: sched,
	}, nil
}

func (a *app) close() {
	_ = a.logs.Close()
}

func (a *app) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := a.store.Watch(ctx); err != nil {
			a.log.Warn("settings watcher exited", logx.Err(err))
		}
	}()

	go a.followLogLevel(ctx, a.store.Subscribe(1))

	events := a.scheduler.Subscribe(32)
	a.scheduler.Start()
	defer a.scheduler.Stop()

	if a.opts.noTray {
		return a.runHeadless(ctx, events)
	}
	return a.runTray(ctx, cancel, events)
}

// runHeadless reports readiness and state changes to systemd when started
// as a unit, and waits for a signal.
func (a *app) runHeadless(ctx context.Context, events <-chan scheduler.Event) error {
	a.sdNotify(daemon.SdNotifyReady)
	for {
		select {
		case <-ctx.Done():
			a.sdNotify(daemon.SdNotifyStopping)
			a.log.Info("shutting down monitor")
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event.Type == scheduler.EventStateChange {
				a.sdNotify("STATUS=" + event.Message)
			}
		}
	}
}

// followLogLevel applies log_level edits from the settings file.
func (a *app) followLogLevel(ctx context.Context, updates <-chan model.Settings) {
	for {
		select {
		case <-ctx.Done():
			return
		case settings := <-updates:
			if a.logs.SetLevel(settings.LogLevel) {
				a.log.Info("log level changed", logx.String("log_level", a.logs.Level()))
			}
		}
	}
}

func (a *app) sdNotify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		a.log.Debug("sd_notify failed", logx.Err(err), logx.String("state", state))
		return
	}
	if sent {
		a.log.Debug("sd_notify sent", logx.String("state", state))
	}
}

func (a *app) runTray(ctx context.Context, cancel context.CancelFunc, events <-chan scheduler.Event) error {
	settingsUpdates := a.store.Subscribe(1)

	tray.Run(appName, tray.Callbacks{
		OnOpenSettings: func() {
			if err := a.platform.OpenInEditor(a.store.Path()); err != nil {
				a.log.Warn("could not open settings file", logx.Err(err))
			}
		},
		OnAbortShutdown: func() {
			if err := a.shutdown.CancelShutdown(); err != nil {
				a.log.Warn("could not abort shutdown", logx.Err(err))
				return
			}
			a.log.Info("pending shutdown aborted from tray; monitoring resumes next inactive window")
		},
		OnQuit: cancel,
	}, func(manager *tray.Manager) {
		current := a.store.Current()
		manager.SetWindow(current.StartHour, current.EndHour)
		go a.followScheduler(ctx, manager, events, settingsUpdates)
		go func() {
			<-ctx.Done()
			tray.Quit()
		}()
	}, func() {
		cancel()
	})
	return nil
}

func (a *app) followScheduler(ctx context.Context, manager *tray.Manager, events <-chan scheduler.Event, settingsUpdates <-chan model.Settings) {
	for {
		select {
		case <-ctx.Done():
			return
		case settings := <-settingsUpdates:
			manager.SetWindow(settings.StartHour, settings.EndHour)
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Type {
			case scheduler.EventStateChange:
				manager.SetState(event.State, "")
			case scheduler.EventPoll:
				manager.SetState(event.State, fmt.Sprintf("idle %s", event.Idle.Truncate(time.Second)))
			}
		}
	}
}

func runAutostart(opts options, stdout io.Writer) error {
	service := platform.NewService()
	if opts.autostart == "disable" {
		if err := service.DisableAutostart(appName); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s will no longer start at login\n", appName)
		return nil
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	var args []string
	if opts.configPath != "" {
		args = append(args, "--config", opts.configPath)
	}
	if opts.noTray {
		args = append(args, "--no-tray")
	}
	if err := service.EnableAutostart(appName, execPath, args...); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s will start at login\n", appName)
	return nil
}

func runCheck(opts options, stdout io.Writer) error {
	settingsPath, err := storage.ResolveConfigPath(appName, opts.configPath)
	if err != nil {
		return err
	}
	settings, err := storage.LoadSettings(settingsPath)
	if err != nil {
		return err
	}

	logger := logx.NewConsole(opts.logLevel)
	decision := scheduler.Decide(settings, platform.NewIdleSource(logger), platform.NewProcessCensus())
	writeCheckReport(stdout, time.Now(), settingsPath, settings, decision)
	return nil
}
