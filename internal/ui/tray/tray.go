package tray

import (
	"fmt"
	"sync"

	"fyne.io/systray"

	"idleshutdown/internal/core/scheduler"
	"idleshutdown/resources"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnOpenSettings  func()
	OnAbortShutdown func()
	OnQuit          func()
}

// Manager handles system tray state.
type Manager struct {
	mu          sync.Mutex
	statusItem  *systray.MenuItem
	windowItem  *systray.MenuItem
	abortItem   *systray.MenuItem
	callbacks   Callbacks
	state       scheduler.State
	statusLabel string
}

// Run shows the tray icon and blocks until Quit. onReady receives the
// manager once the menu exists. Run must be called from the main goroutine.
func Run(title string, callbacks Callbacks, onReady func(*Manager), onExit func()) {
	systray.Run(func() {
		manager := newManager(title, callbacks)
		if onReady != nil {
			onReady(manager)
		}
	}, onExit)
}

// Quit removes the tray icon and makes Run return.
func Quit() {
	systray.Quit()
}

func newManager(title string, callbacks Callbacks) *Manager {
	manager := &Manager{callbacks: callbacks, state: scheduler.StateArmed}

	systray.SetTitle(title)
	systray.SetIcon(resources.MustTrayIcon(iconFor(scheduler.StateArmed)))

	manager.statusItem = systray.AddMenuItem("Status: starting...", "")
	manager.statusItem.Disable()
	manager.windowItem = systray.AddMenuItem("Inactive hours: -", "")
	manager.windowItem.Disable()
	systray.AddSeparator()

	settings := systray.AddMenuItem("Settings", "Open the settings file")
	manager.abortItem = systray.AddMenuItem("Abort pending shutdown", "Cancel the scheduled power-off")
	manager.abortItem.Disable()
	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Stop monitoring and exit")

	go manager.dispatch(settings.ClickedCh, callbacks.OnOpenSettings)
	go manager.dispatch(manager.abortItem.ClickedCh, callbacks.OnAbortShutdown)
	go manager.dispatch(quit.ClickedCh, callbacks.OnQuit)

	manager.refresh()
	return manager
}

func (manager *Manager) dispatch(clicks <-chan struct{}, callback func()) {
	for range clicks {
		if callback != nil {
			callback()
		}
	}
}

// SetState updates icon, status line and the abort item for state.
func (manager *Manager) SetState(state scheduler.State, detail string) {
	manager.mu.Lock()
	manager.state = state
	manager.statusLabel = detail
	manager.mu.Unlock()
	manager.refresh()
}

// SetWindow shows the configured inactive-hours window.
func (manager *Manager) SetWindow(startHour, endHour int) {
	manager.windowItem.SetTitle(WindowLabel(startHour, endHour))
}

func (manager *Manager) refresh() {
	manager.mu.Lock()
	state, detail := manager.state, manager.statusLabel
	manager.mu.Unlock()

	label := StatusLabel(state, detail)
	manager.statusItem.SetTitle(label)
	systray.SetTooltip(label)
	systray.SetIcon(resources.MustTrayIcon(iconFor(state)))
	if state == scheduler.StateShutdownPending {
		manager.abortItem.Enable()
	} else {
		manager.abortItem.Disable()
	}
}

// StatusLabel renders the status menu line for a scheduler state.
func StatusLabel(state scheduler.State, detail string) string {
	var summary string
	switch state {
	case scheduler.StateMonitoring:
		summary = "monitoring idle time"
	case scheduler.StateShutdownPending:
		summary = "shutdown pending"
	default:
		summary = "waiting for inactive hours"
	}
	if detail == "" {
		return fmt.Sprintf("Status: %s", summary)
	}
	return fmt.Sprintf("Status: %s (%s)", summary, detail)
}

// WindowLabel renders the inactive-hours menu line.
func WindowLabel(startHour, endHour int) string {
	if startHour >= endHour {
		return fmt.Sprintf("Inactive hours: %02d:00-%02d:00 (never active)", startHour, endHour)
	}
	return fmt.Sprintf("Inactive hours: %02d:00-%02d:00", startHour, endHour)
}

func iconFor(state scheduler.State) resources.Icon {
	switch state {
	case scheduler.StateMonitoring:
		return resources.IconMonitoring
	case scheduler.StateShutdownPending:
		return resources.IconPending
	default:
		return resources.IconArmed
	}
}
