package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"idleshutdown/internal/core/model"
	"idleshutdown/internal/core/scheduler"
)

// writeCheckReport prints one evaluation of the shutdown predicate.
func writeCheckReport(w io.Writer, now time.Time, settingsPath string, settings model.Settings, decision scheduler.Decision) {
	bold := color.New(color.Bold)
	good := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed, color.Bold)

	row := func(label string) { fmt.Fprintf(w, "  %-14s ", label) }

	bold.Fprintf(w, "%s %s check\n", appName, version)
	row("settings file")
	fmt.Fprintln(w, settingsPath)
	row("settings")
	fmt.Fprintln(w, settings.String())

	row("now")
	fmt.Fprintf(w, "%s ", now.Format("2006-01-02 15:04"))
	if settings.InWindow(now) {
		good.Fprintln(w, "(inside inactive hours)")
	} else {
		warn.Fprintln(w, "(outside inactive hours; no polling)")
	}

	row("idle time")
	switch decision.Outcome {
	case scheduler.OutcomeIdleQueryFailed:
		bad.Fprintf(w, "unavailable: %v\n", decision.Err)
	case scheduler.OutcomeNotIdle:
		fmt.Fprintf(w, "%d seconds ", int64(decision.Idle/time.Second))
		warn.Fprintf(w, "(below %d second threshold)\n", settings.IdleTimeThresholdSeconds)
	default:
		fmt.Fprintf(w, "%d seconds ", int64(decision.Idle/time.Second))
		good.Fprintf(w, "(threshold of %d seconds reached)\n", settings.IdleTimeThresholdSeconds)
	}

	row("keep-alive")
	switch decision.Outcome {
	case scheduler.OutcomeKeepAlive:
		warn.Fprintf(w, "%s is running\n", decision.KeepAlive)
	case scheduler.OutcomeProcessQueryFailed:
		bad.Fprintf(w, "process list unavailable: %v\n", decision.Err)
	case scheduler.OutcomeShutdown:
		good.Fprintln(w, "none running")
	default:
		fmt.Fprintln(w, "not checked")
	}

	row("decision")
	switch {
	case decision.ShouldShutdown() && !settings.InWindow(now):
		warn.Fprintln(w, "shutdown conditions met, but outside inactive hours")
	case decision.ShouldShutdown():
		bad.Fprintf(w, "would request shutdown (%ds warning)\n", scheduler.ShutdownWarningSeconds)
	default:
		good.Fprintf(w, "no shutdown (%s)\n", decision.Outcome)
	}
}
