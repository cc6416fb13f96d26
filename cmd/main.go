package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"idleshutdown/internal/logx"
	"idleshutdown/internal/platform"
)

func main() {
	opts, err := parseOptions(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	switch {
	case opts.version:
		printVersion(os.Stdout)
		return
	case opts.autostart != "":
		if err := runAutostart(opts, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	case opts.check:
		if err := runCheck(opts, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "single instance: %v\n", err)
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := newApp(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer application.close()

	if err := application.run(ctx); err != nil {
		application.log.Error("monitor stopped with error", logx.Err(err))
	}
}
