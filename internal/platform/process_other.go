//go:build !linux && !windows

package platform

import (
	"context"

	"idleshutdown/internal/core/scheduler"
)

type psCensus struct{}

func newProcessCensus() scheduler.ProcessCensus {
	return psCensus{}
}

func (psCensus) RunningProcessNames() ([]string, error) {
	output, err := runCommand(context.Background(), "ps", "-axco", "comm=")
	if err != nil {
		return nil, &scheduler.ProcessQueryError{Err: err}
	}
	return parseProcessList(output), nil
}
