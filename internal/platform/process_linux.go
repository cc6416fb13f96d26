//go:build linux

package platform

import "idleshutdown/internal/core/scheduler"

type procCensus struct {
	root string
}

func newProcessCensus() scheduler.ProcessCensus {
	return procCensus{root: "/proc"}
}

func (census procCensus) RunningProcessNames() ([]string, error) {
	names, err := scanProcessNames(census.root)
	if err != nil {
		return nil, &scheduler.ProcessQueryError{Err: err}
	}
	return names, nil
}
