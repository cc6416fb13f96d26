package platform

import "idleshutdown/internal/core/scheduler"

// NewProcessCensus returns the process lister for this OS.
func NewProcessCensus() scheduler.ProcessCensus {
	return newProcessCensus()
}
