//go:build windows

package platform

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"idleshutdown/internal/core/scheduler"
)

type toolhelpCensus struct{}

func newProcessCensus() scheduler.ProcessCensus {
	return toolhelpCensus{}
}

func (toolhelpCensus) RunningProcessNames() ([]string, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, &scheduler.ProcessQueryError{Err: fmt.Errorf("CreateToolhelp32Snapshot: %w", err)}
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snapshot, &entry); err != nil {
		return nil, &scheduler.ProcessQueryError{Err: fmt.Errorf("Process32First: %w", err)}
	}

	var names []string
	for {
		names = append(names, windows.UTF16ToString(entry.ExeFile[:]))
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
				return names, nil
			}
			return nil, &scheduler.ProcessQueryError{Err: fmt.Errorf("Process32Next: %w", err)}
		}
	}
}
