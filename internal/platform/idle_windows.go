//go:build windows

package platform

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"idleshutdown/internal/core/scheduler"
	"idleshutdown/internal/logx"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procGetLastInputInfo = user32.NewProc("GetLastInputInfo")
	procGetTickCount64   = kernel32.NewProc("GetTickCount64")
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

type idleSource struct{}

func newIdleSource(logx.Logger) scheduler.IdleSource {
	return idleSource{}
}

func (idleSource) ElapsedSinceLastInput() (time.Duration, error) {
	info := lastInputInfo{cbSize: uint32(unsafe.Sizeof(lastInputInfo{}))}
	result, _, err := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if result == 0 {
		return 0, &scheduler.IdleQueryError{Err: fmt.Errorf("GetLastInputInfo: %w", err)}
	}
	// GetTickCount64 cannot fail; r1 carries the full count on 64-bit hosts.
	ticks, _, _ := procGetTickCount64.Call()
	// dwTime is a 32-bit tick count, so compare against the low 32 bits.
	return tickDelta(uint32(ticks), info.dwTime), nil
}
