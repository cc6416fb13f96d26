package platform

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestSingleInstanceGuard(t *testing.T) {
	appName := fmt.Sprintf("idleshutdown-test-%d-%s", os.Getpid(), t.Name())

	first, err := AcquireSingleInstance(appName)
	if err != nil {
		t.Skipf("lock port unavailable in this environment: %v", err)
	}

	_, err = AcquireSingleInstance(appName)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if !strings.Contains(err.Error(), fmt.Sprintf("pid %d", os.Getpid())) {
		t.Errorf("expected holder pid in %q", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := AcquireSingleInstance(appName)
	if err != nil {
		t.Fatalf("expected lock to be free after Release: %v", err)
	}
	_ = second.Release()
}

func TestPortFromNameIsStable(t *testing.T) {
	a := portFromName("IdleShutdown/alice")
	if a != portFromName("IdleShutdown/alice") {
		t.Error("port must be deterministic")
	}
	if a < 20000 || a > 39999 {
		t.Errorf("port %d out of range", a)
	}
}

func TestNilGuardIsSafe(t *testing.T) {
	var guard *InstanceGuard
	if err := guard.Release(); err != nil {
		t.Errorf("Release on nil guard: %v", err)
	}
	if guard.Address() != "" {
		t.Error("expected empty address")
	}
}
