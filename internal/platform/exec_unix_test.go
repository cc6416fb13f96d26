//go:build linux || darwin

package platform

import (
	"context"
	"strings"
	"testing"
)

func TestRunCommand(t *testing.T) {
	output, err := runCommand(context.Background(), "sh", "-c", "echo 1234")
	if err != nil {
		t.Fatalf("runCommand: %v", err)
	}
	if strings.TrimSpace(string(output)) != "1234" {
		t.Errorf("unexpected output %q", output)
	}

	_, err = runCommand(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestDryRunNeverFails(t *testing.T) {
	var controller ShutdownController = DryRun{}
	if err := controller.RequestShutdown(300, "test"); err != nil {
		t.Errorf("RequestShutdown: %v", err)
	}
	if err := controller.CancelShutdown(); err != nil {
		t.Errorf("CancelShutdown: %v", err)
	}
}
