package platform

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeProc(t *testing.T, root, pid, comm, cmdline string) {
	t.Helper()
	dir := filepath.Join(root, pid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if comm != "" {
		if err := os.WriteFile(filepath.Join(dir, "comm"), []byte(comm+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "cmdline"), []byte(cmdline), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanProcessNames(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, "1", "systemd", "/sbin/init\x00splash\x00")
	writeProc(t, root, "42", "backup-scheduler", "/opt/backup/backup-scheduler-daemon\x00--now\x00")
	writeProc(t, root, "77", "kworker/0:1", "")
	writeProc(t, root, "self", "ignored", "ignored\x00")
	if err := os.WriteFile(filepath.Join(root, "uptime"), []byte("1 2"), 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := scanProcessNames(root)
	if err != nil {
		t.Fatalf("scanProcessNames: %v", err)
	}
	sort.Strings(names)
	want := []string{"backup-scheduler", "backup-scheduler-daemon", "init", "kworker/0:1", "systemd"}
	if len(names) != len(want) {
		t.Fatalf("got %q, want %q", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("got %q, want %q", names, want)
			break
		}
	}
}

func TestScanProcessNamesMissingRoot(t *testing.T) {
	if _, err := scanProcessNames(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for a missing procfs root")
	}
}
