package platform

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// scanProcessNames lists process names from a procfs mount. Both the kernel
// comm name (truncated to 15 bytes) and the base name of argv[0] are
// reported, so long executable names still match. Processes that exit
// mid-scan are skipped.
func scanProcessNames(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue
		}
		dir := filepath.Join(root, entry.Name())

		if comm, err := os.ReadFile(filepath.Join(dir, "comm")); err == nil {
			add(string(comm))
		}
		if cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline")); err == nil && len(cmdline) > 0 {
			argv0, _, _ := bytes.Cut(cmdline, []byte{0})
			if len(argv0) > 0 {
				add(filepath.Base(string(argv0)))
			}
		}
	}
	return names, nil
}
