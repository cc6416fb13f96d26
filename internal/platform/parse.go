package platform

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// parseMillis reads the single integer xprintidle prints.
func parseMillis(output []byte) (time.Duration, error) {
	value := strings.TrimSpace(string(output))
	idleMillis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

var hidIdleTimePattern = regexp.MustCompile(`"HIDIdleTime"\s*=\s*(\d+)`)

// parseHIDIdleTime extracts the first HIDIdleTime (nanoseconds) from
// `ioreg -c IOHIDSystem` output.
func parseHIDIdleTime(output []byte) (time.Duration, error) {
	match := hidIdleTimePattern.FindSubmatch(output)
	if match == nil {
		return 0, fmt.Errorf("HIDIdleTime not found in ioreg output")
	}
	nanos, err := strconv.ParseUint(string(match[1]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse HIDIdleTime: %w", err)
	}
	return time.Duration(nanos), nil
}

// parseProcessList reads one process name per line, as printed by
// `ps -axco comm=`. Paths are reduced to their base name.
func parseProcessList(output []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		names = append(names, filepath.Base(name))
	}
	return names
}

// idleSinceHint converts logind's IdleSinceHint (microseconds since the
// epoch) into an elapsed duration.
func idleSinceHint(idle bool, sinceMicros uint64, now time.Time) time.Duration {
	if !idle || sinceMicros == 0 {
		return 0
	}
	since := time.UnixMicro(int64(sinceMicros))
	if since.After(now) {
		return 0
	}
	return now.Sub(since)
}

// warningMinutes rounds a warning delay up to the whole minutes Unix
// shutdown(8) accepts.
func warningMinutes(warningSeconds int) int {
	if warningSeconds <= 0 {
		return 0
	}
	return (warningSeconds + 59) / 60
}

// tickDelta returns milliseconds elapsed between two 32-bit tick counts,
// tolerating one wraparound.
func tickDelta(now, then uint32) time.Duration {
	return time.Duration(now-then) * time.Millisecond
}
