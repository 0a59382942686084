// Package patterns groups repeated dataflow log lines.
//
// Volatile tokens (timestamps, ids, addresses, paths, numbers) are masked so
// that repeats of the same message share one key. Groups are ranked so that
// warnings and errors come before the chatter of healthy nodes.
package patterns

import (
	"regexp"
	"strings"
)

var (
	// timestampPattern matches ISO8601 and common log timestamps.
	// Matches: 2024-05-21T10:00:05.123Z, 2024-05-21 10:00:05,123, etc.
	timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}([.,]\d+)?(Z|[+-]\d{2}:?\d{2})?`)

	uuidPattern = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	// longHashPattern matches build hashes and shared memory region ids.
	longHashPattern = regexp.MustCompile(`\b[a-f0-9]{12,}\b`)

	hexAddressPattern = regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`)

	// numberPattern matches standalone numbers, with an optional unit suffix.
	// Matches: 42, 0.5, 12ms, 640KiB
	numberPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?(?:ns|us|ms|s|B|KB|MB|GB|KiB|MiB|GiB)?\b`)

	// longPathPattern matches absolute paths with 3+ directories.
	longPathPattern = regexp.MustCompile(`/(?:[^/\s]+/){3,}[^/\s:]+(?::\d+)?`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Key returns the recurrence key of a log line.
// Example: "frame 1234 took 12ms" → "frame [NUM] took [NUM]"
func Key(line string) string {
	line = timestampPattern.ReplaceAllString(line, "[TIMESTAMP]")
	line = uuidPattern.ReplaceAllString(line, "[UUID]")
	line = hexAddressPattern.ReplaceAllString(line, "[HEX]")
	line = longPathPattern.ReplaceAllString(line, "[PATH]")
	line = longHashPattern.ReplaceAllString(line, "[HASH]")
	line = numberPattern.ReplaceAllString(line, "[NUM]")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}
