package mcp

import (
	"regexp"
	"strings"
)

// leadingTimestamp matches a timestamp a node printed at the start of its
// own log line, e.g. "2024-05-21T10:00:05.123Z" or "2024-05-21 10:00:05,123".
// The event already carries a timestamp, so the copy is noise.
var leadingTimestamp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}[.,]?\d*Z?([+-]\d{2}:?\d{2})?\s*`)

// deepPath matches absolute paths with 3+ directories, capturing the file
// name and an optional line number.
var deepPath = regexp.MustCompile(`/(?:[^/\s]+/){3,}([^/\s:]+(?::\d+)?)`)

var runsOfSpace = regexp.MustCompile(`\s+`)

// minSharedPrefix is the shortest shared prefix worth replacing with "...".
const minSharedPrefix = 20

// compactLine shortens one log line for an LLM reader.
func compactLine(line string) string {
	line = leadingTimestamp.ReplaceAllString(line, "")
	line = deepPath.ReplaceAllString(line, ".../$1")
	return strings.TrimSpace(runsOfSpace.ReplaceAllString(line, " "))
}

// compactLines compacts every line and replaces a long prefix shared by all
// of them with "... ".
func compactLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = compactLine(line)
	}

	prefix := sharedPrefix(out)
	if prefix == "" {
		return out
	}
	for i, line := range out {
		out[i] = "... " + line[len(prefix):]
	}
	return out
}

func sharedPrefix(lines []string) string {
	if len(lines) < 2 {
		return ""
	}

	prefix := lines[0]
	for _, line := range lines[1:] {
		for prefix != "" && !strings.HasPrefix(line, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
		if prefix == "" {
			return ""
		}
	}

	if len(prefix) < minSharedPrefix {
		return ""
	}
	return prefix
}
