// Package sanitize cleans log lines written by dataflow nodes before they are
// shown in the dashboard, printed by the CLI or returned from MCP tools.
package sanitize

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// LogLine strips escape sequences and control characters from a log line.
// Tabs become single spaces and trailing spaces are dropped.
func LogLine(line string) string {
	line = ansi.Strip(line)
	line = strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, line)
	return strings.TrimRight(line, " ")
}
