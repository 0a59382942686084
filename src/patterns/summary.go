package patterns

import (
	"sort"
	"time"

	"github.com/heyong4725/dora-tui/src/protocol"
	"github.com/heyong4725/dora-tui/src/sanitize"
)

// Tier classifies a group by how much attention it deserves.
type Tier int

const (
	TierSignal Tier = 1 // at least one WARN or ERROR occurrence
	TierNoise  Tier = 2 // only TRACE, DEBUG or INFO
)

func (t Tier) String() string {
	if t == TierSignal {
		return "signal"
	}
	return "noise"
}

// Group is every occurrence of one log pattern.
type Group struct {
	Pattern string
	// Level is the most severe level seen for the pattern.
	Level     protocol.LogLevel
	Tier      Tier
	Count     int
	Nodes     []string
	FirstSeen time.Time
	LastSeen  time.Time
	// Example is the first occurrence, sanitized.
	Example string
}

// Summarize groups events by pattern. Signal comes before noise; within a
// tier groups are ordered by level, then count, then first occurrence.
func Summarize(events []protocol.LogEvent) []Group {
	if len(events) == 0 {
		return nil
	}

	index := make(map[string]int)
	nodes := make([]map[string]bool, 0)
	var groups []Group

	for _, e := range events {
		line := sanitize.LogLine(e.Line)
		key := Key(line)

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{
				Pattern:   key,
				Level:     e.Level,
				FirstSeen: e.Timestamp,
				LastSeen:  e.Timestamp,
				Example:   line,
			})
			nodes = append(nodes, make(map[string]bool))
		}

		g := &groups[i]
		g.Count++
		if severity(e.Level) > severity(g.Level) {
			g.Level = e.Level
		}
		if e.Timestamp.Before(g.FirstSeen) {
			g.FirstSeen = e.Timestamp
		}
		if e.Timestamp.After(g.LastSeen) {
			g.LastSeen = e.Timestamp
		}
		if e.Node != nil && !nodes[i][*e.Node] {
			nodes[i][*e.Node] = true
			g.Nodes = append(g.Nodes, *e.Node)
		}
	}

	for i := range groups {
		sort.Strings(groups[i].Nodes)
		groups[i].Tier = ClassifyTier(groups[i].Level)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if sa, sb := severity(a.Level), severity(b.Level); sa != sb {
			return sa > sb
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.FirstSeen.Before(b.FirstSeen)
	})
	return groups
}

// ClassifyTier returns TierSignal for WARN and ERROR, TierNoise otherwise.
func ClassifyTier(level protocol.LogLevel) Tier {
	if severity(level) >= severity(protocol.LogWarn) {
		return TierSignal
	}
	return TierNoise
}

// Counts returns how many groups fall in each tier.
func Counts(groups []Group) (signal, noise int) {
	for _, g := range groups {
		if g.Tier == TierSignal {
			signal++
		} else {
			noise++
		}
	}
	return signal, noise
}

// severity is the position of level in protocol.LogLevels, -1 if unknown.
func severity(level protocol.LogLevel) int {
	for i, l := range protocol.LogLevels {
		if l == level {
			return i
		}
	}
	return -1
}
