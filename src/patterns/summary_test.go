package patterns

import (
	"testing"
	"time"

	"github.com/heyong4725/dora-tui/src/protocol"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func event(sec int, level protocol.LogLevel, node, line string) protocol.LogEvent {
	e := protocol.LogEvent{
		Timestamp: base.Add(time.Duration(sec) * time.Second),
		Level:     level,
		Line:      line,
	}
	if node != "" {
		e.Node = &node
	}
	return e
}

func TestSummarize(t *testing.T) {
	events := []protocol.LogEvent{
		event(0, protocol.LogInfo, "camera", "frame 1 captured"),
		event(1, protocol.LogInfo, "camera", "frame 2 captured"),
		event(2, protocol.LogWarn, "detector", "queue 3 full, dropping"),
		event(3, protocol.LogError, "plot", "inference failed: timeout after 750ms"),
		event(4, protocol.LogError, "detector", "inference failed: timeout after 500ms"),
		event(5, protocol.LogInfo, "camera", "\x1b[32mframe 3 captured\x1b[0m"),
	}

	groups := Summarize(events)
	if len(groups) != 3 {
		t.Fatalf("Summarize() returned %d groups, want 3: %+v", len(groups), groups)
	}

	first := groups[0]
	if first.Pattern != "inference failed: timeout after [NUM]" {
		t.Errorf("groups[0].Pattern = %q", first.Pattern)
	}
	if first.Level != protocol.LogError || first.Tier != TierSignal || first.Count != 2 {
		t.Errorf("groups[0] = %+v, want 2 ERROR signal occurrences", first)
	}
	if len(first.Nodes) != 2 || first.Nodes[0] != "detector" || first.Nodes[1] != "plot" {
		t.Errorf("groups[0].Nodes = %v, want sorted [detector plot]", first.Nodes)
	}
	if first.Example != "inference failed: timeout after 750ms" {
		t.Errorf("groups[0].Example = %q, want the first occurrence", first.Example)
	}
	if !first.FirstSeen.Equal(base.Add(3*time.Second)) || !first.LastSeen.Equal(base.Add(4*time.Second)) {
		t.Errorf("groups[0] seen %v..%v", first.FirstSeen, first.LastSeen)
	}

	if groups[1].Pattern != "queue [NUM] full, dropping" || groups[1].Tier != TierSignal {
		t.Errorf("groups[1] = %+v, want the WARN group", groups[1])
	}

	last := groups[2]
	if last.Pattern != "frame [NUM] captured" || last.Tier != TierNoise || last.Count != 3 {
		t.Errorf("groups[2] = %+v, want 3 INFO noise occurrences", last)
	}
	if len(last.Nodes) != 1 || last.Nodes[0] != "camera" {
		t.Errorf("groups[2].Nodes = %v", last.Nodes)
	}

	signal, noise := Counts(groups)
	if signal != 2 || noise != 1 {
		t.Errorf("Counts() = %d, %d, want 2, 1", signal, noise)
	}
}

func TestSummarize_Escalation(t *testing.T) {
	groups := Summarize([]protocol.LogEvent{
		event(0, protocol.LogInfo, "", "retrying connect (1)"),
		event(1, protocol.LogWarn, "", "retrying connect (2)"),
	})
	if len(groups) != 1 {
		t.Fatalf("Summarize() returned %d groups, want 1", len(groups))
	}
	if groups[0].Level != protocol.LogWarn || groups[0].Tier != TierSignal {
		t.Errorf("group = %+v, want escalated to WARN signal", groups[0])
	}
	if groups[0].Nodes != nil {
		t.Errorf("Nodes = %v, want none for events without a node", groups[0].Nodes)
	}
}

func TestSummarize_OrderWithinTier(t *testing.T) {
	groups := Summarize([]protocol.LogEvent{
		event(0, protocol.LogDebug, "a", "tick"),
		event(1, protocol.LogInfo, "a", "heartbeat"),
		event(2, protocol.LogInfo, "a", "ready"),
		event(3, protocol.LogInfo, "a", "ready"),
		event(4, protocol.LogInfo, "a", "done"),
	})

	want := []string{"ready", "heartbeat", "done", "tick"}
	if len(groups) != len(want) {
		t.Fatalf("Summarize() returned %d groups, want %d", len(groups), len(want))
	}
	for i, p := range want {
		if groups[i].Pattern != p {
			t.Errorf("groups[%d].Pattern = %q, want %q", i, groups[i].Pattern, p)
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	if groups := Summarize(nil); groups != nil {
		t.Errorf("Summarize(nil) = %v, want nil", groups)
	}
}

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		level protocol.LogLevel
		want  Tier
	}{
		{protocol.LogTrace, TierNoise},
		{protocol.LogDebug, TierNoise},
		{protocol.LogInfo, TierNoise},
		{protocol.LogWarn, TierSignal},
		{protocol.LogError, TierSignal},
		{protocol.LogLevel("FATAL"), TierNoise},
	}
	for _, tt := range tests {
		if got := ClassifyTier(tt.level); got != tt.want {
			t.Errorf("ClassifyTier(%s) = %s, want %s", tt.level, got, tt.want)
		}
	}
}
