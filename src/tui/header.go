package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/heyong4725/dora-tui/src/provider"
)

// Header represents the top status bar: backend, theme and host metrics.
type Header struct {
	backend     string
	theme       string
	metrics     *provider.SystemMetrics
	hideMetrics bool
	styles      *StyleConfig
}

// NewHeader creates a new header with the given styles
func NewHeader(backend, theme string, styles *StyleConfig) Header {
	return Header{backend: backend, theme: theme, styles: styles}
}

// SetTheme updates the theme shown in the header.
func (h *Header) SetTheme(theme string, styles *StyleConfig) {
	h.theme = theme
	h.styles = styles
}

// ShowMetrics toggles the metrics summary.
func (h *Header) ShowMetrics(show bool) {
	h.hideMetrics = !show
}

// SetMetrics updates the metrics summary.
func (h *Header) SetMetrics(m provider.SystemMetrics) {
	h.metrics = &m
}

// MetricsSummary renders the one-line metrics summary, or a placeholder
// before the first snapshot arrives.
func (h Header) MetricsSummary(now time.Time) string {
	if h.metrics == nil {
		return "waiting for metrics..."
	}
	m := h.metrics
	summary := fmt.Sprintf("CPU %.1f%% │ Mem %s / %s (%.0f%%)",
		m.CPUUsage,
		FormatBytes(m.Memory.UsedBytes), FormatBytes(m.Memory.TotalBytes),
		m.MemoryUsage)
	if m.LoadAverage != nil {
		summary += fmt.Sprintf(" │ Load %.2f %.2f %.2f", m.LoadAverage.One, m.LoadAverage.Five, m.LoadAverage.Fifteen)
	}
	if !m.Timestamp.IsZero() {
		age := now.Sub(m.Timestamp).Truncate(time.Second)
		if age < 0 {
			age = 0
		}
		summary += fmt.Sprintf(" │ %s ago", age)
	}
	return summary
}

// Render renders the header
func (h Header) Render(width int, now time.Time) string {
	title := h.styles.TitleStyle().Render("dora")

	info := lipgloss.NewStyle().
		Foreground(h.styles.TextSecondary).
		Padding(0, 2).
		Render(fmt.Sprintf("backend: %s │ theme: %s", h.backend, h.theme))

	metrics := ""
	if !h.hideMetrics {
		metrics = lipgloss.NewStyle().
			Foreground(h.styles.PrimaryBlue).
			Padding(0, 2).
			Render(h.MetricsSummary(now))
	}

	left := lipgloss.JoinHorizontal(lipgloss.Left, title, info)
	spacerWidth := width - lipgloss.Width(left) - lipgloss.Width(metrics)
	if spacerWidth < 1 {
		return lipgloss.JoinVertical(lipgloss.Left, left, metrics)
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(h.styles.BorderColor).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, left, spacer, metrics))
}
