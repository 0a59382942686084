package tui

import "github.com/charmbracelet/lipgloss"

// StyleConfig holds all customizable style colors for the dashboard.
type StyleConfig struct {
	PrimaryBlue    lipgloss.Color
	Background     lipgloss.Color
	CardBackground lipgloss.Color
	TextPrimary    lipgloss.Color
	TextSecondary  lipgloss.Color
	BorderColor    lipgloss.Color
	SelectedColor  lipgloss.Color

	// Status colors
	Healthy lipgloss.Color
	Pending lipgloss.Color
	Failed  lipgloss.Color
}

// DefaultStyles returns the dark palette.
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:    lipgloss.Color("#8AB4F8"),
		Background:     lipgloss.Color("#1E1E1E"),
		CardBackground: lipgloss.Color("#2D2D2D"),
		TextPrimary:    lipgloss.Color("#E8EAED"),
		TextSecondary:  lipgloss.Color("#9AA0A6"),
		BorderColor:    lipgloss.Color("#5F6368"),
		SelectedColor:  lipgloss.Color("#303134"),
		Healthy:        lipgloss.Color("#34A853"),
		Pending:        lipgloss.Color("#FBBC04"),
		Failed:         lipgloss.Color("#EA4335"),
	}
}

// LightStyles returns the palette used with the "light" theme.
func LightStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:    lipgloss.Color("#1A73E8"),
		Background:     lipgloss.Color("#FFFFFF"),
		CardBackground: lipgloss.Color("#F1F3F4"),
		TextPrimary:    lipgloss.Color("#202124"),
		TextSecondary:  lipgloss.Color("#5F6368"),
		BorderColor:    lipgloss.Color("#DADCE0"),
		SelectedColor:  lipgloss.Color("#E8F0FE"),
		Healthy:        lipgloss.Color("#188038"),
		Pending:        lipgloss.Color("#E37400"),
		Failed:         lipgloss.Color("#D93025"),
	}
}

// StylesFor returns the palette for a theme preference. "auto" follows the
// terminal background.
func StylesFor(theme string) *StyleConfig {
	switch theme {
	case "light":
		return LightStyles()
	case "dark":
		return DefaultStyles()
	default:
		if lipgloss.HasDarkBackground() {
			return DefaultStyles()
		}
		return LightStyles()
	}
}

// StatusColor returns the color for a dataflow or node status display string.
func (s *StyleConfig) StatusColor(status string) lipgloss.Color {
	switch status {
	case "running":
		return s.Healthy
	case "pending", "initializing":
		return s.Pending
	case "failed":
		return s.Failed
	default:
		return s.TextSecondary
	}
}

// TitleStyle returns a title lipgloss style using this config
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.PrimaryBlue).
		Bold(true).
		Padding(0, 1)
}

// HelpStyle returns a help text lipgloss style using this config
func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 2)
}

// PanelStyle returns a bordered panel lipgloss style using this config
func (s *StyleConfig) PanelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextPrimary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.BorderColor)
}

// ErrorStyle returns the style used for capability errors.
func (s *StyleConfig) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.Failed).
		Bold(true).
		Padding(0, 2)
}
