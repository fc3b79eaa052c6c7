package template

import (
	"github.com/charmbracelet/lipgloss"

	"reveal/internal/decision"
)

// Palette
var (
	Foreground = lipgloss.Color("#f2f2f2")
	Card       = lipgloss.Color("#1a2536")
	Border     = lipgloss.Color("#2a3850")
	Accent     = lipgloss.Color("#8BC34A")
	Muted      = lipgloss.Color("#8a94a6")

	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
)

// Theme holds the colors templates draw with.
type Theme struct {
	Foreground lipgloss.Color
	Card       lipgloss.Color
	Border     lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
}

// DefaultTheme returns the dark overlay theme.
func DefaultTheme() Theme {
	return Theme{
		Foreground: Foreground,
		Card:       Card,
		Border:     Border,
		Accent:     Accent,
		Muted:      Muted,
	}
}

// SeverityColor returns the border color for a severity.
func (t Theme) SeverityColor(s decision.Severity) lipgloss.Color {
	switch s {
	case decision.SeverityInfo:
		return Info
	case decision.SeveritySuccess:
		return Success
	case decision.SeverityWarning:
		return Warning
	case decision.SeverityCritical:
		return Destructive
	default:
		return t.Border
	}
}

// Styles groups the lipgloss styles of one rendered box.
type Styles struct {
	Box   lipgloss.Style
	Title lipgloss.Style
	Body  lipgloss.Style
	CTA   lipgloss.Style
	Hint  lipgloss.Style
}

// NewStyles builds the styles for a decision.
func (t Theme) NewStyles(d decision.UINudgeDecision) Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.SeverityColor(d.Severity)).
			Foreground(t.Foreground).
			Padding(0, 1),
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Foreground),
		Body:  lipgloss.NewStyle().Foreground(t.Foreground),
		CTA: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Card).
			Background(t.Accent).
			Padding(0, 1),
		Hint: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
	}
}
