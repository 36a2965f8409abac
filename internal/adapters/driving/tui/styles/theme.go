// Package styles holds the TUI palette and the lipgloss styles built from it.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette maps roles to colours that adapt to light and dark terminals.
type Palette struct {
	Accent lipgloss.AdaptiveColor
	Source lipgloss.AdaptiveColor
	Text   lipgloss.AdaptiveColor
	Dim    lipgloss.AdaptiveColor
	Near   lipgloss.AdaptiveColor
	Mid    lipgloss.AdaptiveColor
	Fault  lipgloss.AdaptiveColor
	Frame  lipgloss.AdaptiveColor
	Panel  lipgloss.AdaptiveColor
}

// DefaultPalette returns the built-in palette.
func DefaultPalette() *Palette {
	return &Palette{
		Accent: lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#38BDF8"},
		Source: lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"},
		Text:   lipgloss.AdaptiveColor{Light: "#111827", Dark: "#E5E7EB"},
		Dim:    lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Near:   lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"},
		Mid:    lipgloss.AdaptiveColor{Light: "#A16207", Dark: "#FDE68A"},
		Fault:  lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"},
		Frame:  lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"},
		Panel:  lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#111827"},
	}
}

// Styles are the rendered roles used by views and components.
type Styles struct {
	palette *Palette

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Distance   lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style

	// ranks colour distances by position: near, middle, far.
	ranks [3]lipgloss.Style
}

// NewStyles builds styles from p. A nil palette uses the default.
func NewStyles(p *Palette) *Styles {
	if p == nil {
		p = DefaultPalette()
	}
	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		palette:  p,
		Title:    fg(p.Accent).Bold(true),
		Subtitle: fg(p.Source),
		Normal:   fg(p.Text),
		Muted:    fg(p.Dim),
		Selected: fg(p.Panel).Background(p.Accent).Bold(true),
		Error:    fg(p.Fault),
		Distance: fg(p.Near),
		InputField: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Frame).
			Padding(0, 1),
		StatusBar: fg(p.Dim).Background(p.Panel).Padding(0, 1),
		Help:      fg(p.Dim).Italic(true),
		ranks:     [3]lipgloss.Style{fg(p.Near), fg(p.Mid), fg(p.Dim)},
	}
}

// DefaultStyles returns styles for the default palette.
func DefaultStyles() *Styles {
	return NewStyles(nil)
}

// Palette returns the colours behind these styles.
func (s *Styles) Palette() *Palette {
	return s.palette
}

// Rank returns the distance style for the result at pos out of total,
// split into thirds. Distances are metric dependent, so position is used
// rather than the raw value.
func (s *Styles) Rank(pos, total int) lipgloss.Style {
	if total <= 0 || pos < 0 {
		return s.ranks[0]
	}
	return s.ranks[min(pos*3/total, 2)]
}
