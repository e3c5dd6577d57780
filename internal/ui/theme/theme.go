// Package theme holds the terminal styles of the CLI.
package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/finscholars/finscholars/internal/progression"
)

// Color palette, matching the web front-end's greens and golds.
var (
	Primary   = lipgloss.Color("#1B7F5C") // Ledger green
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#EAB308") // Gold
	Success   = lipgloss.Color("#22C55E")
	Error     = lipgloss.Color("#F43F5E")
	TextDim   = lipgloss.Color("#94A3B8")
	Border    = lipgloss.Color("#334155")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Highlight = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Locked = lipgloss.NewStyle().
		Foreground(TextDim)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Foreground(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Foreground(Border)
)

// Status renders a level status with its icon.
func Status(s progression.LevelStatus) string {
	label := fmt.Sprintf("%s %s", s.Icon(), s)
	switch s {
	case progression.StatusPassed:
		return Correct.Render(label)
	case progression.StatusAvailable:
		return Highlight.Render(label)
	default:
		return Locked.Render(label)
	}
}

// Verdict renders a pass or fail label.
func Verdict(ok bool, text string) string {
	if ok {
		return Correct.Render(text)
	}
	return Incorrect.Render(text)
}

// ProgressBar renders pct (0-100) as a bar of width cells.
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(pct / 100 * float64(width))
	filled = max(0, min(filled, width))
	return ProgressFilled.Render(strings.Repeat("█", filled)) +
		ProgressEmpty.Render(strings.Repeat("░", width-filled))
}
