package main

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true)

	WarningStyle = lipgloss.NewStyle().Italic(true)
)

// FormatPriceWithColor formats a close with an arrow against the previous close.
// A NaN previous close gets no arrow.
func FormatPriceWithColor(current, previous float64) string {
	price := formatNumber(current, 2)

	if math.IsNaN(previous) || math.IsNaN(current) {
		return price
	}

	if current > previous {
		return price + " ▲"
	} else if current < previous {
		return price + " ▼"
	}

	return price
}
