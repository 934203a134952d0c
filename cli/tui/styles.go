// Package tui provides Bubble Tea TUI components for the emotes CLI.
//
// TUI mode is opt-in (--tui) and read-only. Views render the same
// reader payloads as json, yaml and table output.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/emotes/cli/reader"
)

// Palette. Each color has a light and a dark terminal variant.
var (
	accentColor  = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#A78BFA"}
	readyColor   = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	pendingColor = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	failedColor  = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	infoColor    = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	textColor    = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
)

// Shared styles.
var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginBottom(1)
	LabelStyle = lipgloss.NewStyle().Foreground(mutedColor).Width(12)
	ValueStyle = lipgloss.NewStyle().Foreground(textColor)
	HelpStyle  = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)

	// SectionStyle heads a row of stat boxes.
	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(infoColor)

	// BoxStyle frames a single-record view.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	// StatBoxStyle frames one counter; the border takes the counter's color.
	StatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(14).
			Align(lipgloss.Center)

	StatLabelStyle = lipgloss.NewStyle().Foreground(mutedColor)
	StatValueStyle = lipgloss.NewStyle().Bold(true)
)

var (
	readyStyle   = lipgloss.NewStyle().Foreground(readyColor)
	pendingStyle = lipgloss.NewStyle().Foreground(pendingColor)
	failedStyle  = lipgloss.NewStyle().Foreground(failedColor)
)

// StateStyle returns the style for an asset or channel state.
// Unknown states render as plain values.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case reader.AssetReady, reader.ChannelLoaded:
		return readyStyle
	case reader.AssetPending:
		return pendingStyle
	case reader.AssetFailed, reader.ChannelSkipped:
		return failedStyle
	default:
		return ValueStyle
	}
}

// ErrorText renders an error message.
func ErrorText(s string) string {
	return failedStyle.Render(s)
}

// WarningText renders a non-fatal notice.
func WarningText(s string) string {
	return pendingStyle.Render(s)
}
