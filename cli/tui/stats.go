package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/emotes/cli/reader"
)

func renderStats(payload any, width int) string {
	data, ok := payload.(*reader.StatsResponse)
	if !ok {
		return "Invalid data type for " + ViewStats
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Emote Statistics"))
	b.WriteString("\n")
	if data.SessionID != "" {
		b.WriteString(LabelStyle.Render("Session:") + " " + ValueStyle.Render(data.SessionID))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	sections := []struct {
		title string
		boxes []string
	}{
		{"Keys", []string{
			statBox("Channels", int64(data.Channels), infoColor),
			statBox("Emotes", int64(data.BaseKeys), accentColor),
			statBox("Variants", int64(data.VariantKeys), accentColor),
			statBox("Patterns", int64(data.PatternKeys), pendingColor),
		}},
		{"Assets", []string{
			statBox("Cached", data.AssetsCached, readyColor),
			statBox("Mirrored", data.AssetsMirrored, readyColor),
			statBox("Downloaded", data.AssetsDownloaded, infoColor),
			statBox("Failed", data.AssetsFailed, failedColor),
		}},
		{"Resolution", []string{
			statBox("Exact", data.ResolveExact, readyColor),
			statBox("Pattern", data.ResolvePattern, pendingColor),
			statBox("Miss", data.ResolveMiss, mutedColor),
		}},
	}

	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(SectionStyle.Render(sec.title))
		b.WriteString("\n")
		b.WriteString(boxRows(sec.boxes, width))
	}

	if data.ChannelsSkipped > 0 || data.MirrorWriteFailures > 0 || data.PublishFailures > 0 {
		b.WriteString("\n\n")
		b.WriteString(ErrorText(fmt.Sprintf(
			"skipped channels: %d  mirror write failures: %d  publish failures: %d",
			data.ChannelsSkipped, data.MirrorWriteFailures, data.PublishFailures)))
	}

	return b.String()
}

func statBox(label string, value int64, color lipgloss.TerminalColor) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// boxRows lays boxes out left to right, wrapping to fit width. A width of
// 0 keeps every box on one row.
func boxRows(boxes []string, width int) string {
	if len(boxes) == 0 {
		return ""
	}
	perRow := len(boxes)
	if bw := lipgloss.Width(boxes[0]); width > 0 && bw > 0 {
		perRow = max(1, min(perRow, width/bw))
	}

	var rows []string
	for chunk := range slices.Chunk(boxes, perRow) {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, chunk...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
