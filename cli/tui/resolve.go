package tui

import (
	"fmt"
	"strings"

	"github.com/pithecene-io/emotes/cli/reader"
)

func renderResolve(payload any, _ int) string {
	data, ok := payload.(*reader.ResolveResponse)
	if !ok {
		return "Invalid data type for " + ViewResolve
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Token " + data.Token))
	b.WriteString("\n\n")

	if !data.Found {
		b.WriteString(WarningText("no emote matches this token"))
		return BoxStyle.Render(b.String())
	}

	kind := "literal"
	if data.Pattern {
		kind = "pattern"
	}
	rows := [][]string{
		{"Key", data.Key},
		{"Channel", data.Channel},
		{"Emote ID", fmt.Sprintf("%d", data.ID)},
		{"Code", data.Code},
		{"Kind", kind},
		{"Asset", data.Asset},
		{"Remote URL", data.RemoteURL},
	}
	if data.Variant != "" {
		rows = append(rows, []string{"Variant", data.Variant})
	}
	if data.Path != "" {
		rows = append(rows, []string{"Path", data.Path})
	}
	if data.Width > 0 {
		rows = append(rows, []string{"Size", fmt.Sprintf("%dx%d", data.Width, data.Height)})
	}
	if data.Error != "" {
		rows = append(rows, []string{"Error", data.Error})
	}

	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		value := row[1]
		switch row[0] {
		case "Asset":
			value = StateStyle(data.Asset).Render(value)
		case "Error":
			value = ErrorText(value)
		default:
			value = ValueStyle.Render(value)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", label, value))
	}

	return BoxStyle.Render(b.String())
}
