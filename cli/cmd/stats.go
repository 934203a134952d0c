package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/emotes/cli/reader"
	"github.com/pithecene-io/emotes/cli/render"
	"github.com/pithecene-io/emotes/cli/tui"
)

// StatsCommand returns the stats command.
// Stats loads the configured channels, waits for downloads and reports
// key counts (base emotes vs styled variants) plus the engine counters.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show emote and download statistics",
		Flags:  commandFlags(),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx, c, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	stats := reader.Stats(s.engine)
	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewStats, stats)
	}
	return r.Render(stats)
}
