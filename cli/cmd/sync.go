package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/emotes/cli/reader"
	"github.com/pithecene-io/emotes/cli/render"
)

// Exit codes shared by the engine-backed commands.
const (
	exitSuccess     = 0
	exitPartial     = 1 // a channel was skipped or an asset failed
	exitConfigError = 2
)

// SyncCommand returns the sync command.
// Sync loads every configured channel, waits for all downloads to settle
// and prints one row per channel.
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Load configured channels and download their emotes",
		Flags:  commandFlags(),
		Action: syncAction,
	}
}

func syncAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for sync command", exitPartial)
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx, c, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := r.Render(reader.Channels(s.results)); err != nil {
		return err
	}
	return cli.Exit("", syncExitCode(s))
}

// syncExitCode reports a partial failure when any channel was skipped or
// any download failed.
func syncExitCode(s *session) int {
	for _, res := range s.results {
		if res.Err != nil {
			return exitPartial
		}
	}
	if s.engine.Metrics().AssetsFailed > 0 {
		return exitPartial
	}
	return exitSuccess
}
