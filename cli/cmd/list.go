package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/emotes/cli/reader"
	"github.com/pithecene-io/emotes/cli/render"
)

// listWarningThreshold is the number of items above which we warn about using --limit.
const listWarningThreshold = 500

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// ListCommand returns the list command with subcommands.
// Listing loads the configured channels but does not wait for downloads.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List channels, keys and variants",
		Subcommands: []*cli.Command{
			listChannelsCommand(),
			listKeysCommand(),
			listVariantsCommand(),
		},
	}
}

func listChannelsCommand() *cli.Command {
	return &cli.Command{
		Name:   "channels",
		Usage:  "List loaded channels in load order",
		Flags:  commandFlags(),
		Action: listChannelsAction,
	}
}

func listChannelsAction(c *cli.Context) error {
	return withListSession(c, func(s *session) any {
		return reader.ListChannels(s.engine)
	})
}

func listKeysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "List a channel's keys in catalog order",
		Flags: commandFlags(
			&cli.StringFlag{
				Name:     "of",
				Usage:    "Channel whose keys to list",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of keys to return (0 = no limit)",
			},
		),
		Action: listKeysAction,
	}
}

func listKeysAction(c *cli.Context) error {
	return withListSession(c, func(s *session) any {
		return limitItems(reader.ListKeys(s.engine, c.String("of")), c.Int("limit"))
	})
}

func listVariantsCommand() *cli.Command {
	return &cli.Command{
		Name:      "variants",
		Usage:     "List every key starting with a prefix, sorted",
		ArgsUsage: "<prefix>",
		Flags: commandFlags(
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of keys to return (0 = no limit)",
			},
		),
		Action: listVariantsAction,
	}
}

func listVariantsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("list variants requires exactly one prefix", exitConfigError)
	}
	prefix := c.Args().First()
	return withListSession(c, func(s *session) any {
		return limitItems(reader.ListVariants(s.engine, prefix), c.Int("limit"))
	})
}

// withListSession loads the channels, renders what build returns and
// closes the session.
func withListSession(c *cli.Context, build func(*session) any) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", exitPartial)
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx, c, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	return r.Render(build(s))
}

// limitItems truncates items to limit, warning on large unbounded output
// (TTY only to avoid noise in pipelines).
func limitItems(items []reader.KeyItem, limit int) []reader.KeyItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	if limit == 0 && len(items) > listWarningThreshold && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: returning %d results. Consider using --limit to reduce output.\n\n", len(items))
	}
	return items
}
