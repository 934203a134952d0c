// Package cmd provides CLI commands for the emotes binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared output flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for select read-only commands (resolve, stats).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (resolve, stats only)",
	}
)

// ReadOnlyFlags returns the shared output flags.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// EngineFlags returns the flags that configure the engine. Each one
// overrides the matching emotes.yaml / EMOTES_* value when set.
func EngineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to emotes.yaml (default: ./emotes.yaml when present)",
		},
		&cli.StringSliceFlag{
			Name:  "channel",
			Usage: "Channel to load (repeatable; replaces configured channels)",
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "Directory blobs are cached under",
		},
		&cli.StringFlag{
			Name:  "catalog-url",
			Usage: "Catalog API base URL",
		},
		&cli.StringFlag{
			Name:  "cdn-url",
			Usage: "Emote CDN base URL",
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Concurrent asset downloads",
		},
		&cli.IntFlag{
			Name:  "channel-parallel",
			Usage: "Channels ingested concurrently (1 = sequential)",
		},
		&cli.StringFlag{
			Name:  "mirror-backend",
			Usage: "Shared blob mirror: fs or s3",
		},
		&cli.StringFlag{
			Name:  "mirror-path",
			Usage: "Mirror location (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Event adapter: webhook or redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Event adapter endpoint URL",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
			Value: "warn",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, console",
			Value: "json",
		},
	}
}

// commandFlags joins engine and output flags.
func commandFlags(extra ...cli.Flag) []cli.Flag {
	flags := append(EngineFlags(), ReadOnlyFlags()...)
	return append(flags, extra...)
}
