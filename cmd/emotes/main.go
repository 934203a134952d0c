// Package main provides the emotes CLI entrypoint.
//
// Usage:
//
//	emotes <command> [subcommand] [options]
//
// Exit codes for engine-backed commands:
//   - 0: success
//   - 1: partial failure (a channel was skipped or an asset failed)
//   - 2: configuration error
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/emotes/cli/cmd"
	"github.com/pithecene-io/emotes/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "emotes",
		Usage:          "Resolve chat tokens to cached emote images",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.SyncCommand(),
			cmd.ResolveCommand(),
			cmd.ListCommand(),
			cmd.StatsCommand(),
			cmd.VersionCommand(commit),
		},
	}
}

// exitErrHandler preserves exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus maps err to a process exit code and the message worth
// printing. Unwrapped errors exit 1.
func exitStatus(err error) (int, string) {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		// cli.Exit("", N).Error() may render as "exit status N".
		if msg == fmt.Sprintf("exit status %d", code) {
			msg = ""
		}
		return code, msg
	}
	return 1, fmt.Sprintf("Error: %v", err)
}
