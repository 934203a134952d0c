package cmd

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/emotes/cli/reader"
	"github.com/pithecene-io/emotes/cli/render"
	"github.com/pithecene-io/emotes/cli/tui"
	"github.com/pithecene-io/emotes/engine"
)

// ResolveCommand returns the resolve command.
// Each token is resolved the way a chat renderer would: exact key first,
// then pattern records. Matched assets are awaited and decoded.
func ResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve chat tokens to emote keys and cached images",
		ArgsUsage: "<token>...",
		Flags:     commandFlags(),
		Action:    resolveAction,
	}
}

func resolveAction(c *cli.Context) error {
	tokens := c.Args().Slice()
	if len(tokens) == 0 {
		return cli.Exit("resolve requires at least one token", exitConfigError)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	useTUI := c.Bool("tui")
	if useTUI && len(tokens) != 1 {
		return cli.Exit("--tui resolves exactly one token", exitConfigError)
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx, c, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	responses := make([]*reader.ResolveResponse, 0, len(tokens))
	code := exitSuccess
	for _, token := range tokens {
		resp := resolveToken(ctx, s.engine, token)
		if resp.Asset == reader.AssetFailed {
			code = exitPartial
		}
		responses = append(responses, resp)
	}

	if useTUI {
		if err := r.RenderTUI(tui.ViewResolve, responses[0]); err != nil {
			return err
		}
	} else if err := r.Render(responses); err != nil {
		return err
	}
	return cli.Exit("", code)
}

// resolveToken waits for the matched asset and decodes it so the response
// carries the final path and image size.
func resolveToken(ctx context.Context, e *engine.Engine, token string) *reader.ResolveResponse {
	resp := reader.Resolve(e, token)
	if !resp.Found {
		return resp
	}

	awaitCtx, cancel := context.WithTimeout(ctx, awaitTimeout)
	defer cancel()
	if _, err := e.AwaitAsset(awaitCtx, resp.Key); err == nil {
		_, _ = e.Decoded(awaitCtx, resp.Key, engine.PNGConfigDecoder{})
	}
	return reader.Describe(e, token, resp.Key)
}
