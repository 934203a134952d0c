package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"github.com/pithecene-io/emotes/emote"
)

// AwaitAsset suspends until the download for key has settled and returns
// the local path of its blob. Concurrent callers for the same key observe
// the same outcome; no call triggers a second download.
func (e *Engine) AwaitAsset(ctx context.Context, key string) (string, error) {
	rec, ok := e.idx.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return e.await(ctx, rec)
}

func (e *Engine) await(ctx context.Context, rec *emote.Record) (string, error) {
	if res, ok := rec.Outcome.Peek(); ok {
		return res.Path, res.Err
	}
	if e.cfg.AwaitTimeout <= 0 {
		return rec.Outcome.Await(ctx)
	}

	awaitCtx, cancel := context.WithTimeout(ctx, e.cfg.AwaitTimeout)
	defer cancel()
	p, err := rec.Outcome.Await(awaitCtx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %s after %s", ErrAwaitTimeout, rec.Key, e.cfg.AwaitTimeout)
	}
	return p, err
}

// Decoder turns a downloaded blob into image data.
type Decoder interface {
	Decode(data []byte) (*emote.ImageData, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(data []byte) (*emote.ImageData, error)

// Decode calls f(data).
func (f DecoderFunc) Decode(data []byte) (*emote.ImageData, error) {
	return f(data)
}

// PNGConfigDecoder reads PNG dimensions and keeps the raw bytes for the
// renderer. It does not rasterise the image.
type PNGConfigDecoder struct{}

// Decode implements Decoder.
func (PNGConfigDecoder) Decode(data []byte) (*emote.ImageData, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return &emote.ImageData{
		Data:   data,
		Format: "png",
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// Decoded returns the decoded image for key, decoding it at most once per
// record. Concurrent callers may decode in parallel; the first stored image
// wins and every caller receives it.
func (e *Engine) Decoded(ctx context.Context, key string, dec Decoder) (*emote.ImageData, error) {
	rec, ok := e.idx.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if img, ok := rec.Decoded(); ok {
		return img, nil
	}
	if dec == nil {
		dec = PNGConfigDecoder{}
	}

	p, err := e.await(ctx, rec)
	if err != nil {
		return nil, err
	}
	data, err := e.cfg.Store.Read(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	img, err := dec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	img, _ = rec.StoreDecoded(img)
	return img, nil
}
