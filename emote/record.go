// Package emote defines the resolvable emote record and its derivation rules.
//
// A Record is immutable after construction except for two write-once cells:
// the download Outcome, completed by the download coordinator, and the
// decoded image slot, filled by a rendering collaborator.
package emote

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/pithecene-io/emotes/types"
)

// MatchTimeout bounds a single pattern evaluation against a token.
const MatchTimeout = 50 * time.Millisecond

// Params are the inputs of NewRecord.
type Params struct {
	// ChannelName is the owning channel (required).
	ChannelName string
	// ID is the upstream numeric emote identifier.
	ID int
	// Code is the catalog-supplied literal or pattern text (required).
	Code string
	// Variant is one of types.Variants.
	Variant string
	// CacheRoot is the directory blobs are stored under.
	CacheRoot string
	// CDNURL overrides DefaultCDNURL.
	CDNURL string
}

// ImageData is a decoded image owned by a record.
type ImageData struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Record describes one resolvable emote variant.
type Record struct {
	ChannelName string
	ID          int
	Code        string
	Variant     string
	Key         string
	IsPattern   bool
	RemoteURL   string
	// RelPath is LocalPath relative to the cache root (used as the mirror key).
	RelPath   string
	LocalPath string

	// Outcome is completed by the record's download task.
	Outcome *Outcome

	matcher *regexp2.Regexp
	decoded atomic.Pointer[ImageData]
}

// NewRecord builds a record. It is pure: no I/O and no background work.
func NewRecord(p Params) (*Record, error) {
	if p.ChannelName == "" {
		return nil, errors.New("emote: channel name must be non-empty")
	}
	if p.Code == "" {
		return nil, fmt.Errorf("emote: empty code for id %d", p.ID)
	}
	if !types.IsVariant(p.Variant) {
		return nil, fmt.Errorf("emote: unknown variant %q", p.Variant)
	}

	isPattern := IsPatternCode(p.Code)
	key := DeriveKey(p.ID, p.Code, p.Variant)
	rel := RelativePath(p.ChannelName, key, p.ID, p.Variant)

	rec := &Record{
		ChannelName: p.ChannelName,
		ID:          p.ID,
		Code:        p.Code,
		Variant:     p.Variant,
		Key:         key,
		IsPattern:   isPattern,
		RemoteURL:   RemoteURL(p.CDNURL, p.ID, p.Variant),
		RelPath:     rel,
		LocalPath:   filepath.Join(p.CacheRoot, rel),
		Outcome:     newOutcome(),
	}
	if isPattern {
		rec.matcher = compilePattern(p.Code)
	}
	return rec, nil
}

// Matches reports whether token selects this pattern record: either the
// token matches the anchored code, or it equals the code verbatim.
// Literal records never match here; they are found by exact key lookup.
func (r *Record) Matches(token string) bool {
	if !r.IsPattern {
		return false
	}
	if token == r.Code {
		return true
	}
	if r.matcher == nil {
		return false
	}
	ok, err := r.matcher.MatchString(token)
	return err == nil && ok
}

// compilePattern anchors code to the whole token. Codes that do not parse
// return nil and match only their own text.
func compilePattern(code string) *regexp2.Regexp {
	re, err := regexp2.Compile("^(?:"+code+")$", regexp2.None)
	if err != nil {
		return nil
	}
	re.MatchTimeout = MatchTimeout
	return re
}

// ValidPattern reports whether the pattern code compiled.
func (r *Record) ValidPattern() bool {
	return r.matcher != nil
}

// StoreDecoded fills the decoded image slot once. It returns the image that
// ends up in the slot and whether this call stored it.
func (r *Record) StoreDecoded(img *ImageData) (*ImageData, bool) {
	if img == nil {
		cur := r.decoded.Load()
		return cur, false
	}
	if r.decoded.CompareAndSwap(nil, img) {
		return img, true
	}
	return r.decoded.Load(), false
}

// Decoded returns the cached decoded image, if any.
func (r *Record) Decoded() (*ImageData, bool) {
	img := r.decoded.Load()
	return img, img != nil
}
