package resolver

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pithecene-io/emotes/emote"
	"github.com/pithecene-io/emotes/index"
	"github.com/pithecene-io/emotes/metrics"
	"github.com/pithecene-io/emotes/types"
)

func register(t *testing.T, x *index.Index, channel string, id int, code string) {
	t.Helper()
	for _, v := range types.Variants {
		rec, err := emote.NewRecord(emote.Params{ChannelName: channel, ID: id, Code: code, Variant: v})
		if err != nil {
			t.Fatalf("NewRecord: %v", err)
		}
		x.Register(rec)
	}
}

// registerDefault registers only the default rendition, so a pattern scan
// has a single candidate key.
func registerDefault(t *testing.T, x *index.Index, channel string, id int, code string) {
	t.Helper()
	rec, err := emote.NewRecord(emote.Params{ChannelName: channel, ID: id, Code: code, Variant: ""})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	x.Register(rec)
}

func TestResolve_ExactKeysResolveToThemselves(t *testing.T) {
	x := index.New()
	register(t, x, "alpha", 100, "pog")
	register(t, x, "alpha", 101, "kappa")
	// A permissive pattern that would also match literal keys.
	register(t, x, "alpha", 102, `.*`)

	r := New(x)
	for _, key := range x.KeysForChannel("alpha") {
		rec, _ := x.Lookup(key)
		if rec.IsPattern {
			continue
		}
		got, ok := r.Resolve(key)
		if !ok || got != key {
			t.Errorf("Resolve(%q) = %q, %v; want itself", key, got, ok)
		}
	}
}

func TestResolve_PatternScan(t *testing.T) {
	x := index.New()
	registerDefault(t, x, "alpha", 200, "[o_o]")

	r := New(x)
	got, ok := r.Resolve("[o_o]")
	if !ok || got != "emote_200" {
		t.Errorf("Resolve([o_o]) = %q, %v; want emote_200", got, ok)
	}
}

func TestResolve_PatternOnlyMatchesWholeToken(t *testing.T) {
	x := index.New()
	registerDefault(t, x, "global", 1, `\:-?\)`)

	r := New(x)
	tests := []struct {
		token string
		want  bool
	}{
		{":)", true},
		{":-)", true},
		{"a:)", false},
		{":))", false},
		{"hello", false},
		{"", false},
	}
	for _, tt := range tests {
		key, ok := r.Resolve(tt.token)
		if ok != tt.want {
			t.Errorf("Resolve(%q) ok = %v, want %v", tt.token, ok, tt.want)
		}
		if ok && key != "emote_1" {
			t.Errorf("Resolve(%q) = %q, want emote_1", tt.token, key)
		}
	}
}

func TestResolve_LookaroundPattern(t *testing.T) {
	x := index.New()
	registerDefault(t, x, "global", 555, `\:-?[\\/](?![\\/])`)
	r := New(x)

	for _, tok := range []string{":/", ":-/", `:\`} {
		if got, ok := r.Resolve(tok); !ok || got != "emote_555" {
			t.Errorf("Resolve(%q) = %q, %v; want emote_555", tok, got, ok)
		}
	}
	for _, tok := range []string{"://", ":-", "a:/"} {
		if got, ok := r.Resolve(tok); ok {
			t.Errorf("Resolve(%q) = %q; want miss", tok, got)
		}
	}
}

func TestResolve_Miss(t *testing.T) {
	c := metrics.NewCollector("", "", "")
	r := New(index.New(), WithMetrics(c))

	if key, ok := r.Resolve("nothing"); ok || key != "" {
		t.Errorf("Resolve(nothing) = %q, %v", key, ok)
	}
	if s := c.Snapshot(); s.ResolveMiss != 1 {
		t.Errorf("ResolveMiss = %d, want 1", s.ResolveMiss)
	}
}

func TestResolve_Shadowing(t *testing.T) {
	x := index.New()
	register(t, x, "alpha", 1, "foo")
	register(t, x, "beta", 2, "foo")

	rec, _ := x.Lookup("foo")
	if rec.ChannelName != "beta" {
		t.Errorf("foo owned by %s, want beta", rec.ChannelName)
	}
	if got, _ := New(x).Resolve("foo"); got != "foo" {
		t.Errorf("Resolve(foo) = %q", got)
	}
}

func TestResolve_MemoInvalidatedByRegistration(t *testing.T) {
	x := index.New()
	r := New(x)

	if _, ok := r.Resolve("<3"); ok {
		t.Fatal("unexpected hit on empty index")
	}
	registerDefault(t, x, "global", 9, "<3")

	got, ok := r.Resolve("<3")
	if !ok || got != "emote_9" {
		t.Errorf("Resolve(<3) after registration = %q, %v; stale memo", got, ok)
	}
}

func TestResolve_MemoServesRepeatedPatternHits(t *testing.T) {
	x := index.New()
	registerDefault(t, x, "global", 9, "<3")
	c := metrics.NewCollector("", "", "")
	r := New(x, WithMetrics(c), WithMemoSize(2))

	for range 5 {
		if _, ok := r.Resolve("<3"); !ok {
			t.Fatal("expected pattern hit")
		}
	}
	r.mu.Lock()
	n := r.memo.Len()
	r.mu.Unlock()
	if n != 1 {
		t.Errorf("memo entries = %d, want 1", n)
	}
	if s := c.Snapshot(); s.ResolvePattern != 5 {
		t.Errorf("ResolvePattern = %d, want 5", s.ResolvePattern)
	}
}

func TestResolve_MemoDisabled(t *testing.T) {
	x := index.New()
	registerDefault(t, x, "global", 9, "<3")
	r := New(x, WithMemoSize(0))

	if got, ok := r.Resolve("<3"); !ok || got != "emote_9" {
		t.Errorf("Resolve(<3) = %q, %v", got, ok)
	}
}

func TestResolve_ConcurrentWithRegistration(t *testing.T) {
	x := index.New()
	r := New(x)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 100 {
			for _, v := range types.Variants {
				rec, err := emote.NewRecord(emote.Params{ChannelName: "alpha", ID: i, Code: fmt.Sprintf("e%d", i), Variant: v})
				if err != nil {
					t.Errorf("NewRecord: %v", err)
					return
				}
				x.Register(rec)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := range 100 {
			r.Resolve(fmt.Sprintf("e%d", i))
			r.Resolve(fmt.Sprintf("e%d?", i))
		}
	}()
	wg.Wait()

	for i := range 100 {
		if _, ok := r.Resolve(fmt.Sprintf("e%d_TK", i)); !ok {
			t.Errorf("e%d_TK unresolvable", i)
		}
	}
}
