package catalog

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/pithecene-io/emotes/types"
)

// StubSource is an in-memory Source for testing.
// Unknown names and ids yield ErrChannelNotFound; entries in Failures yield ErrTransport.
type StubSource struct {
	mu       sync.Mutex
	ids      map[string]int
	catalogs map[int]*types.ChannelCatalog
	failures map[int]error

	// Resolved and Fetched record calls in order.
	Resolved []string
	Fetched  []int
}

// NewStubSource creates an empty stub.
func NewStubSource() *StubSource {
	return &StubSource{
		ids:      make(map[string]int),
		catalogs: make(map[int]*types.ChannelCatalog),
		failures: make(map[int]error),
	}
}

// AddChannel registers name -> id and the catalog served for id.
func (s *StubSource) AddChannel(name string, id int, cat *types.ChannelCatalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[strings.ToLower(name)] = id
	s.catalogs[id] = cat
}

// FailFetch makes FetchCatalog(id) fail with a transport error wrapping err.
func (s *StubSource) FailFetch(id int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[id] = err
}

// ResolveChannelID implements Source.
func (s *StubSource) ResolveChannelID(_ context.Context, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Resolved = append(s.Resolved, name)
	if types.IsGlobalChannel(name) {
		return types.GlobalChannelID, nil
	}
	id, ok := s.ids[strings.ToLower(name)]
	if !ok {
		return 0, notFound("resolve", name)
	}
	return id, nil
}

// FetchCatalog implements Source.
func (s *StubSource) FetchCatalog(_ context.Context, channelID int) (*types.ChannelCatalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fetched = append(s.Fetched, channelID)
	channel := strconv.Itoa(channelID)
	if err, ok := s.failures[channelID]; ok {
		return nil, transport("fetch", channel, err)
	}
	cat, ok := s.catalogs[channelID]
	if !ok {
		return nil, notFound("fetch", channel)
	}
	return cat, nil
}

// FetchCount returns how many times FetchCatalog was called.
func (s *StubSource) FetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Fetched)
}

// Verify StubSource implements Source.
var _ Source = (*StubSource)(nil)
