package collection

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionClosed is returned by Load on a closed Session.
var ErrSessionClosed = errors.New("session closed")

// Session holds the collection of one view. A fetch result is applied only
// if the session is still open and no later Load has started, so a view
// that has gone away, or moved on to another country, never sees stale
// data.
type Session struct {
	pipeline *Pipeline

	mu      sync.Mutex
	closed  bool
	gen     uint64
	current Collection
	err     error
	loaded  bool
}

// NewSession starts a view session on p.
func (p *Pipeline) NewSession() *Session {
	return &Session{pipeline: p}
}

// Load fetches the collection for country and applies it. The boolean
// reports whether the result was applied; a discarded result returns false
// and a nil error.
func (s *Session) Load(ctx context.Context, country string) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrSessionClosed
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	c, err := s.pipeline.FetchCountry(ctx, country)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return false, nil
	}
	s.current, s.err, s.loaded = c, err, true
	return true, err
}

// Current returns the last applied collection and its error. Before any
// Load has been applied it returns an empty collection.
func (s *Session) Current() (Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return Collection{}, nil
	}
	return s.current, s.err
}

// Close marks the view as gone. Results of loads still in flight are
// dropped and Current goes back to an empty collection.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.current, s.err, s.loaded = nil, nil, false
	s.mu.Unlock()
}
