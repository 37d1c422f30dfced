package recent

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/pevans/technews/metrics"
	"github.com/pevans/technews/storage"
)

// Store reads and writes the recent-items list. It never returns errors:
// storage failures degrade to an empty read or a false write and are
// reported to the diagnostics logger.
type Store struct {
	storage storage.Storage
	logger  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the diagnostics logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store over s. A nil s behaves as storage that is not
// available at all.
func NewStore(s storage.Storage, opts ...Option) *Store {
	store := &Store{
		storage: s,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	store.logger = store.logger.With(zap.String("component", "recent"))
	return store
}

// Read returns the persisted list. Unavailable storage yields an empty
// list. Content that is not a JSON array is removed from storage; array
// elements that fail validation are dropped.
func (s *Store) Read(ctx context.Context) List {
	if s.storage == nil {
		return List{}
	}

	raw, ok, err := s.storage.Get(ctx, Key)
	if err != nil {
		s.warn("read.get", err)
		return List{}
	}
	if !ok || raw == "" {
		return List{}
	}

	return s.parse(ctx, raw)
}

// parse decodes persisted content, self-healing on malformed data.
func (s *Store) parse(ctx context.Context, raw string) List {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		s.discard(ctx, "read.parse", err)
		return List{}
	}

	elems, ok := decoded.([]any)
	if !ok {
		s.discard(ctx, "read.parse", errors.New("persisted value is not an array"))
		return List{}
	}

	list := make(List, 0, min(len(elems), MaxItems))
	seen := make(map[string]bool, len(elems))
	for i, elem := range elems {
		v := Validate(elem)
		if !v.Valid() {
			s.logger.Debug("dropping invalid recent item",
				zap.Int("index", i),
				zap.String("reason", v.Reason))
			continue
		}
		if seen[v.Item.URL] {
			continue
		}
		seen[v.Item.URL] = true
		list = append(list, v.Item)
		if len(list) == MaxItems {
			break
		}
	}

	return list
}

// discard removes malformed content so the next read starts fresh.
func (s *Store) discard(ctx context.Context, where string, cause error) {
	metrics.RecentMalformedReads.Inc()
	s.warn(where, cause)
	if err := s.storage.Remove(ctx, Key); err != nil {
		s.warn("read.remove", err)
	}
}

// Write moves item to the front of the list, truncates the list to MaxItems
// and persists it. It reports whether anything was persisted. When storage
// is full the list is shrunk by halves, keeping the newest entries, down to
// item alone.
func (s *Store) Write(ctx context.Context, item Item) bool {
	if item.URL == "" {
		metrics.RecentWritesTotal.WithLabelValues("invalid").Inc()
		s.logger.Warn("rejecting recent item without url", zap.String("title", item.Title))
		return false
	}
	if s.storage == nil {
		metrics.RecentWritesTotal.WithLabelValues("failed").Inc()
		return false
	}

	list := prepend(s.Read(ctx), item)

	err := s.persist(ctx, list)
	if err == nil {
		metrics.RecentWritesTotal.WithLabelValues("ok").Inc()
		return true
	}
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		metrics.RecentWritesTotal.WithLabelValues("failed").Inc()
		s.warn("write.set", err)
		return false
	}

	if s.degrade(ctx, list) {
		metrics.RecentWritesTotal.WithLabelValues("degraded").Inc()
		return true
	}
	metrics.RecentWritesTotal.WithLabelValues("failed").Inc()
	return false
}

// degrade retries a write that hit the quota with progressively shorter
// prefixes of list: half the length each time, then list[0] alone.
func (s *Store) degrade(ctx context.Context, list List) bool {
	for limit := len(list) / 2; limit > 1; limit /= 2 {
		err := s.persist(ctx, list[:limit])
		if err == nil {
			s.logger.Info("recent list shrunk to fit storage quota", zap.Int("kept", limit))
			return true
		}
		if !errors.Is(err, storage.ErrQuotaExceeded) {
			s.warn("write.retry.set", err)
			return false
		}
	}

	if err := s.persist(ctx, list[:1]); err != nil {
		s.warn("write.quota.final", err)
		return false
	}
	s.logger.Info("recent list shrunk to fit storage quota", zap.Int("kept", 1))
	return true
}

// Clear removes the persisted list.
func (s *Store) Clear(ctx context.Context) bool {
	if s.storage == nil {
		return false
	}
	if err := s.storage.Remove(ctx, Key); err != nil {
		s.warn("clear.remove", err)
		return false
	}
	return true
}

func (s *Store) persist(ctx context.Context, list List) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, Key, string(data))
}

func (s *Store) warn(where string, err error) {
	s.logger.Warn("recent storage failure", zap.String("where", where), zap.Error(err))
}

// prepend returns a new list with item first, any earlier entry with the
// same URL removed, truncated to MaxItems.
func prepend(list List, item Item) List {
	out := make(List, 0, MaxItems)
	out = append(out, item)
	for _, existing := range list {
		if len(out) == MaxItems {
			break
		}
		if existing.URL != item.URL {
			out = append(out, existing)
		}
	}
	return out
}
