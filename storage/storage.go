// Package storage defines the key-value port used to persist per-browser
// state, along with the backends that implement it.
package storage

import (
	"context"
	"errors"
)

// Errors reported by Storage implementations. Callers test for them with
// errors.Is; backends wrap them with detail.
var (
	ErrUnavailable   = errors.New("storage unavailable")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Storage is a string key-value store that may be disabled, full, or
// failing. Get reports absence with ok == false and a nil error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Scoped namespaces every key of an underlying Storage with a prefix, so a
// single server-side backend can hold the state of many browsers.
type Scoped struct {
	inner  Storage
	prefix string
}

// NewScoped returns a Storage whose keys are stored as "<scope>:<key>".
func NewScoped(inner Storage, scope string) *Scoped {
	return &Scoped{
		inner:  inner,
		prefix: scope + ":",
	}
}

// Get retrieves the value stored for key within the scope.
func (s *Scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

// Set stores value for key within the scope.
func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

// Remove deletes key within the scope.
func (s *Scoped) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, s.prefix+key)
}

// exceedsQuota reports whether a value of the given size breaks a per-value
// quota. A quota of zero or less means unlimited.
func exceedsQuota(quota int, value string) bool {
	return quota > 0 && len(value) > quota
}
