package storage

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Storage. quotaBytes bounds the size of each
// stored value, as on the other backends, so keys scoped to different
// browsers never compete for space; zero means unlimited. A disabled Memory
// fails every call with ErrUnavailable.
type Memory struct {
	mu         sync.RWMutex
	items      map[string]string
	quotaBytes int
	disabled   bool
}

// NewMemory creates an empty in-memory store with the given per-value quota.
func NewMemory(quotaBytes int) *Memory {
	return &Memory{
		items:      make(map[string]string),
		quotaBytes: quotaBytes,
	}
}

// SetDisabled toggles the store between available and unavailable.
func (m *Memory) SetDisabled(disabled bool) {
	m.mu.Lock()
	m.disabled = disabled
	m.mu.Unlock()
}

// Get returns the value stored under key.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.disabled {
		return "", false, ErrUnavailable
	}

	value, ok := m.items[key]
	return value, ok, nil
}

// Set stores value under key unless doing so would exceed the quota.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disabled {
		return ErrUnavailable
	}

	if exceedsQuota(m.quotaBytes, value) {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrQuotaExceeded, len(value), m.quotaBytes)
	}

	m.items[key] = value
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disabled {
		return ErrUnavailable
	}

	delete(m.items, key)
	return nil
}
