package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"helpinvest/internal/events"
)

// MemoryCache is an in-process cache.Cache for tests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	Deletes []string
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string][]byte{}}
}

func (m *MemoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *MemoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = b
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	m.Deletes = append(m.Deletes, key)
	return nil
}

// Has reports whether key is cached.
func (m *MemoryCache) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// RecordingPublisher collects published events. Set Err to make Publish fail.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.LedgerEvent
	Err    error
}

func (p *RecordingPublisher) Publish(_ context.Context, e events.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, e)
	return nil
}

// Events returns a copy of the published events.
func (p *RecordingPublisher) Events() []events.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.LedgerEvent(nil), p.events...)
}
