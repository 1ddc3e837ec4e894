package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a process-local LRU with per-entry expiry.
type MemoryStore struct {
	lru *lru.Cache[string, memoryItem]
	now func() time.Time
}

// NewMemoryStore creates a store holding at most size entries.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = 128
	}
	l, err := lru.New[string, memoryItem](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{lru: l, now: time.Now}, nil
}

// WithClock replaces the time source; used by tests.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	item, ok := m.lru.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if !m.now().Before(item.expiresAt) {
		m.lru.Remove(key)
		return nil, ErrMiss
	}
	return item.data, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	m.lru.Add(key, memoryItem{data: buf, expiresAt: m.now().Add(ttl)})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.lru.Purge()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
