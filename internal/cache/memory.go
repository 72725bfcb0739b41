package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/iwvelando/saas-metrics/pkg/constants"
)

// Memory is an in-process cache holding at most a fixed number of entries.
// The least recently used entry is evicted first and every entry expires
// after the TTL.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemory returns an empty in-process cache holding up to size entries.
func NewMemory(ttl time.Duration, size int) *Memory {
	if size <= 0 {
		size = constants.DefaultCacheSize
	}
	return &Memory{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns a copy of the stored value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := m.lru.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}

// Close drops every entry.
func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
