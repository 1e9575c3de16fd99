// Package cache keeps image scores so repeated URLs are downloaded once.
package cache

import (
	"context"
	"sync"
	"time"

	"GoreScanner/internal/ports"
)

type entry struct {
	score   float64
	expires time.Time
}

// Memory is an in-process score cache. A zero TTL keeps entries forever.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

var _ ports.ScoreCache = (*Memory)(nil)

// NewMemory builds an empty cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]entry{},
	}
}

// Get returns the cached score for key.
func (m *Memory) Get(_ context.Context, key string) (float64, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return 0, false
	}
	return e.score, true
}

// Set stores score under key.
func (m *Memory) Set(_ context.Context, key string, score float64) {
	e := entry{score: score}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
