// Package cache stores on-demand compatibility results.
//
// Keys embed a fingerprint of both answer sets and the catalog version, so a
// changed survey or catalog produces a new key and stale entries simply age
// out. Nothing is ever explicitly invalidated.
package cache

import (
	"context"
	"sync"

	"github.com/forgo/accord/internal/model"
)

// ResultCache stores compatibility results by opaque key
type ResultCache interface {
	// Get reports a miss as (nil, false, nil)
	Get(ctx context.Context, key string) (*model.CompatibilityResult, bool, error)
	Set(ctx context.Context, key string, result *model.CompatibilityResult) error
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) (*model.CompatibilityResult, bool, error) {
	return nil, false, nil
}

func (Noop) Set(ctx context.Context, key string, result *model.CompatibilityResult) error {
	return nil
}

// Memory is an unbounded in-process cache for tests and single-node development
type Memory struct {
	mu      sync.RWMutex
	entries map[string]model.CompatibilityResult
	hits    int
}

// NewMemory creates an empty in-process cache
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]model.CompatibilityResult)}
}

func (m *Memory) Get(ctx context.Context, key string) (*model.CompatibilityResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	m.hits++
	r.Categories = append([]model.CategoryScore(nil), r.Categories...)
	return &r, true, nil
}

func (m *Memory) Set(ctx context.Context, key string, result *model.CompatibilityResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := *result
	r.Categories = append([]model.CategoryScore(nil), result.Categories...)
	m.entries[key] = r
	return nil
}

// Hits reports how many lookups were served from the cache
func (m *Memory) Hits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits
}
