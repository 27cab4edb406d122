package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ImportFunc runs one import against a store session.
type ImportFunc func(ctx context.Context, store Store, payload string) (Report, error)

// ImportKind describes one importable payload kind.
type ImportKind struct {
	Key         string        `json:"key"`
	Label       string        `json:"label"`
	Format      PayloadFormat `json:"format"`
	Description string        `json:"description"`
	Order       int           `json:"order"` // Suggested import order; references must exist first
	Import      ImportFunc    `json:"-"`
}

var (
	registry   = make(map[string]ImportKind)
	registryMu sync.RWMutex
)

// Register adds an import kind to the registry.
// Panics if a kind with the same key is already registered.
func Register(kind ImportKind) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[kind.Key]; exists {
		panic(fmt.Sprintf("import kind already registered: %s", kind.Key))
	}
	if kind.Import == nil {
		panic(fmt.Sprintf("import kind %s has no import func", kind.Key))
	}

	registry[kind.Key] = kind
}

// Get returns an import kind by key.
// Returns false if not found.
func Get(key string) (ImportKind, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kind, ok := registry[key]
	return kind, ok
}

// All returns all registered import kinds.
// Sorted by import order then by key for consistent ordering.
func All() []ImportKind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]ImportKind, 0, len(registry))
	for _, kind := range registry {
		result = append(result, kind)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// KindCount returns the number of registered import kinds.
func KindCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
