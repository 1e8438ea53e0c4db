// Package memory provides a process-local KV, used for tests and ephemeral sessions.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/itt/pkg/core"
)

type entry struct {
	value   string
	version int64
}

// KV implements core.Versioned in memory.
type KV struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty in-memory KV.
func New() *KV {
	return &KV{entries: make(map[string]entry)}
}

func (m *KV) Get(ctx context.Context, key string) (string, bool, error) {
	value, _, found, err := m.GetVersioned(ctx, key)
	return value, found, err
}

func (m *KV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[key]
	m.entries[key] = entry{value: value, version: e.version + 1}
	return nil
}

func (m *KV) GetVersioned(ctx context.Context, key string) (string, int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return "", 0, false, nil
	}
	return e.value, e.version, true, nil
}

func (m *KV) CompareAndSet(ctx context.Context, key, value string, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.entries[key]
	if current.version != version {
		return core.ErrConflict
	}
	m.entries[key] = entry{value: value, version: version + 1}
	return nil
}

// ComponentType implements introspection.Component.
func (m *KV) ComponentType() string {
	return "memory"
}

var _ core.Versioned = (*KV)(nil)
