package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// KVState exposes internal state for observability.
type KVState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	ReadOnly      bool       `json:"read_only"`
	Versioning    bool       `json:"versioning"`
	WatcherActive bool       `json:"watcher_active"`
	LastWrite     *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (k *KV) State() any {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return KVState{
		Path:          k.Path,
		SystemDir:     k.config.SystemDir,
		ReadOnly:      k.config.ReadOnly,
		Versioning:    k.config.Versioning,
		WatcherActive: k.watcherActive,
		LastWrite:     k.lastWrite,
	}
}

// ComponentType implements introspection.Component.
func (k *KV) ComponentType() string {
	return "fs"
}

var _ introspection.Introspectable = (*KV)(nil)
var _ introspection.Component = (*KV)(nil)

func (k *KV) setWatcherActive(active bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.watcherActive = active
}

func (k *KV) recordWrite() {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := time.Now()
	k.lastWrite = &now
}
