package core

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Key        string `json:"key"`
	Provider   string `json:"provider"`
	Guard      string `json:"guard"`
	MaxRetries int    `json:"max_retries"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	provider := "kv"
	if comp, ok := s.kv.(introspection.Component); ok {
		provider = comp.ComponentType()
	}

	return StoreState{
		Key:        s.opts.key,
		Provider:   provider,
		Guard:      s.guard(),
		MaxRetries: s.opts.maxRetries,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

// guard names the cross-process protection the provider offers.
func (s *Store) guard() string {
	_, versioned := s.kv.(Versioned)
	_, locker := s.kv.(Locker)
	switch {
	case versioned && locker:
		return "lock+cas"
	case versioned:
		return "cas"
	case locker:
		return "lock"
	default:
		return "none"
	}
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
