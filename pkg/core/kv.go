package core

import (
	"context"
	"fmt"
)

// KV is the durability provider the Store persists its slot into.
// Adhering to this interface keeps the Store independent of the
// underlying storage (files, MongoDB, SQL, memory).
type KV interface {
	// Get returns the value stored under key. found is false when the key was never set.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key, value string) error
}

// Versioned is implemented by providers that can detect concurrent writers.
// Version 0 means "absent"; every successful write increments the version.
type Versioned interface {
	KV

	// GetVersioned returns the value with the version it was read at.
	GetVersioned(ctx context.Context, key string) (value string, version int64, found bool, err error)

	// CompareAndSet writes value only if the stored version still equals version.
	// It returns ErrConflict otherwise.
	CompareAndSet(ctx context.Context, key, value string, version int64) error
}

// Locker is implemented by providers that can hold an exclusive lock on a key
// across processes (e.g. a lock file).
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Initializer is implemented by providers that need setup before first use
// (create directories, indexes or tables).
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Watchable is implemented by providers that can report writes made by other processes.
type Watchable interface {
	Watch(ctx context.Context, key string) (<-chan Event, error)
}

// EventType represents the type of change to a slot.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a slot.
type Event struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Key)
}

type contextKey string

// ChangeReasonKey is the context key for the human readable reason of a write.
// Versioning providers use it as the commit message.
const ChangeReasonKey contextKey = "change_reason"

// WithChangeReason returns a context carrying reason for the next write.
func WithChangeReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, ChangeReasonKey, reason)
}

// ChangeReason returns the reason stored in ctx, if any.
func ChangeReason(ctx context.Context) (string, bool) {
	reason, ok := ctx.Value(ChangeReasonKey).(string)
	return reason, ok && reason != ""
}
