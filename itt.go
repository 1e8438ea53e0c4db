package itt

import (
	"context"
	"log/slog"

	"github.com/aretw0/itt/internal/platform"
	"github.com/aretw0/itt/pkg/core"
)

// --- Types ---

// Record is a public alias for the stored record.
type Record = core.Record

// RecordID is a public alias for record identifiers.
type RecordID = core.RecordID

// UpsertInput is a public alias for the values written by Upsert.
type UpsertInput = core.UpsertInput

// Store is a public alias for the record store.
type Store = core.Store

// Instance is an opened store together with its provider.
type Instance = platform.Instance

// Config is the file and environment configuration.
type Config = platform.Config

// --- Configuration ---

// Option defines a functional option for opening a store.
type Option = platform.Option

// WithAdapter selects the provider by name: fs (default), memory, mongo or postgres.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithKV injects a custom provider.
func WithKV(kv core.KV) Option {
	return platform.WithKV(kv)
}

// WithLogger sets the logger for the store and its provider.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAutoInit lets the file adapter create its directory and git repository.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning commits every write of the file adapter to git.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithMustExist fails when the file adapter directory is missing.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly rejects every write with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithStoreOptions passes options through to the store.
func WithStoreOptions(opts ...core.Option) Option {
	return platform.WithStoreOptions(opts...)
}

// --- Factory ---

// New opens the provider addressed by uri and returns the store built on it.
func New(ctx context.Context, uri string, opts ...Option) (*Instance, error) {
	return platform.New(ctx, uri, opts...)
}

// LoadConfig reads the YAML config file and env file, applies ITT_* variables and validates the result.
func LoadConfig(configFile, envFile string) (Config, error) {
	return platform.LoadConfig(configFile, envFile)
}

// FindRoot walks up from dir to the nearest data directory.
func FindRoot(dir string) (string, error) {
	return platform.FindRoot(dir)
}
