package platform

import (
	"log/slog"

	"github.com/aretw0/itt/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS       = "fs"
	AdapterMemory   = "memory"
	AdapterMongo    = "mongo"
	AdapterPostgres = "postgres"
)

// options holds the internal configuration for opening a store.
type options struct {
	kv           core.KV
	logger       *slog.Logger
	adapter      string
	systemDir    string
	mongoDB      string
	autoInit     bool
	versioning   bool
	mustExist    bool
	readOnly     bool
	forceTemp    bool
	devSafety    bool
	errorHandler func(error)
	storeOpts    []core.Option
}

// Option defines a functional option for opening a store.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:   AdapterFS,
		mongoDB:   "itt",
		autoInit:  true,
		devSafety: true,
	}
}

// WithKV injects a ready provider (e.g. a test double). The adapter option is then ignored.
func WithKV(kv core.KV) Option {
	return func(o *options) {
		o.kv = kv
	}
}

// WithAdapter selects the provider by name: fs (default), memory, mongo or postgres.
func WithAdapter(name string) Option {
	return func(o *options) {
		if name != "" {
			o.adapter = name
		}
	}
}

// WithLogger sets the logger for the store and its provider.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAutoInit lets the file adapter create its directory and git repository.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithVersioning commits every write of the file adapter to git.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = enabled
	}
}

// WithMustExist fails when the file adapter directory is missing.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly opens the file adapter in read-only mode: writes return core.ErrReadOnly
// and the dev sandbox is bypassed.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithForceTemp re-roots the file adapter directory under the temp directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// It is on by default.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithSystemDir sets the directory holding lock files (default ".itt").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithMongoDatabase sets the database used by the mongo adapter (default "itt").
func WithMongoDatabase(name string) Option {
	return func(o *options) {
		if name != "" {
			o.mongoDB = name
		}
	}
}

// WithWatcherErrorHandler receives failures of the file adapter watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithStoreOptions passes options through to core.NewStore.
func WithStoreOptions(opts ...core.Option) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}
