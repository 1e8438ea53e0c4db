package core

import (
	"log/slog"
	"time"
)

// DefaultKey is the slot name existing data files use.
const DefaultKey = "itt_customer_data"

// DefaultMaxRetries bounds compare-and-set retries on Versioned providers.
const DefaultMaxRetries = 5

// DefaultPlaceholders are editor prompts that must never be saved as a customer name.
var DefaultPlaceholders = []string{"Enter Customer Name"}

// options holds the internal configuration for a Store.
type options struct {
	key           string
	logger        *slog.Logger
	clock         func() time.Time
	newID         func() RecordID
	observer      Observer
	maxRetries    int
	placeholders  []string
	fallbackTitle string
}

// Option defines a functional option for configuring a Store.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		key:          DefaultKey,
		clock:        time.Now,
		newID:        NewRecordID,
		observer:     nopObserver{},
		maxRetries:   DefaultMaxRetries,
		placeholders: DefaultPlaceholders,
	}
}

// WithKey sets the storage key of the slot. Empty keeps DefaultKey.
func WithKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.key = key
		}
	}
}

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the time source (useful for testing).
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithIDGenerator overrides how identifiers of new records are generated.
func WithIDGenerator(gen func() RecordID) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// WithObserver attaches telemetry (e.g. metrics.Observer).
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithMaxRetries sets how many times a conflicting write is retried on Versioned providers.
// Negative values are treated as zero.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.maxRetries = n
	}
}

// WithPlaceholders replaces the list of customer names SaveCurrent refuses to save.
func WithPlaceholders(values ...string) Option {
	return func(o *options) {
		o.placeholders = values
	}
}

// WithFallbackTitle sets the package title SaveCurrent uses when the document has none.
func WithFallbackTitle(title string) Option {
	return func(o *options) {
		o.fallbackTitle = title
	}
}
