// Package lifecycle exposes record slot changes as a lifecycle.Source.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/itt/pkg/core"
)

// SlotChanged is emitted when a watched slot file is created, rewritten or removed,
// whether by this process or another one.
type SlotChanged struct {
	core.Event
}

// At returns the time the change was observed.
func (e SlotChanged) At() time.Time {
	return time.Unix(e.Timestamp, 0)
}

func (e SlotChanged) String() string {
	return fmt.Sprintf("%s %s at %s", e.Key, strings.ToLower(string(e.Type)), e.At().Format(time.TimeOnly))
}

// Option configures a slot source.
type Option func(*slotSource)

// ForKey drops the events of every other slot.
func ForKey(key string) Option {
	return func(s *slotSource) {
		s.key = key
	}
}

type slotSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	key    string
}

// NewSource creates a lifecycle.Source emitting a SlotChanged for every event read from events.
func NewSource(events <-chan core.Event, opts ...Option) lifecycle.Source {
	s := &slotSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *slotSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until the input closes or ctx is done, then closes Events.
func (s *slotSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			var e core.Event
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-s.events:
				if !ok {
					return nil
				}
				e = ev
			}

			if s.key != "" && e.Key != s.key {
				continue
			}

			select {
			case s.out <- SlotChanged{Event: e}:
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}
