package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/itt/pkg/core"
)

// debounceInterval coalesces the burst of events an atomic write produces.
const debounceInterval = 50 * time.Millisecond

// Watch reports changes to the slot file of key until ctx is done, then closes
// the returned channel. Writes made through this KV are reported too.
func (k *KV) Watch(ctx context.Context, key string) (<-chan core.Event, error) {
	filename, err := k.filename(key)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(k.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", k.Path, err)
	}

	_, statErr := os.Stat(filepath.Join(k.Path, filename))
	w := &slotWatcher{
		kv:       k,
		key:      key,
		filename: filename,
		watcher:  watcher,
		events:   make(chan core.Event, 16),
		exists:   statErr == nil,
	}

	k.setWatcherActive(true)
	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		if k.config.ErrorHandler != nil {
			k.config.ErrorHandler(fmt.Errorf("watcher failed: %w", err))
		} else if k.config.Logger != nil {
			k.config.Logger.Error("watcher failed", "key", key, "error", err)
		}
	}))

	return w.events, nil
}

type slotWatcher struct {
	kv       *KV
	key      string
	filename string
	watcher  *fsnotify.Watcher
	events   chan core.Event
	exists   bool
}

func (w *slotWatcher) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger := w.kv.config.Logger; logger != nil {
				if logger.Enabled(ctx, slog.LevelDebug) {
					logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
				} else {
					logger.Error("watcher panic", "error", err)
				}
			}
		}
	}()
	defer close(w.events)
	defer w.kv.setWatcherActive(false)
	defer w.watcher.Close()

	timer := time.NewTimer(debounceInterval)
	timer.Stop()
	var pending *core.Event

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Base(event.Name) != w.filename {
				continue
			}
			if w.kv.config.Logger != nil {
				w.kv.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())
			}

			eType := w.mapEventType(event)
			if eType == "" {
				continue
			}
			if pending != nil && pending.Type == core.EventCreate && eType == core.EventModify {
				eType = core.EventCreate
			}
			pending = &core.Event{Type: eType, Key: w.key, Timestamp: time.Now().Unix()}
			timer.Reset(debounceInterval)

		case <-timer.C:
			if pending == nil {
				continue
			}
			select {
			case w.events <- *pending:
			case <-ctx.Done():
				return nil
			}
			pending = nil

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			if w.kv.config.Logger != nil {
				w.kv.config.Logger.Error("fsnotify error", "error", wErr)
			}
			if w.kv.config.ErrorHandler != nil {
				w.kv.config.ErrorHandler(wErr)
			}
		}
	}
}

// mapEventType translates an fsnotify event on the slot file. Atomic writes
// show up as a create of the target name, so creates of a known file are modifications.
func (w *slotWatcher) mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		if w.exists {
			return core.EventModify
		}
		w.exists = true
		return core.EventCreate
	case event.Has(fsnotify.Write):
		w.exists = true
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.exists = false
		return core.EventDelete
	default:
		return ""
	}
}
