package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/itt/pkg/core"
)

// lockRetryInterval is how long Lock sleeps between attempts on a held lock.
const lockRetryInterval = 10 * time.Millisecond

// ErrLocked is returned when a slot lock could not be acquired in time.
var ErrLocked = errors.New("slot is locked")

// lockOwner is written into every lock file.
type lockOwner struct {
	PID      int       `yaml:"pid"`
	Host     string    `yaml:"host"`
	Acquired time.Time `yaml:"acquired"`
}

func (o lockOwner) String() string {
	if o.PID == 0 {
		return "an unknown process"
	}
	return fmt.Sprintf("pid %d on %s since %s", o.PID, o.Host, o.Acquired.Format(time.RFC3339))
}

// Lock acquires the lock file <Path>/<SystemDir>/<key>.lock. It waits at most
// LockTimeout for a held lock and breaks lock files older than StaleLockAge.
func (k *KV) Lock(ctx context.Context, key string) (func(), error) {
	if k.config.ReadOnly {
		return nil, core.ErrReadOnly
	}
	if _, err := k.filename(key); err != nil {
		return nil, err
	}

	dir := filepath.Join(k.Path, k.config.SystemDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create system directory: %w", err)
	}
	lockPath := filepath.Join(dir, key+".lock")

	ctx, cancel := context.WithTimeout(ctx, k.config.LockTimeout)
	defer cancel()

	for {
		err := k.tryLock(lockPath)
		if err == nil {
			return func() {
				os.Remove(lockPath)
			}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		if k.breakStale(lockPath) {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w by %s (%s): %w", ErrLocked, readOwner(lockPath), lockPath, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

// tryLock creates the lock file and records this process as its owner.
func (k *KV) tryLock(lockPath string) error {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	defer f.Close()

	host, _ := os.Hostname()
	owner := lockOwner{PID: os.Getpid(), Host: host, Acquired: time.Now().UTC()}
	if err := yaml.NewEncoder(f).Encode(owner); err != nil && k.config.Logger != nil {
		k.config.Logger.Warn("failed to record lock owner", "lock", lockPath, "error", err)
	}
	return nil
}

// breakStale removes lockPath when it is older than StaleLockAge. The file is
// moved aside first so that only one waiter breaks it; a lock that turns out
// to be fresh after the move is put back.
func (k *KV) breakStale(lockPath string) bool {
	if !k.stale(lockPath) {
		return false
	}

	aside := fmt.Sprintf("%s.stale-%d", lockPath, os.Getpid())
	if err := os.Rename(lockPath, aside); err != nil {
		return false
	}
	defer os.Remove(aside)

	if !k.stale(aside) {
		// Another waiter broke the stale lock and took a new one in between.
		_ = os.Link(aside, lockPath)
		return false
	}

	if k.config.Logger != nil {
		k.config.Logger.Warn("breaking stale lock", "lock", lockPath, "owner", readOwner(aside).String())
	}
	return true
}

func (k *KV) stale(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > k.config.StaleLockAge
}

// readOwner returns the owner recorded in a lock file, or a zero owner when unreadable.
func readOwner(path string) lockOwner {
	var owner lockOwner
	data, err := os.ReadFile(path)
	if err != nil {
		return owner
	}
	_ = yaml.Unmarshal(data, &owner)
	return owner
}
