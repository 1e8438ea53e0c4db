package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/itt/pkg/adapters/fs"
)

func TestKV_Lock(t *testing.T) {
	kv := newKV(t, fs.Config{})
	lockPath := filepath.Join(kv.Path, fs.DefaultSystemDir, "slot.lock")

	unlock, err := kv.Lock(context.Background(), "slot")
	require.NoError(t, err)

	_, err = os.Stat(lockPath)
	require.NoError(t, err, "lock file not created")

	t.Run("Contention Times Out", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := kv.Lock(ctx, "slot")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.ErrorIs(t, err, fs.ErrLocked)
	})

	t.Run("Other Keys Are Independent", func(t *testing.T) {
		other, err := kv.Lock(context.Background(), "other")
		require.NoError(t, err)
		other()
	})

	t.Run("Waiter Acquires After Release", func(t *testing.T) {
		acquired := make(chan func(), 1)
		go func() {
			u, err := kv.Lock(context.Background(), "slot")
			if err == nil {
				acquired <- u
			}
		}()

		select {
		case <-acquired:
			t.Fatal("lock acquired while held")
		case <-time.After(30 * time.Millisecond):
		}

		unlock()

		select {
		case u := <-acquired:
			u()
		case <-time.After(2 * time.Second):
			t.Fatal("waiter never acquired the lock")
		}
	})

	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err), "lock file not removed after unlock")
}

func TestKV_LockTimeout(t *testing.T) {
	kv := newKV(t, fs.Config{LockTimeout: 50 * time.Millisecond})

	unlock, err := kv.Lock(context.Background(), "slot")
	require.NoError(t, err)
	defer unlock()

	start := time.Now()
	_, err = kv.Lock(context.Background(), "slot")
	require.ErrorIs(t, err, fs.ErrLocked)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, err.Error(), "pid "+strconv.Itoa(os.Getpid()))
	assert.Contains(t, err.Error(), filepath.Join(fs.DefaultSystemDir, "slot.lock"))
}

func TestKV_StaleLock(t *testing.T) {
	kv := newKV(t, fs.Config{StaleLockAge: time.Minute, LockTimeout: time.Second})
	lockPath := filepath.Join(kv.Path, fs.DefaultSystemDir, "slot.lock")

	t.Run("Fresh Lock Is Respected", func(t *testing.T) {
		require.NoError(t, os.WriteFile(lockPath, []byte("pid: 999999\n"), 0644))
		defer os.Remove(lockPath)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := kv.Lock(ctx, "slot")
		assert.ErrorIs(t, err, fs.ErrLocked)
		assert.Contains(t, err.Error(), "pid 999999")
	})

	t.Run("Abandoned Lock Is Broken", func(t *testing.T) {
		require.NoError(t, os.WriteFile(lockPath, []byte("pid: 999999\n"), 0644))
		old := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(lockPath, old, old))

		unlock, err := kv.Lock(context.Background(), "slot")
		require.NoError(t, err)

		data, err := os.ReadFile(lockPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "pid: "+strconv.Itoa(os.Getpid()))

		unlock()
		entries, err := os.ReadDir(filepath.Dir(lockPath))
		require.NoError(t, err)
		assert.Empty(t, entries, "no lock or stale copy left behind")
	})
}
