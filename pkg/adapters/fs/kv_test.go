package fs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/itt/pkg/adapters/fs"
	"github.com/aretw0/itt/pkg/core"
	"github.com/aretw0/itt/pkg/git"
)

func newKV(t *testing.T, config fs.Config) *fs.KV {
	t.Helper()
	if config.Path == "" {
		config.Path = t.TempDir()
	}
	kv := fs.NewKV(config)
	require.NoError(t, kv.Initialize(context.Background()))
	return kv
}

func TestKV_GetSet(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t, fs.Config{})

	_, found, err := kv.Get(ctx, "itt_customer_data")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(ctx, "itt_customer_data", `[{"id":"a"}]`))

	value, found, err := kv.Get(ctx, "itt_customer_data")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"a"}]`, value)

	raw, err := os.ReadFile(filepath.Join(kv.Path, "itt_customer_data.json"))
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(raw))
}

func TestKV_InvalidKey(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t, fs.Config{})

	for _, key := range []string{"", "..", "a/b", `a\b`, fs.TempFilePrefix + "x"} {
		t.Run(key, func(t *testing.T) {
			_, _, err := kv.Get(ctx, key)
			assert.ErrorIs(t, err, fs.ErrInvalidKey)
			assert.ErrorIs(t, kv.Set(ctx, key, "[]"), fs.ErrInvalidKey)
		})
	}
}

func TestKV_Initialize(t *testing.T) {
	t.Run("Creates Directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "data")
		newKV(t, fs.Config{Path: path})

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Must Exist", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing")
		kv := fs.NewKV(fs.Config{Path: path, MustExist: true})
		assert.Error(t, kv.Initialize(context.Background()))
	})

	t.Run("Rejects File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		kv := fs.NewKV(fs.Config{Path: path, MustExist: true})
		assert.Error(t, kv.Initialize(context.Background()))
	})
}

func TestKV_ReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slot.json"), []byte("[]"), 0644))

	kv := newKV(t, fs.Config{Path: dir, ReadOnly: true})

	value, found, err := kv.Get(ctx, "slot")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", value)

	assert.ErrorIs(t, kv.Set(ctx, "slot", `[{}]`), core.ErrReadOnly)
	_, err = kv.Lock(ctx, "slot")
	assert.ErrorIs(t, err, core.ErrReadOnly)

	store := core.NewStore(kv, core.WithKey("slot"))
	_, err = store.Upsert(ctx, core.UpsertInput{CustomerName: "Alice", PackageTitle: "Dubai 5N"})
	assert.True(t, errors.Is(err, core.ErrReadOnly))

	raw, err := os.ReadFile(filepath.Join(dir, "slot.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestKV_StoreAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Two stores over two KV instances on the same directory behave like two processes.
	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers*2)
	for s := 0; s < 2; s++ {
		store := core.NewStore(fs.NewKV(fs.Config{Path: dir}))
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(s, i int) {
				defer wg.Done()
				_, err := store.Upsert(ctx, core.UpsertInput{
					CustomerName: "Customer",
					PackageTitle: string(rune('A'+s)) + string(rune('a'+i)),
				})
				errs <- err
			}(s, i)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := core.NewStore(fs.NewKV(fs.Config{Path: dir})).List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, writers*2)

	_, err = os.Stat(filepath.Join(dir, fs.DefaultSystemDir, core.DefaultKey+".lock"))
	assert.True(t, os.IsNotExist(err), "lock file must be released")
}

func TestKV_Versioning(t *testing.T) {
	if !fs.IsGitInstalled() {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_AUTHOR_NAME", "itt-test")
	t.Setenv("GIT_AUTHOR_EMAIL", "itt-test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "itt-test")
	t.Setenv("GIT_COMMITTER_EMAIL", "itt-test@example.com")

	ctx := context.Background()
	kv := newKV(t, fs.Config{Versioning: true, AutoInit: true})
	client := git.NewClient(kv.Path, nil)

	ignore, err := os.ReadFile(filepath.Join(kv.Path, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), fs.DefaultSystemDir+"/")

	store := core.NewStore(kv)
	id, err := store.Upsert(ctx, core.UpsertInput{CustomerName: "Alice", PackageTitle: "Dubai 5N"})
	require.NoError(t, err)

	// Deleting an unknown id rewrites identical content, which must not fail on an empty commit.
	require.NoError(t, store.DeleteByID(ctx, "unknown"))
	require.NoError(t, store.DeleteByID(ctx, id))

	count, err := client.CommitCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "ignore commit, save, delete")

	last, err := client.Run(ctx, "log", "-1", "--format=%s")
	require.NoError(t, err)
	assert.Equal(t, "data("+core.DefaultKey+"): delete "+id.String(), last)

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, status)
}
