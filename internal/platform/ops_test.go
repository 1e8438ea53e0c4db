package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/itt/internal/platform"
	"github.com/aretw0/itt/pkg/adapters/fs"
	"github.com/aretw0/itt/pkg/adapters/memory"
	"github.com/aretw0/itt/pkg/core"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("File Adapter Creates Directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data")

		inst, err := platform.New(ctx, path, platform.WithForceTemp(true))
		require.NoError(t, err)
		defer inst.Close()

		kv, ok := inst.KV.(*fs.KV)
		require.True(t, ok, "expected fs adapter")
		assert.Equal(t, path, kv.Path)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		_, err = inst.Store.Upsert(ctx, core.UpsertInput{CustomerName: "Alice", PackageTitle: "Dubai 5N"})
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(path, core.DefaultKey+fs.SlotExt))
		assert.NoError(t, err)
	})

	t.Run("Must Exist Fails On Missing Directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing")
		_, err := platform.New(ctx, path, platform.WithAutoInit(false), platform.WithMustExist(true), platform.WithForceTemp(true))
		assert.Error(t, err)
	})

	t.Run("Memory Adapter", func(t *testing.T) {
		inst, err := platform.New(ctx, "", platform.WithAdapter(platform.AdapterMemory),
			platform.WithStoreOptions(core.WithKey("custom")))
		require.NoError(t, err)
		defer inst.Close()

		assert.Equal(t, "custom", inst.Store.Key())
		assert.Equal(t, "memory", inst.Store.State().(core.StoreState).Provider)
	})

	t.Run("Injected KV", func(t *testing.T) {
		kv := memory.New()
		inst, err := platform.New(ctx, "ignored", platform.WithKV(kv), platform.WithAdapter("unknown"))
		require.NoError(t, err)
		assert.Same(t, kv, inst.KV)
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := platform.New(ctx, "", platform.WithAdapter("redis"))
		assert.ErrorContains(t, err, "unknown adapter")
	})

	t.Run("Mongo Requires URI", func(t *testing.T) {
		_, err := platform.New(ctx, "", platform.WithAdapter(platform.AdapterMongo))
		assert.Error(t, err)
	})

	t.Run("Config Options", func(t *testing.T) {
		cfg := platform.DefaultConfig()
		cfg.Adapter = platform.AdapterMemory
		cfg.Key = "quotes"

		inst, err := platform.New(ctx, cfg.URI(), cfg.Options()...)
		require.NoError(t, err)
		assert.Equal(t, "quotes", inst.Store.Key())
	})
}

func TestNew_ReadOnly(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(path, core.DefaultKey+fs.SlotExt), []byte("[]"), 0644))

	inst, err := platform.New(ctx, path, platform.WithReadOnly(true))
	require.NoError(t, err)

	records, err := inst.Store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = inst.Store.Upsert(ctx, core.UpsertInput{CustomerName: "Alice", PackageTitle: "Dubai 5N"})
	assert.ErrorIs(t, err, core.ErrReadOnly)
}
