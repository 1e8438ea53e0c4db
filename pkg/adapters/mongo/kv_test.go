package mongo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/itt/pkg/adapters/mongo"
	"github.com/aretw0/itt/pkg/core"
)

// setupKV connects to the server named by ITT_TEST_MONGO_URI in a throwaway database.
func setupKV(t *testing.T) *mongo.KV {
	t.Helper()
	uri := os.Getenv("ITT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ITT_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database(fmt.Sprintf("itt_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	kv := mongo.NewKV(db, "", nil)
	require.NoError(t, kv.Initialize(ctx))
	return kv
}

func TestKV_CompareAndSet(t *testing.T) {
	kv := setupKV(t)
	ctx := context.Background()

	_, version, found, err := kv.GetVersioned(ctx, "slot")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, version)

	require.NoError(t, kv.CompareAndSet(ctx, "slot", "[]", 0))
	assert.ErrorIs(t, kv.CompareAndSet(ctx, "slot", "[1]", 0), core.ErrConflict)

	value, version, found, err := kv.GetVersioned(ctx, "slot")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", value)
	assert.Equal(t, int64(1), version)

	require.NoError(t, kv.CompareAndSet(ctx, "slot", "[2]", 1))
	assert.ErrorIs(t, kv.CompareAndSet(ctx, "slot", "[3]", 1), core.ErrConflict)

	require.NoError(t, kv.Set(ctx, "slot", "[4]"))
	value, version, _, err = kv.GetVersioned(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, "[4]", value)
	assert.Equal(t, int64(3), version)
}

func TestKV_Store(t *testing.T) {
	kv := setupKV(t)
	ctx := context.Background()
	store := core.NewStore(kv)

	id, err := store.Upsert(ctx, core.UpsertInput{CustomerName: "Alice", PackageTitle: "Dubai 5N"})
	require.NoError(t, err)

	records, err := core.NewStore(kv).List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
}
