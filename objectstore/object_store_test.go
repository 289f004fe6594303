package objectstore

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/holmberd/go-persist/compression"
	"github.com/holmberd/go-persist/datastore"
	"github.com/holmberd/go-persist/encoder"
	"github.com/holmberd/go-persist/testutil"
)

type model struct {
	Id      string
	Weights []float64
}

// setupModelStore initializes a new store with test data isolation and cleanup.
func setupModelStore(
	t *testing.T,
	rsClient *redis.Client,
	opts ...Option,
) (*Store[model], context.Context) {
	t.Helper()
	ctx := context.Background()
	dsClient, err := datastore.NewClient(rsClient)
	if err != nil {
		t.Fatalf("failed to create datastore client: %v", err)
	}
	// Set random key as store key namespace to ensure test data isolation.
	store, err := New[model]("model", GenerateRandomKey(), dsClient, opts...)
	if err != nil {
		t.Fatalf("failed to create model store: %v", err)
	}

	t.Cleanup(func() {
		// Flush the store data after each test.
		if err := store.flush(ctx); err != nil {
			t.Fatalf("failed to flush model store: %v", err)
		}
	})
	return store, ctx
}

func TestObjectStore(t *testing.T) {
	rsClient, server := testutil.NewRedisClientWithCleanup(t)
	defer server.Close()

	t.Run("Save and load an object", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		in := model{Id: "m-1", Weights: []float64{0.5, 1.25}}

		require.NoError(t, store.Save(ctx, "m-1", in, 0))
		out, err := store.Load(ctx, "m-1")
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("Save and load with gzip payloads", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient, WithMode(compression.Gzip))
		in := model{Id: "m-gz", Weights: []float64{2, 3}}

		require.NoError(t, store.Save(ctx, "m-gz", in, 0))
		out, err := store.Load(ctx, "m-gz")
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("Save overwrites existing object", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		require.NoError(t, store.Save(ctx, "m-1", model{Id: "old"}, 0))
		require.NoError(t, store.Save(ctx, "m-1", model{Id: "new"}, 0))

		out, err := store.Load(ctx, "m-1")
		require.NoError(t, err)
		assert.Equal(t, "new", out.Id)
	})

	t.Run("Load non-existent object", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		_, err := store.Load(ctx, "missing")
		assert.ErrorIs(t, err, datastore.ErrKeyNotFound)
	})

	t.Run("Save with invalid name", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		assert.Error(t, store.Save(ctx, "", model{}, 0))
		assert.Error(t, store.Save(ctx, "bad*name", model{}, 0))
	})

	t.Run("Save and load a batch", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		names := []string{"a", "b", "c"}
		values := []model{{Id: "a"}, {Id: "b"}, {Id: "c"}}

		require.NoError(t, store.SaveBatch(ctx, names, values, 0))
		all, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("Save an empty batch", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		assert.NoError(t, store.SaveBatch(ctx, nil, nil, 0))
	})

	t.Run("Batch with mismatched slices", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		assert.Error(t, store.SaveBatch(ctx, []string{"a"}, nil, 0))
	})

	t.Run("Names lists stored objects", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		require.NoError(t, store.Save(ctx, "m-1", model{Id: "m-1"}, 0))
		require.NoError(t, store.Save(ctx, "m-2", model{Id: "m-2"}, 0))

		names, err := store.Names(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"m-1", "m-2"}, names)
	})

	t.Run("Delete and Exists", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		require.NoError(t, store.Save(ctx, "m-1", model{Id: "m-1"}, 0))

		exists, err := store.Exists(ctx, "m-1")
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, store.Delete(ctx, "m-1"))
		exists, err = store.Exists(ctx, "m-1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Delete with no names", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		assert.NoError(t, store.Delete(ctx))
	})

	t.Run("Load all from an empty store", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		all, err := store.LoadAll(ctx)
		assert.NoError(t, err)
		assert.Len(t, all, 0)
	})

	t.Run("Stores with different namespaces are isolated", func(t *testing.T) {
		store1, ctx := setupModelStore(t, rsClient)
		store2, _ := setupModelStore(t, rsClient)
		require.NoError(t, store1.Save(ctx, "m-1", model{Id: "m-1"}, 0))

		exists, err := store2.Exists(ctx, "m-1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Invalid kind and namespace rejected", func(t *testing.T) {
		dsClient, err := datastore.NewClient(rsClient)
		require.NoError(t, err)
		_, err = New[model]("", "", dsClient)
		assert.Error(t, err)
		_, err = New[model]("bad:kind", "", dsClient)
		assert.Error(t, err)
		_, err = New[model]("model", "bad*ns", dsClient)
		assert.Error(t, err)
	})
}

func TestObjectStoreEvents(t *testing.T) {
	rsClient, server := testutil.NewRedisClientWithCleanup(t)
	defer server.Close()

	t.Run("Save emits saved event", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		var saved []string
		store.OnSaved().AddListener(func(ctx context.Context, names []string) {
			saved = append(saved, names...)
		})

		require.NoError(t, store.Save(ctx, "m-1", model{Id: "m-1"}, 0))
		require.NoError(t, store.SaveBatch(ctx, []string{"m-2", "m-3"}, []model{{Id: "m-2"}, {Id: "m-3"}}, 0))
		assert.Equal(t, []string{"m-1", "m-2", "m-3"}, saved)
	})

	t.Run("Delete emits removed event", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		var removed []string
		store.OnRemoved().AddListener(func(ctx context.Context, names []string) {
			removed = names
		})

		require.NoError(t, store.Save(ctx, "m-1", model{Id: "m-1"}, 0))
		require.NoError(t, store.Delete(ctx, "m-1"))
		assert.Equal(t, []string{"m-1"}, removed)
	})

	t.Run("Removed listener is not called", func(t *testing.T) {
		store, ctx := setupModelStore(t, rsClient)
		called := false
		token := store.OnSaved().AddListener(func(context.Context, []string) {
			called = true
		})
		require.True(t, store.OnSaved().RemoveListener(token))

		require.NoError(t, store.Save(ctx, "m-1", model{Id: "m-1"}, 0))
		assert.False(t, called)
	})
}

func TestObjectStoreWithProtoCodec(t *testing.T) {
	rsClient, server := testutil.NewRedisClientWithCleanup(t)
	defer server.Close()

	setup := func(t *testing.T, opts ...Option) (*Store[*structpb.Struct], context.Context) {
		t.Helper()
		ctx := context.Background()
		dsClient, err := datastore.NewClient(rsClient)
		require.NoError(t, err)
		opts = append([]Option{WithCodec(encoder.Proto())}, opts...)
		store, err := New[*structpb.Struct]("config", GenerateRandomKey(), dsClient, opts...)
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := store.flush(ctx); err != nil {
				t.Fatalf("failed to flush config store: %v", err)
			}
		})
		return store, ctx
	}

	t.Run("Save and load a proto message", func(t *testing.T) {
		store, ctx := setup(t)
		in, err := structpb.NewStruct(map[string]any{"host": "localhost", "port": 6379.0})
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, "redis", in, 0))
		out, err := store.Load(ctx, "redis")
		require.NoError(t, err)
		assert.Equal(t, in.AsMap(), out.AsMap())
	})

	t.Run("Proto payloads with zstd compression", func(t *testing.T) {
		store, ctx := setup(t, WithMode(compression.Zstd))
		in, err := structpb.NewStruct(map[string]any{"name": "compressed"})
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, "cfg", in, 0))
		out, err := store.Load(ctx, "cfg")
		require.NoError(t, err)
		assert.Equal(t, in.AsMap(), out.AsMap())
	})
}
