package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/realtime"
)

// flakyCollection behaves like a remote store that can be switched off.
type flakyCollection[T Document] struct {
	*MemoryCollection[T]
	down bool
}

func (f *flakyCollection[T]) fail(op string) error {
	return fmt.Errorf("%w: %s: connection refused", ErrRemoteWrite, op)
}

func (f *flakyCollection[T]) Create(ctx context.Context, doc T) error {
	if f.down {
		return f.fail("create")
	}
	return f.MemoryCollection.Create(ctx, doc)
}

func (f *flakyCollection[T]) CreateUnique(ctx context.Context, doc T, clash func(T) bool) error {
	if f.down {
		return f.fail("create")
	}
	return f.MemoryCollection.CreateUnique(ctx, doc, clash)
}

func (f *flakyCollection[T]) Update(ctx context.Context, doc T) error {
	if f.down {
		return f.fail("update")
	}
	return f.MemoryCollection.Update(ctx, doc)
}

func (f *flakyCollection[T]) Delete(ctx context.Context, id string) error {
	if f.down {
		return f.fail("delete")
	}
	return f.MemoryCollection.Delete(ctx, id)
}

func (f *flakyCollection[T]) CreateMany(ctx context.Context, docs []T) error {
	if f.down {
		return f.fail("create_many")
	}
	return f.MemoryCollection.CreateMany(ctx, docs)
}

func (f *flakyCollection[T]) CreateManyUnique(ctx context.Context, docs []T, clash func(existing, incoming T) bool) error {
	if f.down {
		return f.fail("create_many")
	}
	return f.MemoryCollection.CreateManyUnique(ctx, docs, clash)
}

func newFlakyStore() (*Store, *flakyCollection[model.Song]) {
	remote := NewMemoryStore(nil)
	songs := &flakyCollection[model.Song]{MemoryCollection: NewMemoryCollection[model.Song](CollSongs, nil)}
	remote.Songs = songs
	return remote, songs
}

func TestMirror_WritesThroughAndServesLocally(t *testing.T) {
	ctx := context.Background()
	remote, remoteSongs := newFlakyStore()
	require.NoError(t, remoteSongs.MemoryCollection.Create(ctx, model.Song{ID: "seed", Title: "Seed"}))

	store, mirror := NewMirror(remote, "me")
	require.NoError(t, mirror.Sync(ctx))

	seed, err := store.Songs.Get(ctx, "seed")
	require.NoError(t, err)
	assert.Equal(t, "Seed", seed.Title)

	require.NoError(t, store.Songs.Create(ctx, model.Song{ID: "s1", Title: "Live"}))
	_, err = remoteSongs.Get(ctx, "s1")
	assert.NoError(t, err, "write reached the remote")
	_, err = store.Songs.Get(ctx, "s1")
	assert.NoError(t, err, "write mirrored locally")
}

func TestMirror_DegradesToLocalOnRemoteFailure(t *testing.T) {
	ctx := context.Background()
	remote, remoteSongs := newFlakyStore()
	store, mirror := NewMirror(remote, "me")
	require.NoError(t, mirror.Sync(ctx))

	remoteSongs.down = true
	require.NoError(t, store.Songs.Create(ctx, model.Song{ID: "offline", Title: "Offline"}))

	local, err := store.Songs.Get(ctx, "offline")
	require.NoError(t, err)
	assert.Equal(t, "Offline", local.Title)

	_, err = remoteSongs.MemoryCollection.Get(ctx, "offline")
	assert.ErrorIs(t, err, ErrNotFound, "degraded writes are not persisted")

	local.Title = "Edited offline"
	require.NoError(t, store.Songs.Update(ctx, local))
	require.NoError(t, store.Songs.Delete(ctx, "offline"))
	_, err = store.Songs.Get(ctx, "offline")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMirror_ConflictsAreNotMasked(t *testing.T) {
	ctx := context.Background()
	remote, _ := newFlakyStore()
	store, _ := NewMirror(remote, "me")

	require.NoError(t, store.Songs.Create(ctx, model.Song{ID: "s1"}))
	assert.ErrorIs(t, store.Songs.Create(ctx, model.Song{ID: "s1"}), ErrConflict)
}

func TestMirror_WatchResyncsForeignChanges(t *testing.T) {
	ctx := context.Background()
	bus := realtime.NewLocalBus()
	remote, remoteSongs := newFlakyStore()
	store, mirror := NewMirror(remote, "me")
	require.NoError(t, mirror.Watch(ctx, bus))
	defer mirror.Close()

	// another instance writes straight to the remote and announces it
	require.NoError(t, remoteSongs.MemoryCollection.Create(ctx, model.Song{ID: "elsewhere"}))
	require.NoError(t, bus.Publish(ctx, realtime.Change{Collection: CollSongs, Op: realtime.OpCreate, ID: "elsewhere", Origin: "other"}))

	_, err := store.Songs.Get(ctx, "elsewhere")
	assert.NoError(t, err)
}
