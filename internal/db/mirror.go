package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/metrics"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/realtime"
)

// Mirror fronts a remote Store with a local in-memory copy. Reads are served
// from the copy. Writes go to the remote first and are mirrored locally on
// success; when the remote write fails the change is applied to the copy only
// and is neither persisted nor broadcast.
type Mirror struct {
	origin string

	mu      sync.Mutex
	syncers map[string]func(ctx context.Context) error
	cancel  func()
}

// NewMirror wraps remote. origin must match the origin remote stamps on its
// own changes so Watch can skip them.
func NewMirror(remote *Store, origin string) (*Store, *Mirror) {
	m := &Mirror{origin: origin, syncers: make(map[string]func(context.Context) error)}
	return &Store{
		Users:          mirrorOf(m, remote.Users),
		Groups:         mirrorOf(m, remote.Groups),
		Songs:          mirrorOf(m, remote.Songs),
		Participations: mirrorOf(m, remote.Participations),
		Slots:          mirrorOf(m, remote.Slots),
		Setlists:       mirrorOf(m, remote.Setlists),
		SetlistSongs:   mirrorOf(m, remote.SetlistSongs),
		Artists:        mirrorOf(m, remote.Artists),
		SongPdfs:       mirrorOf(m, remote.SongPdfs),
		Rehearsals:     mirrorOf(m, remote.Rehearsals),
	}, m
}

// Sync reloads every collection from the remote.
func (m *Mirror) Sync(ctx context.Context) error {
	m.mu.Lock()
	syncers := make(map[string]func(context.Context) error, len(m.syncers))
	for k, v := range m.syncers {
		syncers[k] = v
	}
	m.mu.Unlock()

	for name, fn := range syncers {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("sync %s: %w", name, err)
		}
	}
	return nil
}

// SyncCollection reloads one collection from the remote.
func (m *Mirror) SyncCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	fn, ok := m.syncers[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown collection %q", name)
	}
	return fn(ctx)
}

// Watch rebuilds a collection every time another process announces a change
// to it on bus.
func (m *Mirror) Watch(ctx context.Context, bus realtime.Bus) error {
	cancel, err := bus.Subscribe(ctx, func(c realtime.Change) {
		if c.Origin == m.origin {
			return
		}
		if err := m.SyncCollection(ctx, c.Collection); err != nil {
			log.Warn().Err(err).Str("collection", c.Collection).Msg("[db] mirror: resync failed")
		}
	})
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
	return nil
}

func (m *Mirror) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

type mirrorCollection[T Document] struct {
	remote Collection[T]
	local  *MemoryCollection[T]
}

func mirrorOf[T Document](m *Mirror, remote Collection[T]) Collection[T] {
	mc := &mirrorCollection[T]{
		remote: remote,
		local:  NewMemoryCollection[T](remote.Name(), nil),
	}
	m.syncers[remote.Name()] = mc.sync
	return mc
}

func (c *mirrorCollection[T]) sync(ctx context.Context) error {
	docs, err := c.remote.List(ctx)
	if err != nil {
		return err
	}
	return c.local.Replace(docs)
}

func (c *mirrorCollection[T]) degraded(op string, err error) {
	metrics.DegradedWrites.WithLabelValues(c.Name(), op).Inc()
	log.Warn().Err(err).Str("collection", c.Name()).Str("op", op).
		Msg("[db] mirror: remote write failed, applied locally only")
}

func isRemoteFailure(err error) bool { return errors.Is(err, ErrRemoteWrite) }

func (c *mirrorCollection[T]) Name() string { return c.remote.Name() }

func (c *mirrorCollection[T]) List(ctx context.Context) ([]T, error) {
	return c.local.List(ctx)
}

func (c *mirrorCollection[T]) Get(ctx context.Context, id string) (T, error) {
	return c.local.Get(ctx, id)
}

func (c *mirrorCollection[T]) Create(ctx context.Context, doc T) error {
	return c.CreateUnique(ctx, doc, nil)
}

func (c *mirrorCollection[T]) CreateUnique(ctx context.Context, doc T, clash func(T) bool) error {
	err := c.remote.CreateUnique(ctx, doc, clash)
	switch {
	case err == nil:
		return c.local.put(doc)
	case isRemoteFailure(err):
		c.degraded("create", err)
		return c.local.CreateUnique(ctx, doc, clash)
	default:
		return err
	}
}

func (c *mirrorCollection[T]) Update(ctx context.Context, doc T) error {
	err := c.remote.Update(ctx, doc)
	switch {
	case err == nil:
		return c.local.put(doc)
	case isRemoteFailure(err):
		c.degraded("update", err)
		return c.local.Update(ctx, doc)
	case errors.Is(err, ErrNotFound):
		// may exist locally from an earlier degraded create
		return c.local.Update(ctx, doc)
	default:
		return err
	}
}

func (c *mirrorCollection[T]) Delete(ctx context.Context, id string) error {
	err := c.remote.Delete(ctx, id)
	switch {
	case err == nil:
		c.local.remove(id)
		return nil
	case isRemoteFailure(err):
		c.degraded("delete", err)
		return c.local.Delete(ctx, id)
	case errors.Is(err, ErrNotFound):
		return c.local.Delete(ctx, id)
	default:
		return err
	}
}

func (c *mirrorCollection[T]) CreateMany(ctx context.Context, docs []T) error {
	return c.CreateManyUnique(ctx, docs, nil)
}

func (c *mirrorCollection[T]) CreateManyUnique(ctx context.Context, docs []T, clash func(existing, incoming T) bool) error {
	err := c.remote.CreateManyUnique(ctx, docs, clash)
	switch {
	case err == nil:
		for _, d := range docs {
			if err := c.local.put(d); err != nil {
				return err
			}
		}
		return nil
	case isRemoteFailure(err):
		c.degraded("create_many", err)
		return c.local.CreateManyUnique(ctx, docs, clash)
	default:
		return err
	}
}

func (c *mirrorCollection[T]) UpdateMany(ctx context.Context, docs []T) error {
	err := c.remote.UpdateMany(ctx, docs)
	switch {
	case err == nil:
		for _, d := range docs {
			if err := c.local.put(d); err != nil {
				return err
			}
		}
		return nil
	case isRemoteFailure(err):
		c.degraded("update_many", err)
		return c.local.UpdateMany(ctx, docs)
	default:
		return err
	}
}

func (c *mirrorCollection[T]) DeleteMany(ctx context.Context, ids []string) error {
	err := c.remote.DeleteMany(ctx, ids)
	switch {
	case err == nil:
		c.local.remove(ids...)
		return nil
	case isRemoteFailure(err):
		c.degraded("delete_many", err)
		return c.local.DeleteMany(ctx, ids)
	default:
		return err
	}
}

var _ Collection[model.Song] = (*mirrorCollection[model.Song])(nil)
var _ Collection[model.Song] = (*MemoryCollection[model.Song])(nil)
var _ Collection[model.Song] = (*PgCollection[model.Song])(nil)
