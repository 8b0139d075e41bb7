package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/realtime"
	"github.com/rs/zerolog/log"
)

type memEntry struct {
	seq  uint64
	body []byte
}

// MemoryCollection keeps encoded documents in a map, so callers never share
// slices or maps with stored state.
type MemoryCollection[T Document] struct {
	name string
	pub  realtime.Publisher

	mu   sync.RWMutex
	seq  uint64
	docs map[string]memEntry
}

func NewMemoryCollection[T Document](name string, pub realtime.Publisher) *MemoryCollection[T] {
	return &MemoryCollection[T]{name: name, pub: pub, docs: make(map[string]memEntry)}
}

// NewMemoryStore builds a Store whose collections live in process memory.
// pub may be nil.
func NewMemoryStore(pub realtime.Publisher) *Store {
	return &Store{
		Users:          NewMemoryCollection[model.User](CollUsers, pub),
		Groups:         NewMemoryCollection[model.Group](CollGroups, pub),
		Songs:          NewMemoryCollection[model.Song](CollSongs, pub),
		Participations: NewMemoryCollection[model.Participation](CollParticipations, pub),
		Slots:          NewMemoryCollection[model.InstrumentSlot](CollSlots, pub),
		Setlists:       NewMemoryCollection[model.Setlist](CollSetlists, pub),
		SetlistSongs:   NewMemoryCollection[model.SetlistSong](CollSetlistSongs, pub),
		Artists:        NewMemoryCollection[model.Artist](CollArtists, pub),
		SongPdfs:       NewMemoryCollection[model.SongPdf](CollSongPdfs, pub),
		Rehearsals:     NewMemoryCollection[model.Rehearsal](CollRehearsals, pub),
	}
}

func (m *MemoryCollection[T]) Name() string { return m.name }

func (m *MemoryCollection[T]) List(_ context.Context) ([]T, error) {
	m.mu.RLock()
	entries := make([]memEntry, 0, len(m.docs))
	for _, e := range m.docs {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		doc, err := decode[T](e.body)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (m *MemoryCollection[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	e, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return decode[T](e.body)
}

func (m *MemoryCollection[T]) Create(ctx context.Context, doc T) error {
	return m.CreateUnique(ctx, doc, nil)
}

func (m *MemoryCollection[T]) CreateUnique(ctx context.Context, doc T, clash func(T) bool) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, exists := m.docs[doc.DocID()]; exists {
		m.mu.Unlock()
		return ErrConflict
	}
	if clash != nil {
		for _, e := range m.docs {
			existing, err := decode[T](e.body)
			if err != nil {
				m.mu.Unlock()
				return err
			}
			if clash(existing) {
				m.mu.Unlock()
				return ErrConflict
			}
		}
	}
	m.insertLocked(doc.DocID(), body)
	m.mu.Unlock()

	m.publish(ctx, realtime.OpCreate, doc.DocID())
	return nil
}

func (m *MemoryCollection[T]) Update(ctx context.Context, doc T) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	e, ok := m.docs[doc.DocID()]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.docs[doc.DocID()] = memEntry{seq: e.seq, body: body}
	m.mu.Unlock()

	m.publish(ctx, realtime.OpUpdate, doc.DocID())
	return nil
}

func (m *MemoryCollection[T]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.docs[id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.docs, id)
	m.mu.Unlock()

	m.publish(ctx, realtime.OpDelete, id)
	return nil
}

func (m *MemoryCollection[T]) CreateMany(ctx context.Context, docs []T) error {
	return m.CreateManyUnique(ctx, docs, nil)
}

func (m *MemoryCollection[T]) CreateManyUnique(ctx context.Context, docs []T, clash func(existing, incoming T) bool) error {
	if len(docs) == 0 {
		return nil
	}
	bodies, err := encodeAll(docs)
	if err != nil {
		return err
	}

	m.mu.Lock()
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		if _, exists := m.docs[d.DocID()]; exists || seen[d.DocID()] {
			m.mu.Unlock()
			return ErrConflict
		}
		seen[d.DocID()] = true
	}
	if clash != nil {
		if err := m.clashLocked(docs, clash); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	for i, d := range docs {
		m.insertLocked(d.DocID(), bodies[i])
	}
	m.mu.Unlock()

	m.publish(ctx, realtime.OpBatch, "")
	return nil
}

// clashLocked reports ErrConflict when any of docs clashes with a stored
// document or an earlier entry of docs.
func (m *MemoryCollection[T]) clashLocked(docs []T, clash func(existing, incoming T) bool) error {
	stored := make([]T, 0, len(m.docs))
	for _, e := range m.docs {
		doc, err := decode[T](e.body)
		if err != nil {
			return err
		}
		stored = append(stored, doc)
	}
	for i, d := range docs {
		for _, existing := range stored {
			if clash(existing, d) {
				return ErrConflict
			}
		}
		for _, earlier := range docs[:i] {
			if clash(earlier, d) {
				return ErrConflict
			}
		}
	}
	return nil
}

func (m *MemoryCollection[T]) UpdateMany(ctx context.Context, docs []T) error {
	if len(docs) == 0 {
		return nil
	}
	bodies, err := encodeAll(docs)
	if err != nil {
		return err
	}

	m.mu.Lock()
	for _, d := range docs {
		if _, ok := m.docs[d.DocID()]; !ok {
			m.mu.Unlock()
			return ErrNotFound
		}
	}
	for i, d := range docs {
		e := m.docs[d.DocID()]
		m.docs[d.DocID()] = memEntry{seq: e.seq, body: bodies[i]}
	}
	m.mu.Unlock()

	m.publish(ctx, realtime.OpBatch, "")
	return nil
}

func (m *MemoryCollection[T]) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	m.mu.Lock()
	for _, id := range ids {
		delete(m.docs, id)
	}
	m.mu.Unlock()

	m.publish(ctx, realtime.OpBatch, "")
	return nil
}

// Replace swaps the whole content for docs, keeping their order.
func (m *MemoryCollection[T]) Replace(docs []T) error {
	bodies, err := encodeAll(docs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs = make(map[string]memEntry, len(docs))
	for i, d := range docs {
		m.insertLocked(d.DocID(), bodies[i])
	}
	m.mu.Unlock()
	return nil
}

// put inserts or overwrites doc without announcing it.
func (m *MemoryCollection[T]) put(doc T) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if e, ok := m.docs[doc.DocID()]; ok {
		m.docs[doc.DocID()] = memEntry{seq: e.seq, body: body}
	} else {
		m.insertLocked(doc.DocID(), body)
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCollection[T]) remove(ids ...string) {
	m.mu.Lock()
	for _, id := range ids {
		delete(m.docs, id)
	}
	m.mu.Unlock()
}

func (m *MemoryCollection[T]) insertLocked(id string, body []byte) {
	m.seq++
	m.docs[id] = memEntry{seq: m.seq, body: body}
}

func (m *MemoryCollection[T]) publish(ctx context.Context, op realtime.Op, id string) {
	if m.pub == nil {
		return
	}
	c := realtime.Change{Collection: m.name, Op: op, ID: id, At: time.Now().UTC()}
	if err := m.pub.Publish(ctx, c); err != nil {
		log.Warn().Err(err).Str("collection", m.name).Msg("[db] memory: publish change failed")
	}
}

func encodeAll[T Document](docs []T) ([][]byte, error) {
	bodies := make([][]byte, len(docs))
	for i, d := range docs {
		b, err := encode(d)
		if err != nil {
			return nil, err
		}
		bodies[i] = b
	}
	return bodies, nil
}
