// Package db exposes the document collections the rest of the service works
// against, with PostgreSQL, in-memory and mirrored implementations.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrConflict    = errors.New("document conflicts with an existing one")
	ErrRemoteWrite = errors.New("remote store write failed")
)

const (
	CollUsers          = "users"
	CollGroups         = "groups"
	CollSongs          = "songs"
	CollParticipations = "participations"
	CollSlots          = "instrumentSlots"
	CollSetlists       = "setlists"
	CollSetlistSongs   = "setlistSongs"
	CollArtists        = "artists"
	CollSongPdfs       = "songPdfs"
	CollRehearsals     = "rehearsals"
)

type Document interface {
	DocID() string
}

// Collection is a keyed set of documents. List returns documents in insertion
// order. The *Many methods are all-or-nothing.
type Collection[T Document] interface {
	Name() string
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, doc T) error
	// CreateUnique inserts doc unless an existing document clashes with it.
	// Memory collections evaluate clash under their lock; PostgreSQL relies on
	// the collection's unique index. Both report ErrConflict.
	CreateUnique(ctx context.Context, doc T, clash func(existing T) bool) error
	Update(ctx context.Context, doc T) error
	Delete(ctx context.Context, id string) error
	CreateMany(ctx context.Context, docs []T) error
	// CreateManyUnique is CreateMany where no doc may clash with an existing
	// document or with an earlier doc of the same batch. Checked like
	// CreateUnique.
	CreateManyUnique(ctx context.Context, docs []T, clash func(existing, incoming T) bool) error
	UpdateMany(ctx context.Context, docs []T) error
	// DeleteMany ignores ids that do not exist.
	DeleteMany(ctx context.Context, ids []string) error
}

type Store struct {
	Users          Collection[model.User]
	Groups         Collection[model.Group]
	Songs          Collection[model.Song]
	Participations Collection[model.Participation]
	Slots          Collection[model.InstrumentSlot]
	Setlists       Collection[model.Setlist]
	SetlistSongs   Collection[model.SetlistSong]
	Artists        Collection[model.Artist]
	SongPdfs       Collection[model.SongPdf]
	Rehearsals     Collection[model.Rehearsal]
}

func encode[T Document](doc T) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", doc.DocID(), err)
	}
	return b, nil
}

func decode[T Document](b []byte) (T, error) {
	var doc T
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Filter returns the documents of c that satisfy keep.
func Filter[T Document](ctx context.Context, c Collection[T], keep func(T) bool) ([]T, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, d := range all {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func IDs[T Document](docs []T) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.DocID()
	}
	return ids
}
