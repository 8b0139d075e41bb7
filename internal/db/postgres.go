package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/realtime"
)

const uniqueViolation = "23505"

// tables maps collection names to their PostgreSQL tables.
var tables = map[string]string{
	CollUsers:          "users",
	CollGroups:         "band_groups",
	CollSongs:          "songs",
	CollParticipations: "participations",
	CollSlots:          "instrument_slots",
	CollSetlists:       "setlists",
	CollSetlistSongs:   "setlist_songs",
	CollArtists:        "artists",
	CollSongPdfs:       "song_pdfs",
	CollRehearsals:     "rehearsals",
}

// PgCollection stores each document as a JSONB body keyed by id.
type PgCollection[T Document] struct {
	db     *sqlx.DB
	name   string
	table  string
	pub    realtime.Publisher
	origin string
}

func NewPgCollection[T Document](conn *sqlx.DB, name string, pub realtime.Publisher, origin string) *PgCollection[T] {
	table, ok := tables[name]
	if !ok {
		panic(fmt.Sprintf("db: no table for collection %q", name))
	}
	return &PgCollection[T]{db: conn, name: name, table: table, pub: pub, origin: origin}
}

// NewPostgresStore builds a Store backed by conn. Changes are announced on pub
// (which may be nil) tagged with origin.
func NewPostgresStore(conn *sqlx.DB, pub realtime.Publisher, origin string) *Store {
	return &Store{
		Users:          NewPgCollection[model.User](conn, CollUsers, pub, origin),
		Groups:         NewPgCollection[model.Group](conn, CollGroups, pub, origin),
		Songs:          NewPgCollection[model.Song](conn, CollSongs, pub, origin),
		Participations: NewPgCollection[model.Participation](conn, CollParticipations, pub, origin),
		Slots:          NewPgCollection[model.InstrumentSlot](conn, CollSlots, pub, origin),
		Setlists:       NewPgCollection[model.Setlist](conn, CollSetlists, pub, origin),
		SetlistSongs:   NewPgCollection[model.SetlistSong](conn, CollSetlistSongs, pub, origin),
		Artists:        NewPgCollection[model.Artist](conn, CollArtists, pub, origin),
		SongPdfs:       NewPgCollection[model.SongPdf](conn, CollSongPdfs, pub, origin),
		Rehearsals:     NewPgCollection[model.Rehearsal](conn, CollRehearsals, pub, origin),
	}
}

func (p *PgCollection[T]) Name() string { return p.name }

func (p *PgCollection[T]) List(ctx context.Context) ([]T, error) {
	var bodies [][]byte
	q := fmt.Sprintf(`SELECT body FROM %s ORDER BY seq;`, p.table)
	if err := p.db.SelectContext(ctx, &bodies, q); err != nil {
		log.Error().Err(err).Str("table", p.table).Msg("[db] List: select failed")
		return nil, err
	}
	out := make([]T, 0, len(bodies))
	for _, b := range bodies {
		doc, err := decode[T](b)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (p *PgCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var body []byte
	q := fmt.Sprintf(`SELECT body FROM %s WHERE id = $1;`, p.table)
	if err := p.db.GetContext(ctx, &body, q, id); err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNotFound
		}
		log.Error().Err(err).Str("table", p.table).Str("id", id).Msg("[db] Get: select failed")
		return zero, err
	}
	return decode[T](body)
}

func (p *PgCollection[T]) Create(ctx context.Context, doc T) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, body, updated_at) VALUES ($1, $2, now());`, p.table)
	if _, err := p.db.ExecContext(ctx, q, doc.DocID(), body); err != nil {
		return p.writeErr("Create", err)
	}
	p.publish(ctx, realtime.OpCreate, doc.DocID())
	return nil
}

// CreateUnique leaves clash detection to the table's unique indexes.
func (p *PgCollection[T]) CreateUnique(ctx context.Context, doc T, _ func(T) bool) error {
	return p.Create(ctx, doc)
}

func (p *PgCollection[T]) Update(ctx context.Context, doc T) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE %s SET body = $2, updated_at = now() WHERE id = $1;`, p.table)
	res, err := p.db.ExecContext(ctx, q, doc.DocID(), body)
	if err != nil {
		return p.writeErr("Update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	p.publish(ctx, realtime.OpUpdate, doc.DocID())
	return nil
}

func (p *PgCollection[T]) Delete(ctx context.Context, id string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1;`, p.table)
	res, err := p.db.ExecContext(ctx, q, id)
	if err != nil {
		return p.writeErr("Delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	p.publish(ctx, realtime.OpDelete, id)
	return nil
}

func (p *PgCollection[T]) CreateMany(ctx context.Context, docs []T) error {
	if len(docs) == 0 {
		return nil
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, body, updated_at) VALUES ($1, $2, now());`, p.table)
	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, d := range docs {
			body, err := encode(d)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, q, d.DocID(), body); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return p.writeErr("CreateMany", err)
	}
	p.publish(ctx, realtime.OpBatch, "")
	return nil
}

// CreateManyUnique leaves clash detection to the table's unique indexes; the
// whole batch rolls back on the first violation.
func (p *PgCollection[T]) CreateManyUnique(ctx context.Context, docs []T, _ func(existing, incoming T) bool) error {
	return p.CreateMany(ctx, docs)
}

func (p *PgCollection[T]) UpdateMany(ctx context.Context, docs []T) error {
	if len(docs) == 0 {
		return nil
	}
	q := fmt.Sprintf(`UPDATE %s SET body = $2, updated_at = now() WHERE id = $1;`, p.table)
	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, d := range docs {
			body, err := encode(d)
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, q, d.DocID(), body)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
	if err != nil {
		return p.writeErr("UpdateMany", err)
	}
	p.publish(ctx, realtime.OpBatch, "")
	return nil
}

func (p *PgCollection[T]) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1);`, p.table)
	if _, err := p.db.ExecContext(ctx, q, pq.Array(ids)); err != nil {
		return p.writeErr("DeleteMany", err)
	}
	p.publish(ctx, realtime.OpBatch, "")
	return nil
}

func (p *PgCollection[T]) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Str("table", p.table).Msg("[db] rollback failed")
			}
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// writeErr keeps ErrNotFound and unique violations distinguishable and
// marks everything else as a remote write failure.
func (p *PgCollection[T]) writeErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrConflict
	}
	log.Error().Err(err).Str("table", p.table).Msgf("[db] %s failed", op)
	return fmt.Errorf("%w: %s %s: %v", ErrRemoteWrite, op, p.table, err)
}

func (p *PgCollection[T]) publish(ctx context.Context, op realtime.Op, id string) {
	if p.pub == nil {
		return
	}
	c := realtime.Change{Collection: p.name, Op: op, ID: id, Origin: p.origin, At: time.Now().UTC()}
	if err := p.pub.Publish(ctx, c); err != nil {
		log.Warn().Err(err).Str("collection", p.name).Msg("[db] publish change failed")
	}
}
