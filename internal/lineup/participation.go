package lineup

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/metrics"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

var ErrDuplicateAssignment = errors.New("identity is already assigned to this slot")

// Assignment names one identity on one slot of one song.
type Assignment struct {
	SongID   string
	SlotID   string
	Identity model.Identity
}

func (a Assignment) key() string {
	return a.SongID + "|" + a.SlotID + "|" + a.Identity.Key()
}

func (a Assignment) matches(p model.Participation) bool {
	return p.SongID == a.SongID && p.SlotID == a.SlotID && p.Identity == a.Identity
}

func assignmentOf(p model.Participation) Assignment {
	return Assignment{SongID: p.SongID, SlotID: p.SlotID, Identity: p.Identity}
}

type Participations struct {
	parts db.Collection[model.Participation]
	newID func() string
}

func NewParticipations(store *db.Store) *Participations {
	return &Participations{parts: store.Participations, newID: uuid.NewString}
}

// Assign records a new participation with an empty comment. The uniqueness of
// (song, slot, identity) is checked by the store as part of the insert.
func (m *Participations) Assign(ctx context.Context, songID, slotID string, ident model.Identity) (model.Participation, error) {
	if ident.IsZero() {
		return model.Participation{}, model.ErrMissingIdentity
	}
	a := Assignment{SongID: songID, SlotID: slotID, Identity: ident}
	p := model.Participation{ID: m.newID(), SongID: songID, SlotID: slotID, Identity: ident}

	err := m.parts.CreateUnique(ctx, p, a.matches)
	switch {
	case err == nil:
		metrics.Assignments.WithLabelValues("created").Inc()
		return p, nil
	case errors.Is(err, db.ErrConflict):
		metrics.Assignments.WithLabelValues("duplicate").Inc()
		return model.Participation{}, ErrDuplicateAssignment
	default:
		metrics.Assignments.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("song_id", songID).Str("slot_id", slotID).
			Str("identity", ident.Key()).Msg("[lineup] Assign: create failed")
		return model.Participation{}, err
	}
}

// Unassign removes the matching participation. Nothing to remove is not an
// error.
func (m *Participations) Unassign(ctx context.Context, songID, slotID string, ident model.Identity) error {
	a := Assignment{SongID: songID, SlotID: slotID, Identity: ident}
	_, err := deleteParticipations(ctx, m.parts, a.matches)
	return err
}

func (m *Participations) All(ctx context.Context) ([]model.Participation, error) {
	return m.parts.List(ctx)
}

func (m *Participations) Get(ctx context.Context, id string) (model.Participation, error) {
	return m.parts.Get(ctx, id)
}

func (m *Participations) ListForSong(ctx context.Context, songID string) ([]model.Participation, error) {
	return db.Filter(ctx, m.parts, func(p model.Participation) bool { return p.SongID == songID })
}

func (m *Participations) ListForSlot(ctx context.Context, songID, slotID string) ([]model.Participation, error) {
	return db.Filter(ctx, m.parts, func(p model.Participation) bool {
		return p.SongID == songID && p.SlotID == slotID
	})
}

// assignRetries bounds how often AssignMany rebuilds its batch after a
// concurrent write claimed one of its triples.
const assignRetries = 3

func sameTriple(existing, incoming model.Participation) bool {
	return assignmentOf(existing) == assignmentOf(incoming)
}

// AssignMany writes every assignment not already present in one batch.
// Existing triples and repeats inside the batch are skipped, so the returned
// slice only holds rows created by this call. The store rejects the batch if
// a triple was taken meanwhile; the batch is then rebuilt from fresh data.
func (m *Participations) AssignMany(ctx context.Context, batch []Assignment) ([]model.Participation, error) {
	for _, a := range batch {
		if a.Identity.IsZero() {
			return nil, model.ErrMissingIdentity
		}
	}
	for attempt := 1; ; attempt++ {
		created, err := m.pending(ctx, batch)
		if err != nil || len(created) == 0 {
			return created, err
		}

		err = m.parts.CreateManyUnique(ctx, created, sameTriple)
		switch {
		case err == nil:
			metrics.Assignments.WithLabelValues("created").Add(float64(len(created)))
			return created, nil
		case errors.Is(err, db.ErrConflict):
			metrics.Assignments.WithLabelValues("duplicate").Inc()
			if attempt < assignRetries {
				log.Debug().Int("attempt", attempt).Msg("[lineup] AssignMany: batch raced another write, retrying")
				continue
			}
			return nil, fmt.Errorf("assign batch: %w", ErrDuplicateAssignment)
		default:
			metrics.Assignments.WithLabelValues("error").Inc()
			log.Error().Err(err).Int("count", len(created)).Msg("[lineup] AssignMany: batch create failed")
			return nil, err
		}
	}
}

// pending builds the participations of batch that are not stored yet.
func (m *Participations) pending(ctx context.Context, batch []Assignment) ([]model.Participation, error) {
	existing, err := m.parts.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing)+len(batch))
	for _, p := range existing {
		seen[assignmentOf(p).key()] = true
	}
	created := make([]model.Participation, 0, len(batch))
	for _, a := range batch {
		k := a.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		created = append(created, model.Participation{
			ID: m.newID(), SongID: a.SongID, SlotID: a.SlotID, Identity: a.Identity,
		})
	}
	return created, nil
}

func (m *Participations) SetComment(ctx context.Context, id, comment string) (model.Participation, error) {
	p, err := m.parts.Get(ctx, id)
	if err != nil {
		return model.Participation{}, err
	}
	p.Comment = comment
	if err := m.parts.Update(ctx, p); err != nil {
		return model.Participation{}, err
	}
	return p, nil
}

func (m *Participations) DeleteForSong(ctx context.Context, songID string) (int, error) {
	return deleteParticipations(ctx, m.parts, func(p model.Participation) bool { return p.SongID == songID })
}

func (m *Participations) DeleteForSlot(ctx context.Context, slotID string) (int, error) {
	return deleteParticipations(ctx, m.parts, func(p model.Participation) bool { return p.SlotID == slotID })
}

// DeleteForIdentity drops every participation of ident, used when an artist
// or user is removed.
func (m *Participations) DeleteForIdentity(ctx context.Context, ident model.Identity) (int, error) {
	return deleteParticipations(ctx, m.parts, func(p model.Participation) bool { return p.Identity == ident })
}

func deleteParticipations(ctx context.Context, parts db.Collection[model.Participation], match func(model.Participation) bool) (int, error) {
	doomed, err := db.Filter(ctx, parts, match)
	if err != nil {
		return 0, err
	}
	if len(doomed) == 0 {
		return 0, nil
	}
	if err := parts.DeleteMany(ctx, db.IDs(doomed)); err != nil {
		return 0, err
	}
	return len(doomed), nil
}
