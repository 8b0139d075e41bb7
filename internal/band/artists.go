package band

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/lineup"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

type ArtistInput struct {
	Name    string
	SlotIDs []string
}

// Artists returns every artist ordered by name.
func (s *Service) Artists(ctx context.Context) ([]model.Artist, error) {
	artists, err := s.store.Artists.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(artists, func(i, j int) bool {
		return strings.ToLower(artists[i].Name) < strings.ToLower(artists[j].Name)
	})
	return artists, nil
}

func (s *Service) Artist(ctx context.Context, id string) (model.Artist, error) {
	return s.store.Artists.Get(ctx, id)
}

func (s *Service) artistFromInput(ctx context.Context, in ArtistInput) (model.Artist, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Artist{}, invalid("name", "is required")
	}
	a := model.Artist{Name: name, Instruments: []model.ArtistInstrument{}}
	seen := make(map[string]bool, len(in.SlotIDs))
	for _, id := range in.SlotIDs {
		if seen[id] {
			continue
		}
		if !s.Slots.Exists(ctx, id) {
			return model.Artist{}, invalid("instruments", "unknown slot %q", id)
		}
		seen[id] = true
		a.Instruments = append(a.Instruments, model.ArtistInstrument{SlotID: id})
	}
	return a, nil
}

func (s *Service) CreateArtist(ctx context.Context, in ArtistInput) (model.Artist, error) {
	a, err := s.artistFromInput(ctx, in)
	if err != nil {
		return model.Artist{}, err
	}
	a.ID = s.newID()
	if err := s.store.Artists.Create(ctx, a); err != nil {
		return model.Artist{}, err
	}
	return a, nil
}

// UpdateArtist replaces name and instruments. Existing participations on
// slots the artist no longer declares are kept.
func (s *Service) UpdateArtist(ctx context.Context, id string, in ArtistInput) (model.Artist, error) {
	if _, err := s.store.Artists.Get(ctx, id); err != nil {
		return model.Artist{}, err
	}
	a, err := s.artistFromInput(ctx, in)
	if err != nil {
		return model.Artist{}, err
	}
	a.ID = id
	if err := s.store.Artists.Update(ctx, a); err != nil {
		return model.Artist{}, err
	}
	return a, nil
}

// DeleteArtist removes the artist, their participations and their rehearsal
// attendance entries.
func (s *Service) DeleteArtist(ctx context.Context, id string, confirm bool) error {
	if err := RequireConfirm(confirm); err != nil {
		return err
	}
	if err := s.store.Artists.Delete(ctx, id); err != nil {
		return err
	}
	removed, err := s.Parts.DeleteForIdentity(ctx, model.ArtistIdentity(id))
	if err != nil {
		return err
	}
	rehearsals, err := db.Filter(ctx, s.store.Rehearsals, func(r model.Rehearsal) bool {
		_, ok := r.ArtistAttendees[id]
		return ok
	})
	if err != nil {
		return err
	}
	for i := range rehearsals {
		delete(rehearsals[i].ArtistAttendees, id)
	}
	if err := s.store.Rehearsals.UpdateMany(ctx, rehearsals); err != nil {
		return err
	}
	log.Info().Str("artist_id", id).Int("participations", removed).Msg("[band] artist deleted")
	return nil
}

// snapshot loads the report inputs, restricted to one group's songs when
// groupID is set.
func (s *Service) snapshot(ctx context.Context, groupID string) (lineup.Snapshot, error) {
	snap, err := lineup.LoadSnapshot(ctx, s.store)
	if err != nil {
		return snap, err
	}
	if groupID != "" {
		snap = snap.OnlySongs(func(song model.Song) bool {
			return song.OwnerGroupID != nil && *song.OwnerGroupID == groupID
		})
	}
	return snap, nil
}

func (s *Service) ArtistPositioning(ctx context.Context, groupID string) ([]lineup.ArtistPosition, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return lineup.ArtistPositioning(snap), nil
}

func (s *Service) PositioningSheet(ctx context.Context, groupID string) (lineup.PositioningSheet, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return lineup.PositioningSheet{}, err
	}
	return lineup.BuildPositioningSheet(snap), nil
}
