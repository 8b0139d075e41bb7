package band

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/lineup"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

func (s *Service) AddSlot(ctx context.Context, name, icon string) (model.InstrumentSlot, error) {
	slot, err := s.Slots.Add(ctx, name, icon)
	if errors.Is(err, lineup.ErrEmptySlotName) {
		return model.InstrumentSlot{}, invalid("name", "is required")
	}
	return slot, err
}

func (s *Service) DeleteSlot(ctx context.Context, id string, confirm bool) error {
	if err := RequireConfirm(confirm); err != nil {
		return err
	}
	return s.Slots.Delete(ctx, id)
}

// ParticipationView is a participation with its display name and slot.
type ParticipationView struct {
	model.Participation
	Display  lineup.DisplayIdentity `json:"display"`
	SlotName string                 `json:"slotName"`
}

// MarshalJSON flattens the participation's own wire form next to the view
// fields; the embedded MarshalJSON would otherwise hide them.
func (v ParticipationView) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(v.Participation)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	fields["display"] = v.Display
	fields["slotName"] = v.SlotName
	return json.Marshal(fields)
}

// SongLineup lists the participations of a song in slot order.
func (s *Service) SongLineup(ctx context.Context, songID string) ([]ParticipationView, error) {
	if _, err := s.store.Songs.Get(ctx, songID); err != nil {
		return nil, err
	}
	parts, err := s.Parts.ListForSong(ctx, songID)
	if err != nil {
		return nil, err
	}
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	artists, err := s.store.Artists.List(ctx)
	if err != nil {
		return nil, err
	}
	slots, err := s.Slots.List(ctx)
	if err != nil {
		return nil, err
	}
	rank := make(map[string]int, len(slots))
	names := make(map[string]string, len(slots))
	for i, sl := range slots {
		rank[sl.ID] = i
		names[sl.ID] = sl.Name
	}

	dir := lineup.NewDirectory(users, artists)
	out := make([]ParticipationView, 0, len(parts))
	for _, p := range parts {
		out = append(out, ParticipationView{Participation: p, Display: dir.Resolve(p), SlotName: names[p.SlotID]})
	}
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i].SlotID] < rank[out[j].SlotID] })
	return out, nil
}

func (s *Service) checkSongAndSlot(ctx context.Context, songID, slotID string) error {
	if _, err := s.store.Songs.Get(ctx, songID); err != nil {
		return fmt.Errorf("song %s: %w", songID, err)
	}
	if !s.Slots.Exists(ctx, slotID) {
		return fmt.Errorf("slot %s: %w", slotID, db.ErrNotFound)
	}
	return nil
}

// JoinSlot puts the current user on a slot of a song.
func (s *Service) JoinSlot(ctx context.Context, userID, songID, slotID string) (model.Participation, error) {
	if err := s.checkSongAndSlot(ctx, songID, slotID); err != nil {
		return model.Participation{}, err
	}
	return s.Parts.Assign(ctx, songID, slotID, model.UserIdentity(userID))
}

func (s *Service) LeaveSlot(ctx context.Context, userID, songID, slotID string) error {
	return s.Parts.Unassign(ctx, songID, slotID, model.UserIdentity(userID))
}

// AssignArtist places an artist on a slot. Artists that declare instruments
// can only take those slots.
func (s *Service) AssignArtist(ctx context.Context, songID, slotID, artistID string) (model.Participation, error) {
	if err := s.checkSongAndSlot(ctx, songID, slotID); err != nil {
		return model.Participation{}, err
	}
	a, err := s.store.Artists.Get(ctx, artistID)
	if err != nil {
		return model.Participation{}, fmt.Errorf("artist %s: %w", artistID, err)
	}
	if !a.Plays(slotID) {
		return model.Participation{}, invalid("artistId", "%s does not play %s", a.Name, slotID)
	}
	return s.Parts.Assign(ctx, songID, slotID, model.ArtistIdentity(artistID))
}

func (s *Service) RemoveArtist(ctx context.Context, songID, slotID, artistID string) error {
	return s.Parts.Unassign(ctx, songID, slotID, model.ArtistIdentity(artistID))
}

// Candidates lists the artists that may be offered for slotID on songID and
// are not already on it.
func (s *Service) Candidates(ctx context.Context, songID, slotID string) ([]model.Artist, error) {
	if err := s.checkSongAndSlot(ctx, songID, slotID); err != nil {
		return nil, err
	}
	taken, err := s.Parts.ListForSlot(ctx, songID, slotID)
	if err != nil {
		return nil, err
	}
	busy := make(map[string]bool, len(taken))
	for _, p := range taken {
		if p.Identity.Kind() == model.IdentityArtist {
			busy[p.Identity.ID()] = true
		}
	}
	artists, err := s.Artists(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Artist, 0, len(artists))
	for _, a := range artists {
		if a.Plays(slotID) && !busy[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

// SetComment edits the note on a participation. Users may always edit their
// own; anything else follows the song's management rule.
func (s *Service) SetComment(ctx context.Context, userID, participationID, comment string) (model.Participation, error) {
	p, err := s.Parts.Get(ctx, participationID)
	if err != nil {
		return model.Participation{}, err
	}
	if p.Identity != model.UserIdentity(userID) {
		song, err := s.store.Songs.Get(ctx, p.SongID)
		if err != nil {
			return model.Participation{}, fmt.Errorf("song %s: %w", p.SongID, err)
		}
		if err := s.canManage(ctx, userID, song); err != nil {
			return model.Participation{}, err
		}
	}
	return s.Parts.SetComment(ctx, participationID, comment)
}
