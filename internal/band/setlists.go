package band

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/lineup"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

type SetlistEntry struct {
	model.SetlistSong
	Song     model.Song `json:"song"`
	Playable bool       `json:"playable"`
}

type SetlistView struct {
	model.Setlist
	Songs    []SetlistEntry `json:"songs"`
	Duration string         `json:"duration"`
}

// setlistFor loads a setlist userID is allowed to change: their own, or one
// of a group they belong to.
func (s *Service) setlistFor(ctx context.Context, userID, id string) (model.Setlist, error) {
	sl, err := s.store.Setlists.Get(ctx, id)
	if err != nil {
		return model.Setlist{}, err
	}
	if sl.GroupID != nil {
		if _, err := s.memberOf(ctx, userID, *sl.GroupID); err != nil {
			return model.Setlist{}, err
		}
		return sl, nil
	}
	if sl.CreatedBy != userID {
		return model.Setlist{}, ErrUnauthorized
	}
	return sl, nil
}

func (s *Service) ListSetlists(ctx context.Context, userID string) ([]model.Setlist, error) {
	u, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return db.Filter(ctx, s.store.Setlists, func(sl model.Setlist) bool {
		if sl.GroupID != nil {
			return u.InGroup(*sl.GroupID)
		}
		return sl.CreatedBy == userID
	})
}

func (s *Service) CreateSetlist(ctx context.Context, userID, name string, groupID *string) (model.Setlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Setlist{}, invalid("name", "is required")
	}
	if groupID != nil && *groupID == "" {
		groupID = nil
	}
	if groupID != nil {
		if _, err := s.memberOf(ctx, userID, *groupID); err != nil {
			return model.Setlist{}, err
		}
	}
	sl := model.Setlist{ID: s.newID(), Name: name, GroupID: groupID, CreatedBy: userID, CreatedAt: s.now()}
	if err := s.store.Setlists.Create(ctx, sl); err != nil {
		return model.Setlist{}, err
	}
	return sl, nil
}

func (s *Service) RenameSetlist(ctx context.Context, userID, id, name string) (model.Setlist, error) {
	sl, err := s.setlistFor(ctx, userID, id)
	if err != nil {
		return model.Setlist{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Setlist{}, invalid("name", "is required")
	}
	sl.Name = name
	if err := s.store.Setlists.Update(ctx, sl); err != nil {
		return model.Setlist{}, err
	}
	return sl, nil
}

// DeleteSetlist removes the setlist and its entries and unlinks it from
// rehearsals.
func (s *Service) DeleteSetlist(ctx context.Context, userID, id string, confirm bool) error {
	if err := RequireConfirm(confirm); err != nil {
		return err
	}
	if _, err := s.setlistFor(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.Setlists.Delete(ctx, id); err != nil {
		return err
	}
	entries, err := s.entries(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SetlistSongs.DeleteMany(ctx, db.IDs(entries)); err != nil {
		return err
	}
	linked, err := db.Filter(ctx, s.store.Rehearsals, func(r model.Rehearsal) bool {
		return r.SetlistID != nil && *r.SetlistID == id
	})
	if err != nil {
		return err
	}
	for i := range linked {
		linked[i].SetlistID = nil
	}
	return s.store.Rehearsals.UpdateMany(ctx, linked)
}

// entries returns the rows of a setlist in position order.
func (s *Service) entries(ctx context.Context, setlistID string) ([]model.SetlistSong, error) {
	rows, err := db.Filter(ctx, s.store.SetlistSongs, func(e model.SetlistSong) bool { return e.SetlistID == setlistID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })
	return rows, nil
}

func (s *Service) Setlist(ctx context.Context, userID, id string) (SetlistView, error) {
	sl, err := s.setlistFor(ctx, userID, id)
	if err != nil {
		return SetlistView{}, err
	}
	entries, err := s.entries(ctx, id)
	if err != nil {
		return SetlistView{}, err
	}
	parts, err := s.Parts.All(ctx)
	if err != nil {
		return SetlistView{}, err
	}
	view := SetlistView{Setlist: sl, Songs: []SetlistEntry{}}
	var songs []model.Song
	for _, e := range entries {
		song, err := s.store.Songs.Get(ctx, e.SongID)
		if err != nil {
			continue
		}
		songs = append(songs, song)
		view.Songs = append(view.Songs, SetlistEntry{SetlistSong: e, Song: song, Playable: lineup.IsPlayable(song.ID, parts)})
	}
	view.Duration = lineup.FormatDuration(lineup.SetlistDuration(songs))
	return view, nil
}

// AddToSetlist appends songID at the end of the setlist.
func (s *Service) AddToSetlist(ctx context.Context, userID, setlistID, songID string) (model.SetlistSong, error) {
	if _, err := s.setlistFor(ctx, userID, setlistID); err != nil {
		return model.SetlistSong{}, err
	}
	if _, err := s.store.Songs.Get(ctx, songID); err != nil {
		return model.SetlistSong{}, fmt.Errorf("song %s: %w", songID, err)
	}
	entries, err := s.entries(ctx, setlistID)
	if err != nil {
		return model.SetlistSong{}, err
	}
	for _, e := range entries {
		if e.SongID == songID {
			return model.SetlistSong{}, invalid("songId", "song is already in the setlist")
		}
	}
	e := model.SetlistSong{ID: s.newID(), SetlistID: setlistID, SongID: songID, Position: len(entries)}
	if err := s.store.SetlistSongs.Create(ctx, e); err != nil {
		return model.SetlistSong{}, err
	}
	return e, nil
}

func (s *Service) RemoveFromSetlist(ctx context.Context, userID, setlistID, songID string) error {
	if _, err := s.setlistFor(ctx, userID, setlistID); err != nil {
		return err
	}
	entries, err := s.entries(ctx, setlistID)
	if err != nil {
		return err
	}
	kept := entries[:0:0]
	var doomed []string
	for _, e := range entries {
		if e.SongID == songID {
			doomed = append(doomed, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	if len(doomed) == 0 {
		return fmt.Errorf("song %s in setlist %s: %w", songID, setlistID, db.ErrNotFound)
	}
	if err := s.store.SetlistSongs.DeleteMany(ctx, doomed); err != nil {
		return err
	}
	return s.renumber(ctx, kept)
}

// ReorderSetlist sets the order of the setlist to songIDs, which must name
// every song of the setlist exactly once.
func (s *Service) ReorderSetlist(ctx context.Context, userID, setlistID string, songIDs []string) ([]model.SetlistSong, error) {
	if _, err := s.setlistFor(ctx, userID, setlistID); err != nil {
		return nil, err
	}
	entries, err := s.entries(ctx, setlistID)
	if err != nil {
		return nil, err
	}
	if len(songIDs) != len(entries) {
		return nil, invalid("songIds", "expected %d songs, got %d", len(entries), len(songIDs))
	}
	bySong := make(map[string]model.SetlistSong, len(entries))
	for _, e := range entries {
		bySong[e.SongID] = e
	}
	ordered := make([]model.SetlistSong, 0, len(songIDs))
	for _, id := range songIDs {
		e, ok := bySong[id]
		if !ok {
			return nil, invalid("songIds", "song %q is not in the setlist or is repeated", id)
		}
		delete(bySong, id)
		ordered = append(ordered, e)
	}
	if err := s.renumber(ctx, ordered); err != nil {
		return nil, err
	}
	for i := range ordered {
		ordered[i].Position = i
	}
	return ordered, nil
}

// renumber writes dense positions following the order of rows, touching only
// rows whose position changes.
func (s *Service) renumber(ctx context.Context, rows []model.SetlistSong) error {
	var changed []model.SetlistSong
	for i, e := range rows {
		if e.Position != i {
			e.Position = i
			changed = append(changed, e)
		}
	}
	return s.store.SetlistSongs.UpdateMany(ctx, changed)
}

// removeFromSetlists drops songID from every setlist and closes the gaps.
func (s *Service) removeFromSetlists(ctx context.Context, songID string) error {
	hits, err := db.Filter(ctx, s.store.SetlistSongs, func(e model.SetlistSong) bool { return e.SongID == songID })
	if err != nil || len(hits) == 0 {
		return err
	}
	if err := s.store.SetlistSongs.DeleteMany(ctx, db.IDs(hits)); err != nil {
		return err
	}
	touched := make(map[string]bool)
	for _, h := range hits {
		touched[h.SetlistID] = true
	}
	for id := range touched {
		rest, err := s.entries(ctx, id)
		if err != nil {
			return err
		}
		if err := s.renumber(ctx, rest); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) SetlistTable(ctx context.Context, userID, setlistID string) (lineup.SetlistTable, error) {
	if _, err := s.setlistFor(ctx, userID, setlistID); err != nil {
		return lineup.SetlistTable{}, err
	}
	entries, err := s.entries(ctx, setlistID)
	if err != nil {
		return lineup.SetlistTable{}, err
	}
	snap, err := lineup.LoadSnapshot(ctx, s.store)
	if err != nil {
		return lineup.SetlistTable{}, err
	}
	return lineup.BuildSetlistTable(snap, entries), nil
}
