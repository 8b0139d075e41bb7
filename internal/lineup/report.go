package lineup

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

// Snapshot is the set of collections the reports are computed from.
type Snapshot struct {
	Songs          []model.Song
	Participations []model.Participation
	Slots          []model.InstrumentSlot
	Users          []model.User
	Artists        []model.Artist
}

func LoadSnapshot(ctx context.Context, store *db.Store) (Snapshot, error) {
	var s Snapshot
	var err error
	if s.Songs, err = store.Songs.List(ctx); err != nil {
		return s, err
	}
	if s.Participations, err = store.Participations.List(ctx); err != nil {
		return s, err
	}
	if s.Slots, err = store.Slots.List(ctx); err != nil {
		return s, err
	}
	SortSlots(s.Slots)
	if s.Users, err = store.Users.List(ctx); err != nil {
		return s, err
	}
	if s.Artists, err = store.Artists.List(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// OnlySongs restricts the snapshot to the songs keep accepts and their
// participations.
func (s Snapshot) OnlySongs(keep func(model.Song) bool) Snapshot {
	out := s
	out.Songs = nil
	ids := make(map[string]bool)
	for _, song := range s.Songs {
		if keep(song) {
			out.Songs = append(out.Songs, song)
			ids[song.ID] = true
		}
	}
	out.Participations = nil
	for _, p := range s.Participations {
		if ids[p.SongID] {
			out.Participations = append(out.Participations, p)
		}
	}
	return out
}

func (s Snapshot) slotNames() map[string]string {
	names := make(map[string]string, len(s.Slots))
	for _, sl := range s.Slots {
		names[sl.ID] = sl.Name
	}
	return names
}

func (s Snapshot) songsByID() map[string]model.Song {
	m := make(map[string]model.Song, len(s.Songs))
	for _, song := range s.Songs {
		m[song.ID] = song
	}
	return m
}

type SlotDetail struct {
	SlotID   string `json:"slotId"`
	SlotName string `json:"slotName"`
	Comment  string `json:"comment"`
}

type PositionedSong struct {
	SongID string       `json:"songId"`
	Title  string       `json:"title"`
	Artist string       `json:"artist"`
	Slots  []SlotDetail `json:"slots"`
}

type ArtistPosition struct {
	ArtistID string           `json:"artistId"`
	Name     string           `json:"name"`
	Songs    []PositionedSong `json:"songs"`
}

// ArtistPositioning lists, for every artist ordered by name, the songs they
// are placed on ordered by title. A song appears once per artist with every
// slot the artist holds on it.
func ArtistPositioning(s Snapshot) []ArtistPosition {
	songs := s.songsByID()
	slotNames := s.slotNames()

	byArtist := make(map[string]map[string]*PositionedSong)
	for _, p := range s.Participations {
		if p.Identity.Kind() != model.IdentityArtist {
			continue
		}
		song, ok := songs[p.SongID]
		if !ok {
			continue
		}
		aid := p.Identity.ID()
		if byArtist[aid] == nil {
			byArtist[aid] = make(map[string]*PositionedSong)
		}
		ps := byArtist[aid][song.ID]
		if ps == nil {
			ps = &PositionedSong{SongID: song.ID, Title: song.Title, Artist: song.Artist}
			byArtist[aid][song.ID] = ps
		}
		name := slotNames[p.SlotID]
		if name == "" {
			name = p.SlotID
		}
		ps.Slots = append(ps.Slots, SlotDetail{SlotID: p.SlotID, SlotName: name, Comment: p.Comment})
	}

	artists := append([]model.Artist(nil), s.Artists...)
	sort.SliceStable(artists, func(i, j int) bool { return lessFold(artists[i].Name, artists[j].Name) })

	out := make([]ArtistPosition, 0, len(artists))
	for _, a := range artists {
		pos := ArtistPosition{ArtistID: a.ID, Name: a.Name, Songs: []PositionedSong{}}
		for _, ps := range byArtist[a.ID] {
			pos.Songs = append(pos.Songs, *ps)
		}
		sort.SliceStable(pos.Songs, func(i, j int) bool { return lessFold(pos.Songs[i].Title, pos.Songs[j].Title) })
		out = append(out, pos)
	}
	return out
}

type SlotParticipants struct {
	Slot  string `json:"slot"`
	Names string `json:"names"`
}

type SetlistRow struct {
	Number       string             `json:"number"`
	Title        string             `json:"title"`
	Artist       string             `json:"artist"`
	Duration     string             `json:"duration"`
	Participants []SlotParticipants `json:"participants"`
	Playable     bool               `json:"playable"`
}

// SetlistTable is the row data handed to whatever renders a printed setlist.
type SetlistTable struct {
	Rows  []SetlistRow `json:"rows"`
	Total SetlistRow   `json:"total"`
}

// BuildSetlistTable lays out entries in position order. Entries whose song no
// longer exists are skipped.
func BuildSetlistTable(s Snapshot, entries []model.SetlistSong) SetlistTable {
	ordered := append([]model.SetlistSong(nil), entries...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	songs := s.songsByID()
	dir := NewDirectory(s.Users, s.Artists)

	table := SetlistTable{Rows: []SetlistRow{}}
	var listed []model.Song
	for _, e := range ordered {
		song, ok := songs[e.SongID]
		if !ok {
			continue
		}
		listed = append(listed, song)
		row := SetlistRow{
			Number:       strconv.Itoa(e.Position + 1),
			Title:        song.Title,
			Artist:       song.Artist,
			Participants: groupBySlot(s, dir, song.ID),
			Playable:     IsPlayable(song.ID, s.Participations),
		}
		if song.Duration != nil {
			row.Duration = *song.Duration
		}
		table.Rows = append(table.Rows, row)
	}
	table.Total = SetlistRow{
		Title:        "TOTAL",
		Artist:       strconv.Itoa(len(listed)) + " titres",
		Duration:     FormatDuration(SetlistDuration(listed)),
		Participants: []SlotParticipants{},
	}
	return table
}

// groupBySlot follows the slot order of the snapshot; slots nobody holds are
// left out.
func groupBySlot(s Snapshot, dir Directory, songID string) []SlotParticipants {
	names := make(map[string][]string)
	for _, p := range s.Participations {
		if p.SongID == songID {
			names[p.SlotID] = append(names[p.SlotID], dir.Resolve(p).Name)
		}
	}
	out := []SlotParticipants{}
	for _, sl := range s.Slots {
		if n := names[sl.ID]; len(n) > 0 {
			out = append(out, SlotParticipants{Slot: sl.Name, Names: strings.Join(n, ", ")})
			delete(names, sl.ID)
		}
	}
	// participations on slots that were deleted concurrently
	orphans := make([]string, 0, len(names))
	for id := range names {
		orphans = append(orphans, id)
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		out = append(out, SlotParticipants{Slot: id, Names: strings.Join(names[id], ", ")})
	}
	return out
}

type SheetRow struct {
	Title string   `json:"title"`
	Marks []string `json:"marks"`
}

// PositioningSheet is a song by artist grid; a mark is "X" when the artist
// plays on the song.
type PositioningSheet struct {
	Artists []string   `json:"artists"`
	Rows    []SheetRow `json:"rows"`
}

// BuildPositioningSheet has one column per artist ordered by name and one row
// per song that at least one artist plays on, ordered by title.
func BuildPositioningSheet(s Snapshot) PositioningSheet {
	artists := append([]model.Artist(nil), s.Artists...)
	sort.SliceStable(artists, func(i, j int) bool { return lessFold(artists[i].Name, artists[j].Name) })

	plays := make(map[string]map[string]bool)
	for _, p := range s.Participations {
		if p.Identity.Kind() != model.IdentityArtist {
			continue
		}
		if plays[p.SongID] == nil {
			plays[p.SongID] = make(map[string]bool)
		}
		plays[p.SongID][p.Identity.ID()] = true
	}

	songs := make([]model.Song, 0, len(plays))
	for _, song := range s.Songs {
		if len(plays[song.ID]) > 0 {
			songs = append(songs, song)
		}
	}
	sort.SliceStable(songs, func(i, j int) bool { return lessFold(songs[i].Title, songs[j].Title) })

	sheet := PositioningSheet{Artists: make([]string, len(artists)), Rows: make([]SheetRow, 0, len(songs))}
	for i, a := range artists {
		sheet.Artists[i] = a.Name
	}
	for _, song := range songs {
		row := SheetRow{Title: song.Title, Marks: make([]string, len(artists))}
		for i, a := range artists {
			if plays[song.ID][a.ID] {
				row.Marks[i] = "X"
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
