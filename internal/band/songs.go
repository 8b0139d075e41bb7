package band

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/lineup"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/storage"
)

const (
	MsgSongEnriched       = "song added and enriched"
	MsgEnrichmentSkipped  = "song added without enrichment: enrichment service unavailable"
	MsgReenriched         = "song enriched"
	MsgReenrichmentFailed = "enrichment service unavailable, song left unchanged"
)

type SongInput struct {
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	YoutubeLink  *string `json:"youtubeLink"`
	OwnerGroupID *string `json:"ownerGroupId"`
	Duration     *string `json:"duration"`
	Chords       *string `json:"chords"`
	Lyrics       *string `json:"lyrics"`
	Genre        *string `json:"genre"`
}

// SongView is a song with its derived playability.
type SongView struct {
	model.Song
	Playable bool `json:"playable"`
}

type SongResult struct {
	Song    model.Song `json:"song"`
	Message string     `json:"message"`
}

type SongFilter struct {
	GroupID      string
	PlayableOnly bool
}

// canManage allows the adder of a personal song, or any member of the group
// that owns a group song.
func (s *Service) canManage(ctx context.Context, userID string, song model.Song) error {
	if song.OwnerGroupID == nil {
		if song.AddedBy != userID {
			return ErrUnauthorized
		}
		return nil
	}
	_, err := s.memberOf(ctx, userID, *song.OwnerGroupID)
	if errors.Is(err, db.ErrNotFound) {
		// orphaned group id; fall back to the adder
		if song.AddedBy == userID {
			return nil
		}
		return ErrUnauthorized
	}
	return err
}

// ListSongs returns the songs userID can see, sorted by title.
func (s *Service) ListSongs(ctx context.Context, userID string, f SongFilter) ([]SongView, error) {
	u, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	songs, err := db.Filter(ctx, s.store.Songs, func(song model.Song) bool {
		if f.GroupID != "" {
			return song.OwnerGroupID != nil && *song.OwnerGroupID == f.GroupID && u.InGroup(f.GroupID)
		}
		if song.OwnerGroupID == nil {
			return song.AddedBy == userID
		}
		return u.InGroup(*song.OwnerGroupID)
	})
	if err != nil {
		return nil, err
	}
	parts, err := s.Parts.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SongView, 0, len(songs))
	for _, song := range songs {
		v := SongView{Song: song, Playable: lineup.IsPlayable(song.ID, parts)}
		if f.PlayableOnly && !v.Playable {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out, nil
}

func (s *Service) Song(ctx context.Context, id string) (SongView, error) {
	song, err := s.store.Songs.Get(ctx, id)
	if err != nil {
		return SongView{}, err
	}
	parts, err := s.Parts.ListForSong(ctx, id)
	if err != nil {
		return SongView{}, err
	}
	return SongView{Song: song, Playable: lineup.IsPlayable(id, parts)}, nil
}

func (s *Service) newSong(ctx context.Context, userID string, in SongInput) (model.Song, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Song{}, invalid("title", "is required")
	}
	if in.OwnerGroupID != nil && *in.OwnerGroupID == "" {
		in.OwnerGroupID = nil
	}
	if in.OwnerGroupID != nil {
		if _, err := s.memberOf(ctx, userID, *in.OwnerGroupID); err != nil {
			return model.Song{}, err
		}
	}
	if in.Duration != nil && *in.Duration != "" {
		if _, err := lineup.ParseDuration(*in.Duration); err != nil {
			return model.Song{}, invalid("duration", "must be MM:SS or H:MM:SS")
		}
	}
	return model.Song{
		ID:           s.newID(),
		Title:        title,
		Artist:       strings.TrimSpace(in.Artist),
		YoutubeLink:  nonEmpty(in.YoutubeLink),
		OwnerGroupID: in.OwnerGroupID,
		AddedBy:      userID,
		Duration:     nonEmpty(in.Duration),
		Chords:       nonEmpty(in.Chords),
		Lyrics:       nonEmpty(in.Lyrics),
		Genre:        nonEmpty(in.Genre),
		CreatedAt:    s.now(),
	}, nil
}

// fillFromEnrichment completes the fields the user left empty. It reports
// whether the enrichment call succeeded.
func (s *Service) fillFromEnrichment(ctx context.Context, song *model.Song) bool {
	if s.enricher == nil {
		return false
	}
	res, err := s.enricher.Enrich(ctx, song.Title, song.Artist)
	if err != nil || !res.Enriched {
		return false
	}
	if song.Artist == "" && res.Artist != nil {
		song.Artist = *res.Artist
	}
	fill := func(dst **string, v *string) {
		if *dst == nil {
			*dst = v
		}
	}
	fill(&song.Duration, res.Duration)
	fill(&song.Chords, res.Chords)
	fill(&song.Lyrics, res.Lyrics)
	fill(&song.Genre, res.Genre)
	song.Enriched = true
	return true
}

// AddSong stores a new song, enriched when the enrichment service answers.
// An unavailable service never fails the call.
func (s *Service) AddSong(ctx context.Context, userID string, in SongInput) (SongResult, error) {
	song, err := s.newSong(ctx, userID, in)
	if err != nil {
		return SongResult{}, err
	}
	msg := MsgEnrichmentSkipped
	if s.fillFromEnrichment(ctx, &song) {
		msg = MsgSongEnriched
	}
	if err := s.store.Songs.Create(ctx, song); err != nil {
		return SongResult{}, err
	}
	return SongResult{Song: song, Message: msg}, nil
}

type ImportResult struct {
	Songs    []model.Song `json:"songs"`
	Skipped  []string     `json:"skipped"`
	Enriched int          `json:"enriched"`
	Message  string       `json:"message"`
}

// ImportText adds one song per non-empty line of the form "Title - Artist".
// A line without a separator is taken as a title alone.
func (s *Service) ImportText(ctx context.Context, userID string, groupID *string, text string) (ImportResult, error) {
	var inputs []SongInput
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		title, artist := splitImportLine(line)
		inputs = append(inputs, SongInput{Title: title, Artist: artist, OwnerGroupID: groupID})
	}
	return s.importSongs(ctx, userID, inputs)
}

// ImportJSON adds every entry of a decoded JSON array; entries inherit
// groupID unless they name their own group.
func (s *Service) ImportJSON(ctx context.Context, userID string, groupID *string, entries []SongInput) (ImportResult, error) {
	for i := range entries {
		if entries[i].OwnerGroupID == nil {
			entries[i].OwnerGroupID = groupID
		}
	}
	return s.importSongs(ctx, userID, entries)
}

func splitImportLine(line string) (title, artist string) {
	for _, sep := range []string{" - ", " – ", " — ", "\t"} {
		if i := strings.Index(line, sep); i >= 0 {
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+len(sep):])
		}
	}
	return line, ""
}

func (s *Service) importSongs(ctx context.Context, userID string, inputs []SongInput) (ImportResult, error) {
	if len(inputs) == 0 {
		return ImportResult{}, invalid("songs", "nothing to import")
	}
	res := ImportResult{Songs: []model.Song{}, Skipped: []string{}}
	songs := make([]model.Song, 0, len(inputs))
	for _, in := range inputs {
		song, err := s.newSong(ctx, userID, in)
		if err != nil {
			if IsValidation(err) {
				res.Skipped = append(res.Skipped, in.Title)
				continue
			}
			return ImportResult{}, err
		}
		if s.fillFromEnrichment(ctx, &song) {
			res.Enriched++
		}
		songs = append(songs, song)
	}
	if len(songs) == 0 {
		return ImportResult{}, invalid("songs", "no valid song to import")
	}
	if err := s.store.Songs.CreateMany(ctx, songs); err != nil {
		return ImportResult{}, err
	}
	res.Songs = songs
	res.Message = fmt.Sprintf("%d songs imported, %d enriched", len(songs), res.Enriched)
	log.Info().Str("user_id", userID).Int("imported", len(songs)).Int("enriched", res.Enriched).Msg("[band] songs imported")
	return res, nil
}

// SongPatch holds the editable fields; nil leaves a field untouched and an
// empty string clears an optional one.
type SongPatch struct {
	Title       *string `json:"title"`
	Artist      *string `json:"artist"`
	YoutubeLink *string `json:"youtubeLink"`
	Duration    *string `json:"duration"`
	Chords      *string `json:"chords"`
	Lyrics      *string `json:"lyrics"`
	Genre       *string `json:"genre"`
}

func (s *Service) UpdateSong(ctx context.Context, userID, songID string, p SongPatch) (model.Song, error) {
	song, err := s.store.Songs.Get(ctx, songID)
	if err != nil {
		return model.Song{}, err
	}
	if err := s.canManage(ctx, userID, song); err != nil {
		return model.Song{}, err
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return model.Song{}, invalid("title", "is required")
		}
		song.Title = t
	}
	if p.Artist != nil {
		song.Artist = strings.TrimSpace(*p.Artist)
	}
	if p.Duration != nil && *p.Duration != "" {
		if _, err := lineup.ParseDuration(*p.Duration); err != nil {
			return model.Song{}, invalid("duration", "must be MM:SS or H:MM:SS")
		}
	}
	patch := func(dst **string, v *string) {
		if v != nil {
			*dst = nonEmpty(v)
		}
	}
	patch(&song.YoutubeLink, p.YoutubeLink)
	patch(&song.Duration, p.Duration)
	patch(&song.Chords, p.Chords)
	patch(&song.Lyrics, p.Lyrics)
	patch(&song.Genre, p.Genre)

	if err := s.store.Songs.Update(ctx, song); err != nil {
		return model.Song{}, err
	}
	return song, nil
}

// EnrichSong asks the enrichment service again and overwrites duration,
// chords, lyrics and genre with its answer. The artist is only replaced when
// the service found one. On failure the song is returned unchanged.
func (s *Service) EnrichSong(ctx context.Context, userID, songID string) (SongResult, error) {
	song, err := s.store.Songs.Get(ctx, songID)
	if err != nil {
		return SongResult{}, err
	}
	if err := s.canManage(ctx, userID, song); err != nil {
		return SongResult{}, err
	}
	if s.enricher == nil {
		return SongResult{Song: song, Message: MsgReenrichmentFailed}, nil
	}
	res, err := s.enricher.Enrich(ctx, song.Title, song.Artist)
	if err != nil || !res.Enriched {
		return SongResult{Song: song, Message: MsgReenrichmentFailed}, nil
	}
	if res.Artist != nil {
		song.Artist = *res.Artist
	}
	song.Duration = res.Duration
	song.Chords = res.Chords
	song.Lyrics = res.Lyrics
	song.Genre = res.Genre
	song.Enriched = true
	if err := s.store.Songs.Update(ctx, song); err != nil {
		return SongResult{}, err
	}
	return SongResult{Song: song, Message: MsgReenriched}, nil
}

// SetSongAudio records where the uploaded recording of songID lives.
func (s *Service) SetSongAudio(ctx context.Context, songID, url string) (model.Song, error) {
	song, err := s.store.Songs.Get(ctx, songID)
	if err != nil {
		return model.Song{}, err
	}
	song.AudioURL = &url
	if err := s.store.Songs.Update(ctx, song); err != nil {
		return model.Song{}, err
	}
	return song, nil
}

// DeleteSong removes the song with its participations, sheets and setlist
// entries. Remaining setlist positions are renumbered.
func (s *Service) DeleteSong(ctx context.Context, userID, songID string, confirm bool) error {
	if err := RequireConfirm(confirm); err != nil {
		return err
	}
	song, err := s.store.Songs.Get(ctx, songID)
	if err != nil {
		return err
	}
	if err := s.canManage(ctx, userID, song); err != nil {
		return err
	}
	if err := s.store.Songs.Delete(ctx, songID); err != nil {
		return err
	}

	if _, err := s.Parts.DeleteForSong(ctx, songID); err != nil {
		return fmt.Errorf("cascade participations of %s: %w", songID, err)
	}
	if err := s.deletePdfsOf(ctx, songID); err != nil {
		return fmt.Errorf("cascade pdfs of %s: %w", songID, err)
	}
	if err := s.removeFromSetlists(ctx, songID); err != nil {
		return fmt.Errorf("cascade setlists of %s: %w", songID, err)
	}
	return nil
}

func (s *Service) deletePdfsOf(ctx context.Context, songID string) error {
	pdfs, err := db.Filter(ctx, s.store.SongPdfs, func(p model.SongPdf) bool { return p.SongID == songID })
	if err != nil || len(pdfs) == 0 {
		return err
	}
	if err := s.store.SongPdfs.DeleteMany(ctx, db.IDs(pdfs)); err != nil {
		return err
	}
	for _, p := range pdfs {
		s.removeFile(ctx, storage.KindPDF, p.Filename)
	}
	return nil
}

// removeFile deletes a stored file, logging failures; the document that
// pointed at it is already gone.
func (s *Service) removeFile(ctx context.Context, kind storage.Kind, name string) {
	if s.files == nil || name == "" {
		return
	}
	if err := s.files.Delete(ctx, kind, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Warn().Err(err).Str("file", name).Msg("[band] stored file not removed")
	}
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
