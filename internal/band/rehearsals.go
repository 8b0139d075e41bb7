package band

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/lineup"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

const defaultRehearsalMinutes = 120

type RehearsalInput struct {
	GroupID   string
	DateTime  time.Time
	Duration  int
	Type      model.EventType
	Location  *string
	Notes     *string
	SetlistID *string
}

func (s *Service) validateRehearsal(ctx context.Context, in *RehearsalInput) error {
	if in.DateTime.IsZero() {
		return invalid("dateTime", "is required")
	}
	if in.Duration < 0 {
		return invalid("duration", "must be positive")
	}
	if in.Duration == 0 {
		in.Duration = defaultRehearsalMinutes
	}
	if in.Type == "" {
		in.Type = model.EventRehearsal
	}
	if !in.Type.Valid() {
		return invalid("type", "must be rehearsal, concert or event")
	}
	if in.SetlistID != nil && *in.SetlistID == "" {
		in.SetlistID = nil
	}
	if in.SetlistID != nil {
		if _, err := s.store.Setlists.Get(ctx, *in.SetlistID); err != nil {
			return fmt.Errorf("setlist %s: %w", *in.SetlistID, err)
		}
	}
	in.Location = nonEmpty(in.Location)
	in.Notes = nonEmpty(in.Notes)
	return nil
}

// rehearsalFor loads a rehearsal of a group userID belongs to.
func (s *Service) rehearsalFor(ctx context.Context, userID, id string) (model.Rehearsal, error) {
	r, err := s.store.Rehearsals.Get(ctx, id)
	if err != nil {
		return model.Rehearsal{}, err
	}
	if _, err := s.memberOf(ctx, userID, r.GroupID); err != nil {
		return model.Rehearsal{}, err
	}
	return r, nil
}

// GroupRehearsals lists a group's events by date.
func (s *Service) GroupRehearsals(ctx context.Context, userID, groupID string) ([]model.Rehearsal, error) {
	if _, err := s.memberOf(ctx, userID, groupID); err != nil {
		return nil, err
	}
	rs, err := db.Filter(ctx, s.store.Rehearsals, func(r model.Rehearsal) bool { return r.GroupID == groupID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].DateTime.Before(rs[j].DateTime) })
	return rs, nil
}

func (s *Service) Rehearsal(ctx context.Context, userID, id string) (model.Rehearsal, error) {
	return s.rehearsalFor(ctx, userID, id)
}

func (s *Service) CreateRehearsal(ctx context.Context, userID string, in RehearsalInput) (model.Rehearsal, error) {
	if strings.TrimSpace(in.GroupID) == "" {
		return model.Rehearsal{}, invalid("groupId", "is required")
	}
	if _, err := s.memberOf(ctx, userID, in.GroupID); err != nil {
		return model.Rehearsal{}, err
	}
	if err := s.validateRehearsal(ctx, &in); err != nil {
		return model.Rehearsal{}, err
	}
	r := model.Rehearsal{
		ID:              s.newID(),
		GroupID:         in.GroupID,
		DateTime:        in.DateTime.UTC(),
		Duration:        in.Duration,
		Type:            in.Type,
		Location:        in.Location,
		Notes:           in.Notes,
		SetlistID:       in.SetlistID,
		ArtistAttendees: map[string]model.Attendance{},
		Attendees:       map[string]model.Attendance{},
		CreatedBy:       userID,
	}
	if err := s.store.Rehearsals.Create(ctx, r); err != nil {
		return model.Rehearsal{}, err
	}
	return r, nil
}

// UpdateRehearsal replaces the schedule fields. Attendance is kept; the
// group cannot change.
func (s *Service) UpdateRehearsal(ctx context.Context, userID, id string, in RehearsalInput) (model.Rehearsal, error) {
	r, err := s.rehearsalFor(ctx, userID, id)
	if err != nil {
		return model.Rehearsal{}, err
	}
	if err := s.validateRehearsal(ctx, &in); err != nil {
		return model.Rehearsal{}, err
	}
	r.DateTime = in.DateTime.UTC()
	r.Duration = in.Duration
	r.Type = in.Type
	r.Location = in.Location
	r.Notes = in.Notes
	r.SetlistID = in.SetlistID
	if err := s.store.Rehearsals.Update(ctx, r); err != nil {
		return model.Rehearsal{}, err
	}
	return r, nil
}

func (s *Service) DeleteRehearsal(ctx context.Context, userID, id string, confirm bool) error {
	if err := RequireConfirm(confirm); err != nil {
		return err
	}
	if _, err := s.rehearsalFor(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Rehearsals.Delete(ctx, id)
}

// checkStatus enforces the attendance transitions: any recorded status can
// move to any other, nothing moves back to pending.
func checkStatus(status model.AttendanceStatus) error {
	if !status.Valid() {
		return invalid("status", "must be confirmed, tentative or declined")
	}
	return nil
}

func (s *Service) SetArtistAttendance(ctx context.Context, userID, rehearsalID, artistID string, status model.AttendanceStatus) (model.Rehearsal, error) {
	if err := checkStatus(status); err != nil {
		return model.Rehearsal{}, err
	}
	r, err := s.rehearsalFor(ctx, userID, rehearsalID)
	if err != nil {
		return model.Rehearsal{}, err
	}
	if _, err := s.store.Artists.Get(ctx, artistID); err != nil {
		return model.Rehearsal{}, fmt.Errorf("artist %s: %w", artistID, err)
	}
	if r.ArtistAttendees == nil {
		r.ArtistAttendees = map[string]model.Attendance{}
	}
	r.ArtistAttendees[artistID] = model.Attendance{Status: status, UpdatedAt: s.now()}
	if err := s.store.Rehearsals.Update(ctx, r); err != nil {
		return model.Rehearsal{}, err
	}
	return r, nil
}

// SetAttendance records the current user's own answer.
func (s *Service) SetAttendance(ctx context.Context, userID, rehearsalID string, status model.AttendanceStatus) (model.Rehearsal, error) {
	if err := checkStatus(status); err != nil {
		return model.Rehearsal{}, err
	}
	r, err := s.rehearsalFor(ctx, userID, rehearsalID)
	if err != nil {
		return model.Rehearsal{}, err
	}
	if r.Attendees == nil {
		r.Attendees = map[string]model.Attendance{}
	}
	r.Attendees[userID] = model.Attendance{Status: status, UpdatedAt: s.now()}
	if err := s.store.Rehearsals.Update(ctx, r); err != nil {
		return model.Rehearsal{}, err
	}
	return r, nil
}

type AttendanceCounts map[model.AttendanceStatus]int

type SongReadiness struct {
	SongID   string `json:"songId"`
	Title    string `json:"title"`
	Playable bool   `json:"playable"`
	// Ready is playability counting only confirmed attendees.
	Ready bool `json:"ready"`
}

type RehearsalSummary struct {
	Rehearsal model.Rehearsal  `json:"rehearsal"`
	Members   AttendanceCounts `json:"members"`
	Artists   AttendanceCounts `json:"artists"`
	Songs     []SongReadiness  `json:"songs"`
}

// RehearsalSummary counts answers (missing ones as pending) and tells which
// songs can be played with the people who confirmed. Songs come from the
// linked setlist, or from the whole group repertoire without one.
func (s *Service) RehearsalSummary(ctx context.Context, userID, id string) (RehearsalSummary, error) {
	r, err := s.rehearsalFor(ctx, userID, id)
	if err != nil {
		return RehearsalSummary{}, err
	}
	g, err := s.store.Groups.Get(ctx, r.GroupID)
	if err != nil {
		return RehearsalSummary{}, err
	}
	artists, err := s.store.Artists.List(ctx)
	if err != nil {
		return RehearsalSummary{}, err
	}

	sum := RehearsalSummary{Rehearsal: r, Members: AttendanceCounts{}, Artists: AttendanceCounts{}, Songs: []SongReadiness{}}
	confirmed := make(map[model.Identity]bool)
	for _, m := range g.MemberIDs {
		st := r.UserStatus(m)
		sum.Members[st]++
		if st == model.StatusConfirmed {
			confirmed[model.UserIdentity(m)] = true
		}
	}
	for _, a := range artists {
		st := r.ArtistStatus(a.ID)
		sum.Artists[st]++
		if st == model.StatusConfirmed {
			confirmed[model.ArtistIdentity(a.ID)] = true
		}
	}

	var songs []model.Song
	if r.SetlistID != nil {
		entries, err := s.entries(ctx, *r.SetlistID)
		if err != nil {
			return RehearsalSummary{}, err
		}
		for _, e := range entries {
			if song, err := s.store.Songs.Get(ctx, e.SongID); err == nil {
				songs = append(songs, song)
			}
		}
	} else {
		songs, err = db.Filter(ctx, s.store.Songs, func(song model.Song) bool {
			return song.OwnerGroupID != nil && *song.OwnerGroupID == r.GroupID
		})
		if err != nil {
			return RehearsalSummary{}, err
		}
		sort.SliceStable(songs, func(i, j int) bool { return strings.ToLower(songs[i].Title) < strings.ToLower(songs[j].Title) })
	}

	parts, err := s.Parts.All(ctx)
	if err != nil {
		return RehearsalSummary{}, err
	}
	present := make([]model.Participation, 0, len(parts))
	for _, p := range parts {
		if confirmed[p.Identity] {
			present = append(present, p)
		}
	}
	for _, song := range songs {
		sum.Songs = append(sum.Songs, SongReadiness{
			SongID:   song.ID,
			Title:    song.Title,
			Playable: lineup.IsPlayable(song.ID, parts),
			Ready:    lineup.IsPlayable(song.ID, present),
		})
	}
	return sum, nil
}
