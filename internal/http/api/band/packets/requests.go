package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

// body for POST /slots
type CreateSlotRequest struct {
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon"`
}

// body for POST /groups and PUT /groups/:id
type GroupRequest struct {
	Name  string `json:"name" binding:"required"`
	Style string `json:"style"`
}

func (r GroupRequest) Input() band.GroupInput {
	return band.GroupInput{Name: r.Name, Style: r.Style}
}

// body for POST /songs
type SongRequest struct {
	Title        string  `json:"title" binding:"required"`
	Artist       string  `json:"artist"`
	YoutubeLink  *string `json:"youtubeLink"`
	OwnerGroupID *string `json:"ownerGroupId"`
	Duration     *string `json:"duration"`
	Chords       *string `json:"chords"`
	Lyrics       *string `json:"lyrics"`
	Genre        *string `json:"genre"`
}

func (r SongRequest) Input() band.SongInput {
	return band.SongInput{
		Title:        r.Title,
		Artist:       r.Artist,
		YoutubeLink:  r.YoutubeLink,
		OwnerGroupID: r.OwnerGroupID,
		Duration:     r.Duration,
		Chords:       r.Chords,
		Lyrics:       r.Lyrics,
		Genre:        r.Genre,
	}
}

// body for PUT /songs/:id; omitted fields are left untouched
type UpdateSongRequest struct {
	Title       *string `json:"title"`
	Artist      *string `json:"artist"`
	YoutubeLink *string `json:"youtubeLink"`
	Duration    *string `json:"duration"`
	Chords      *string `json:"chords"`
	Lyrics      *string `json:"lyrics"`
	Genre       *string `json:"genre"`
}

func (r UpdateSongRequest) Patch() band.SongPatch {
	return band.SongPatch{
		Title:       r.Title,
		Artist:      r.Artist,
		YoutubeLink: r.YoutubeLink,
		Duration:    r.Duration,
		Chords:      r.Chords,
		Lyrics:      r.Lyrics,
		Genre:       r.Genre,
	}
}

// body for POST /songs/import/text, one "Title - Artist" per line
type ImportTextRequest struct {
	GroupID *string `json:"groupId"`
	Text    string  `json:"text" binding:"required"`
}

// body for POST /songs/import/json; entries without a title are skipped
type ImportJSONRequest struct {
	GroupID *string          `json:"groupId"`
	Songs   []band.SongInput `json:"songs" binding:"required"`
}

// body for POST /songs/:id/slots/:slotId/artists
type AssignArtistRequest struct {
	ArtistID string `json:"artistId" binding:"required"`
}

// body for PUT /participations/:id/comment; empty clears the comment
type CommentRequest struct {
	Comment string `json:"comment"`
}

// body for POST /artists and PUT /artists/:id
type ArtistRequest struct {
	Name    string   `json:"name" binding:"required"`
	SlotIDs []string `json:"instrumentSlotIds"`
}

func (r ArtistRequest) Input() band.ArtistInput {
	return band.ArtistInput{Name: r.Name, SlotIDs: r.SlotIDs}
}

// body for POST /setlists
type CreateSetlistRequest struct {
	Name    string  `json:"name" binding:"required"`
	GroupID *string `json:"groupId"`
}

// body for PUT /setlists/:id
type RenameSetlistRequest struct {
	Name string `json:"name" binding:"required"`
}

// body for POST /setlists/:id/songs
type AddSetlistSongRequest struct {
	SongID string `json:"songId" binding:"required"`
}

// body for PUT /setlists/:id/songs, the full new order
type ReorderSetlistRequest struct {
	SongIDs []string `json:"songIds" binding:"required"`
}

// body for POST /rehearsals and PUT /rehearsals/:id
type RehearsalRequest struct {
	GroupID   string    `json:"groupId" binding:"required"`
	DateTime  time.Time `json:"dateTime" binding:"required"`
	Duration  int       `json:"duration"`
	Type      string    `json:"type"`
	Location  *string   `json:"location"`
	Notes     *string   `json:"notes"`
	SetlistID *string   `json:"setlistId"`
}

func (r RehearsalRequest) Input() band.RehearsalInput {
	return band.RehearsalInput{
		GroupID:   r.GroupID,
		DateTime:  r.DateTime,
		Duration:  r.Duration,
		Type:      model.EventType(r.Type),
		Location:  r.Location,
		Notes:     r.Notes,
		SetlistID: r.SetlistID,
	}
}

// body for the attendance endpoints
type AttendanceRequest struct {
	Status string `json:"status" binding:"required"`
}
