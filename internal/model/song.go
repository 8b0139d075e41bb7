package model

import "time"

// Song is a repertoire entry. A nil OwnerGroupID marks a personal song.
type Song struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	YoutubeLink  *string   `json:"youtubeLink,omitempty"`
	OwnerGroupID *string   `json:"ownerGroupId"`
	AddedBy      string    `json:"addedBy"`
	Duration     *string   `json:"duration,omitempty"`
	Chords       *string   `json:"chords,omitempty"`
	Lyrics       *string   `json:"lyrics,omitempty"`
	Genre        *string   `json:"genre,omitempty"`
	Enriched     bool      `json:"enriched"`
	AudioURL     *string   `json:"audioUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s Song) DocID() string { return s.ID }

type SongPdf struct {
	ID         string    `json:"id"`
	SongID     string    `json:"songId"`
	Name       string    `json:"name"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (p SongPdf) DocID() string { return p.ID }
