package model

import "time"

type Setlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GroupID   *string   `json:"groupId"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s Setlist) DocID() string { return s.ID }

// SetlistSong places a song in a setlist. Position is a dense 0-based rank.
type SetlistSong struct {
	ID        string `json:"id"`
	SetlistID string `json:"setlistId"`
	SongID    string `json:"songId"`
	Position  int    `json:"position"`
}

func (s SetlistSong) DocID() string { return s.ID }
