package model

import (
	"encoding/json"
	"errors"
)

type IdentityKind string

const (
	IdentityUser   IdentityKind = "user"
	IdentityArtist IdentityKind = "artist"
)

// Identity is either a registered user or an independent artist. The zero
// value is invalid; build one with UserIdentity or ArtistIdentity.
type Identity struct {
	kind IdentityKind
	id   string
}

func UserIdentity(id string) Identity   { return Identity{kind: IdentityUser, id: id} }
func ArtistIdentity(id string) Identity { return Identity{kind: IdentityArtist, id: id} }

func (i Identity) Kind() IdentityKind { return i.kind }
func (i Identity) ID() string         { return i.id }
func (i Identity) IsZero() bool       { return i.kind == "" || i.id == "" }

// Key is unique across both kinds, so a user and an artist sharing an
// underlying id never compare equal.
func (i Identity) Key() string { return string(i.kind) + ":" + i.id }

func (i Identity) String() string { return i.Key() }

var ErrMissingIdentity = errors.New("participation has neither userId nor artistId")

type Participation struct {
	ID       string
	SongID   string
	SlotID   string
	Identity Identity
	Comment  string
}

func (p Participation) DocID() string { return p.ID }

// participationWire is the stored document shape; userId and artistId are
// kept as separate fields for compatibility with existing rows.
type participationWire struct {
	ID       string  `json:"id"`
	SongID   string  `json:"songId"`
	SlotID   string  `json:"slotId"`
	UserID   *string `json:"userId,omitempty"`
	ArtistID *string `json:"artistId,omitempty"`
	Comment  string  `json:"comment"`
}

func (p Participation) MarshalJSON() ([]byte, error) {
	w := participationWire{ID: p.ID, SongID: p.SongID, SlotID: p.SlotID, Comment: p.Comment}
	id := p.Identity.ID()
	switch p.Identity.Kind() {
	case IdentityUser:
		w.UserID = &id
	case IdentityArtist:
		w.ArtistID = &id
	default:
		return nil, ErrMissingIdentity
	}
	return json.Marshal(w)
}

// UnmarshalJSON prefers artistId when a row carries both fields; rows with only
// userId are the historical shape.
func (p *Participation) UnmarshalJSON(data []byte) error {
	var w participationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var ident Identity
	switch {
	case w.ArtistID != nil && *w.ArtistID != "":
		ident = ArtistIdentity(*w.ArtistID)
	case w.UserID != nil && *w.UserID != "":
		ident = UserIdentity(*w.UserID)
	default:
		return ErrMissingIdentity
	}
	*p = Participation{ID: w.ID, SongID: w.SongID, SlotID: w.SlotID, Identity: ident, Comment: w.Comment}
	return nil
}
