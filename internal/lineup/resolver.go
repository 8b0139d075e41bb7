package lineup

import (
	"strings"

	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

const (
	UnknownArtist = "Artiste inconnu"
	UnknownUser   = "Utilisateur inconnu"
)

type DisplayIdentity struct {
	Kind model.IdentityKind `json:"kind"`
	ID   string             `json:"id"`
	Name string             `json:"name"`
}

// Directory indexes users and artists by id for display lookups.
type Directory struct {
	users   map[string]model.User
	artists map[string]model.Artist
}

func NewDirectory(users []model.User, artists []model.Artist) Directory {
	d := Directory{
		users:   make(map[string]model.User, len(users)),
		artists: make(map[string]model.Artist, len(artists)),
	}
	for _, u := range users {
		d.users[u.ID] = u
	}
	for _, a := range artists {
		d.artists[a.ID] = a
	}
	return d
}

func (d Directory) Resolve(p model.Participation) DisplayIdentity {
	out := DisplayIdentity{Kind: p.Identity.Kind(), ID: p.Identity.ID()}
	switch p.Identity.Kind() {
	case model.IdentityArtist:
		out.Name = UnknownArtist
		if a, ok := d.artists[out.ID]; ok {
			out.Name = a.Name
		}
	default:
		out.Name = UnknownUser
		if u, ok := d.users[out.ID]; ok {
			out.Name = u.Username
		}
	}
	return out
}

// Resolve names the identity behind p, falling back to a sentinel name when
// the user or artist no longer exists.
func Resolve(p model.Participation, users []model.User, artists []model.Artist) DisplayIdentity {
	return NewDirectory(users, artists).Resolve(p)
}

// legacyInstrumentSlots maps the free-text instrument names stored on older
// user profiles to slot ids.
var legacyInstrumentSlots = map[string]string{
	"batterie":  SlotDrums,
	"chant":     SlotVocals,
	"chanteur":  SlotVocals,
	"chanteuse": SlotVocals,
	"vocal":     SlotVocals,
	"basse":     SlotBass,
	"guitare":   SlotGuitar,
	"choeur":    SlotChoir,
	"chœur":     SlotChoir,
	"clavier":   SlotPiano,
}

// FindUserSlotForInstrument returns the slot a user with the given instrument
// label plays: the label itself when it is one of slotIDs, otherwise the
// legacy name mapping.
func FindUserSlotForInstrument(label string, slotIDs []string) (string, bool) {
	for _, id := range slotIDs {
		if id == label {
			return id, true
		}
	}
	slot, ok := legacyInstrumentSlots[strings.ToLower(strings.TrimSpace(label))]
	return slot, ok
}
