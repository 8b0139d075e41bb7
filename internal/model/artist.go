package model

// Artist is a performer that can be placed on slots without having an account.
type Artist struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Instruments []ArtistInstrument `json:"instruments"`
}

type ArtistInstrument struct {
	SlotID string `json:"slotId"`
}

func (a Artist) DocID() string { return a.ID }

// Plays reports whether the artist may be offered for slotID. An artist with
// no declared instruments may be offered for any slot.
func (a Artist) Plays(slotID string) bool {
	if len(a.Instruments) == 0 {
		return true
	}
	for _, in := range a.Instruments {
		if in.SlotID == slotID {
			return true
		}
	}
	return false
}
