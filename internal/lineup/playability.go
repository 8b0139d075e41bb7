package lineup

import "github.com/Nixie-Tech-LLC/bandroom/internal/model"

// IsPlayable reports whether songID has at least drums, vocals and one of
// guitar or bass covered. Only the default slot ids count; custom slots never
// satisfy the rule.
func IsPlayable(songID string, parts []model.Participation) bool {
	covered := make(map[string]bool, 4)
	for _, p := range parts {
		if p.SongID == songID {
			covered[p.SlotID] = true
		}
	}
	return covered[SlotDrums] && covered[SlotVocals] && (covered[SlotGuitar] || covered[SlotBass])
}

func PlayableSongs(songs []model.Song, parts []model.Participation) []model.Song {
	out := make([]model.Song, 0, len(songs))
	for _, s := range songs {
		if IsPlayable(s.ID, parts) {
			out = append(out, s)
		}
	}
	return out
}
