package lineup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

func TestFindUserSlotForInstrument(t *testing.T) {
	slotIDs := []string{"drums", "vocals", "bass", "guitar", "choir", "piano", "custom_1"}
	cases := []struct {
		label string
		want  string
		ok    bool
	}{
		{"batterie", "drums", true},
		{"drums", "drums", true},
		{"custom_1", "custom_1", true},
		{"  Batterie ", "drums", true},
		{"CHANT", "vocals", true},
		{"chanteur", "vocals", true},
		{"chanteuse", "vocals", true},
		{"vocal", "vocals", true},
		{"basse", "bass", true},
		{"guitare", "guitar", true},
		{"choeur", "choir", true},
		{"chœur", "choir", true},
		{"clavier", "piano", true},
		{"unknown-instrument", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			got, ok := FindUserSlotForInstrument(tc.label, slotIDs)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	users := []model.User{{ID: "u1", Username: "camille"}}
	artists := []model.Artist{{ID: "a1", Name: "Nina"}}

	got := Resolve(model.Participation{Identity: model.ArtistIdentity("a1")}, users, artists)
	assert.Equal(t, DisplayIdentity{Kind: model.IdentityArtist, ID: "a1", Name: "Nina"}, got)

	got = Resolve(model.Participation{Identity: model.UserIdentity("u1")}, users, artists)
	assert.Equal(t, "camille", got.Name)

	assert.Equal(t, UnknownArtist, Resolve(model.Participation{Identity: model.ArtistIdentity("gone")}, users, artists).Name)
	assert.Equal(t, UnknownUser, Resolve(model.Participation{Identity: model.UserIdentity("gone")}, users, artists).Name)

	// an artist id that happens to match a user id still resolves to the artist lookup
	assert.Equal(t, UnknownArtist, Resolve(model.Participation{Identity: model.ArtistIdentity("u1")}, users, artists).Name)
}
