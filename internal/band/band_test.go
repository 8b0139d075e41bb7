package band

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/enrich"
	"github.com/Nixie-Tech-LLC/bandroom/internal/lineup"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/storage"
)

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) Enrich(ctx context.Context, title, artist string) (enrich.Result, error) {
	args := m.Called(ctx, title, artist)
	return args.Get(0).(enrich.Result), args.Error(1)
}

func ptr(s string) *string { return &s }

func unavailable() *mockEnricher {
	m := new(mockEnricher)
	m.On("Enrich", mock.Anything, mock.Anything, mock.Anything).
		Return(enrich.Result{}, fmt.Errorf("%w: no api key", enrich.ErrUnavailable))
	return m
}

func newTestService(t *testing.T, e Enricher) *Service {
	t.Helper()
	svc := NewService(db.NewMemoryStore(nil), e, nil)
	n := 0
	svc.newID = func() string { n++; return fmt.Sprintf("id-%03d", n) }
	require.NoError(t, svc.Slots.EnsureDefaults(context.Background()))
	return svc
}

func mustUser(t *testing.T, svc *Service, name, instrument string) model.User {
	t.Helper()
	u, err := svc.RegisterUser(context.Background(), name, "hash", instrument)
	require.NoError(t, err)
	return u
}

func mustSong(t *testing.T, svc *Service, userID, title string, groupID *string) model.Song {
	t.Helper()
	res, err := svc.AddSong(context.Background(), userID, SongInput{Title: title, Artist: "Someone", OwnerGroupID: groupID})
	require.NoError(t, err)
	return res.Song
}

func TestRegisterUser_UsernameIsUniqueIgnoringCase(t *testing.T) {
	svc := newTestService(t, nil)
	mustUser(t, svc, "Camille", "guitar")
	_, err := svc.RegisterUser(context.Background(), "camille", "hash", "")
	assert.ErrorIs(t, err, db.ErrConflict)

	_, err = svc.RegisterUser(context.Background(), "  ", "hash", "")
	assert.True(t, IsValidation(err))

	u, err := svc.UserByUsername(context.Background(), "CAMILLE")
	require.NoError(t, err)
	assert.Equal(t, "Camille", u.Username)
}

func TestJoinGroup_EnrollsOnEveryGroupSong(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, unavailable())
	owner := mustUser(t, svc, "owner", "drums")
	g, err := svc.CreateGroup(ctx, owner.ID, GroupInput{Name: "G"})
	require.NoError(t, err)
	a := mustSong(t, svc, owner.ID, "A", &g.ID)
	b := mustSong(t, svc, owner.ID, "B", &g.ID)
	mustSong(t, svc, owner.ID, "personal", nil)

	u := mustUser(t, svc, "U", "guitar")
	res, err := svc.JoinGroup(ctx, u.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, lineup.SlotGuitar, res.SlotID)
	require.Len(t, res.Enrolled, 2)

	for _, song := range []model.Song{a, b} {
		rows, err := svc.Parts.ListForSlot(ctx, song.ID, lineup.SlotGuitar)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, model.UserIdentity(u.ID), rows[0].Identity)
	}

	u, _ = svc.User(ctx, u.ID)
	assert.Contains(t, u.GroupIDs, g.ID)
	g, _ = svc.Group(ctx, g.ID)
	assert.True(t, g.HasMember(u.ID))

	again, err := svc.JoinGroup(ctx, u.ID, g.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Enrolled)
	all, _ := svc.Parts.All(ctx)
	assert.Len(t, all, 2)
}

type rejectingBatches struct {
	db.Collection[model.Participation]
}

func (rejectingBatches) CreateManyUnique(context.Context, []model.Participation, func(existing, incoming model.Participation) bool) error {
	return db.ErrConflict
}

func TestJoinGroup_FailedEnrollmentLeavesNoMembership(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, unavailable())
	owner := mustUser(t, svc, "owner", "drums")
	g, err := svc.CreateGroup(ctx, owner.ID, GroupInput{Name: "G"})
	require.NoError(t, err)
	mustSong(t, svc, owner.ID, "A", &g.ID)
	u := mustUser(t, svc, "U", "guitar")

	store := svc.Store()
	store.Participations = rejectingBatches{store.Participations}
	svc.Parts = lineup.NewParticipations(store)

	_, err = svc.JoinGroup(ctx, u.ID, g.ID)
	assert.ErrorIs(t, err, lineup.ErrDuplicateAssignment)

	g, _ = svc.Group(ctx, g.ID)
	assert.False(t, g.HasMember(u.ID))
	u, _ = svc.User(ctx, u.ID)
	assert.NotContains(t, u.GroupIDs, g.ID)
}

func TestJoinGroup_LegacyAndUnknownInstruments(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	owner := mustUser(t, svc, "owner", "")
	g, err := svc.CreateGroup(ctx, owner.ID, GroupInput{Name: "G"})
	require.NoError(t, err)
	song := mustSong(t, svc, owner.ID, "A", &g.ID)

	legacy := mustUser(t, svc, "legacy", "Batterie")
	res, err := svc.JoinGroup(ctx, legacy.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, lineup.SlotDrums, res.SlotID)
	rows, _ := svc.Parts.ListForSlot(ctx, song.ID, lineup.SlotDrums)
	assert.Len(t, rows, 1)

	kazoo := mustUser(t, svc, "kazoo", "kazoo")
	res, err = svc.JoinGroup(ctx, kazoo.ID, g.ID)
	require.NoError(t, err)
	assert.Empty(t, res.SlotID)
	assert.Empty(t, res.Enrolled)
	kazoo, _ = svc.User(ctx, kazoo.ID)
	assert.Contains(t, kazoo.GroupIDs, g.ID, "membership is recorded even without a slot")
}

func TestLeaveAndDeleteGroup(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	owner := mustUser(t, svc, "owner", "")
	other := mustUser(t, svc, "other", "")
	g, err := svc.CreateGroup(ctx, owner.ID, GroupInput{Name: "G"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, other.ID, g.ID)
	require.NoError(t, err)
	song := mustSong(t, svc, other.ID, "A", &g.ID)

	assert.ErrorIs(t, svc.DeleteGroup(ctx, other.ID, g.ID, true), ErrUnauthorized)
	assert.True(t, IsValidation(svc.DeleteGroup(ctx, owner.ID, g.ID, false)))

	require.NoError(t, svc.LeaveGroup(ctx, other.ID, g.ID))
	other, _ = svc.User(ctx, other.ID)
	assert.NotContains(t, other.GroupIDs, g.ID)

	require.NoError(t, svc.DeleteGroup(ctx, owner.ID, g.ID, true))
	_, err = svc.Group(ctx, g.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	kept, err := svc.Song(ctx, song.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.OwnerGroupID)
	owner, _ = svc.User(ctx, owner.ID)
	assert.Empty(t, owner.GroupIDs)
}

func TestAddSong_EnrichmentIsOptional(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable", func(t *testing.T) {
		svc := newTestService(t, unavailable())
		u := mustUser(t, svc, "u", "")
		res, err := svc.AddSong(ctx, u.ID, SongInput{Title: "Valerie", Artist: "Amy Winehouse"})
		require.NoError(t, err)
		assert.False(t, res.Song.Enriched)
		assert.Equal(t, MsgEnrichmentSkipped, res.Message)
		_, err = svc.Song(ctx, res.Song.ID)
		assert.NoError(t, err)
	})

	t.Run("enriched fills blanks only", func(t *testing.T) {
		e := new(mockEnricher)
		e.On("Enrich", mock.Anything, "Valerie", "").Return(enrich.Result{
			Artist: ptr("Amy Winehouse"), Duration: ptr("03:53"), Genre: ptr("soul"), Enriched: true,
		}, nil)
		svc := newTestService(t, e)
		u := mustUser(t, svc, "u", "")
		res, err := svc.AddSong(ctx, u.ID, SongInput{Title: "Valerie", Genre: ptr("pop")})
		require.NoError(t, err)
		assert.True(t, res.Song.Enriched)
		assert.Equal(t, MsgSongEnriched, res.Message)
		assert.Equal(t, "Amy Winehouse", res.Song.Artist)
		assert.Equal(t, "03:53", *res.Song.Duration)
		assert.Equal(t, "pop", *res.Song.Genre)
		e.AssertExpectations(t)
	})

	t.Run("validation", func(t *testing.T) {
		svc := newTestService(t, nil)
		u := mustUser(t, svc, "u", "")
		_, err := svc.AddSong(ctx, u.ID, SongInput{Title: " "})
		assert.True(t, IsValidation(err))
		_, err = svc.AddSong(ctx, u.ID, SongInput{Title: "x", Duration: ptr("long")})
		assert.True(t, IsValidation(err))
		_, err = svc.AddSong(ctx, u.ID, SongInput{Title: "x", OwnerGroupID: ptr("not-mine")})
		assert.ErrorIs(t, err, db.ErrNotFound)
	})
}

func TestEnrichSong_PreservesArtistWhenNoneFound(t *testing.T) {
	ctx := context.Background()
	e := new(mockEnricher)
	e.On("Enrich", mock.Anything, "Song", "Band").Return(enrich.Result{}, errors.New("boom")).Once()
	e.On("Enrich", mock.Anything, "Song", "Band").Return(enrich.Result{
		Duration: ptr("04:00"), Chords: ptr("Am F C G"), Enriched: true,
	}, nil)
	svc := newTestService(t, e)
	u := mustUser(t, svc, "u", "")
	res, err := svc.AddSong(ctx, u.ID, SongInput{Title: "Song", Artist: "Band", Lyrics: ptr("la la")})
	require.NoError(t, err)

	again, err := svc.EnrichSong(ctx, u.ID, res.Song.ID)
	require.NoError(t, err)
	assert.Equal(t, MsgReenriched, again.Message)
	assert.Equal(t, "Band", again.Song.Artist)
	assert.Equal(t, "Am F C G", *again.Song.Chords)
	assert.Nil(t, again.Song.Lyrics, "re-enrichment overwrites")
	assert.True(t, again.Song.Enriched)
}

func TestImportText(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, unavailable())
	u := mustUser(t, svc, "u", "")
	res, err := svc.ImportText(ctx, u.ID, nil, "Valerie - Amy Winehouse\n\n  Zombie – The Cranberries \nInstrumental\n")
	require.NoError(t, err)
	require.Len(t, res.Songs, 3)
	assert.Equal(t, "Valerie", res.Songs[0].Title)
	assert.Equal(t, "Amy Winehouse", res.Songs[0].Artist)
	assert.Equal(t, "The Cranberries", res.Songs[1].Artist)
	assert.Equal(t, "Instrumental", res.Songs[2].Title)
	assert.Zero(t, res.Enriched)

	_, err = svc.ImportText(ctx, u.ID, nil, "\n \n")
	assert.True(t, IsValidation(err))
}

func TestImportJSON_SkipsUntitled(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	u := mustUser(t, svc, "u", "")
	res, err := svc.ImportJSON(ctx, u.ID, nil, []SongInput{{Title: "One"}, {Title: ""}, {Title: "Two", Duration: ptr("02:10")}})
	require.NoError(t, err)
	assert.Len(t, res.Songs, 2)
	assert.Len(t, res.Skipped, 1)
}

func TestDeleteSong_AuthorizationAndCascade(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	files := storage.NewLocalStorage(t.TempDir(), "")
	svc.files = files

	owner := mustUser(t, svc, "owner", "")
	stranger := mustUser(t, svc, "stranger", "")
	g, err := svc.CreateGroup(ctx, owner.ID, GroupInput{Name: "G"})
	require.NoError(t, err)
	a := mustSong(t, svc, owner.ID, "A", &g.ID)
	b := mustSong(t, svc, owner.ID, "B", &g.ID)
	c := mustSong(t, svc, owner.ID, "C", &g.ID)

	_, err = svc.JoinSlot(ctx, owner.ID, b.ID, lineup.SlotDrums)
	require.NoError(t, err)
	_, err = svc.AddSongPdf(ctx, owner.ID, b.ID, "chart", storage.FileInfo{Name: "b.pdf"})
	require.NoError(t, err)

	sl, err := svc.CreateSetlist(ctx, owner.ID, "Gig", &g.ID)
	require.NoError(t, err)
	for _, song := range []model.Song{a, b, c} {
		_, err := svc.AddToSetlist(ctx, owner.ID, sl.ID, song.ID)
		require.NoError(t, err)
	}

	assert.True(t, IsValidation(svc.DeleteSong(ctx, owner.ID, b.ID, false)))
	assert.ErrorIs(t, svc.DeleteSong(ctx, stranger.ID, b.ID, true), ErrUnauthorized)
	require.NoError(t, svc.DeleteSong(ctx, owner.ID, b.ID, true))

	parts, _ := svc.Parts.ListForSong(ctx, b.ID)
	assert.Empty(t, parts)
	pdfs, _ := db.Filter(ctx, svc.store.SongPdfs, func(p model.SongPdf) bool { return p.SongID == b.ID })
	assert.Empty(t, pdfs)

	view, err := svc.Setlist(ctx, owner.ID, sl.ID)
	require.NoError(t, err)
	require.Len(t, view.Songs, 2)
	assert.Equal(t, a.ID, view.Songs[0].SongID)
	assert.Equal(t, 0, view.Songs[0].Position)
	assert.Equal(t, c.ID, view.Songs[1].SongID)
	assert.Equal(t, 1, view.Songs[1].Position)
}

func TestPersonalSongOnlyDeletableByAdder(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	adder := mustUser(t, svc, "adder", "")
	other := mustUser(t, svc, "other", "")
	song := mustSong(t, svc, adder.ID, "Mine", nil)

	assert.ErrorIs(t, svc.DeleteSong(ctx, other.ID, song.ID, true), ErrUnauthorized)
	assert.NoError(t, svc.DeleteSong(ctx, adder.ID, song.ID, true))
	assert.ErrorIs(t, svc.DeleteSong(ctx, adder.ID, song.ID, true), db.ErrNotFound)
}

func TestListSongs_PlayableFilter(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	u := mustUser(t, svc, "u", "")
	ready := mustSong(t, svc, u.ID, "Ready", nil)
	mustSong(t, svc, u.ID, "Not yet", nil)
	for _, slot := range []string{lineup.SlotDrums, lineup.SlotVocals, lineup.SlotBass} {
		_, err := svc.JoinSlot(ctx, u.ID, ready.ID, slot)
		require.NoError(t, err)
	}

	all, err := svc.ListSongs(ctx, u.ID, SongFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	playable, err := svc.ListSongs(ctx, u.ID, SongFilter{PlayableOnly: true})
	require.NoError(t, err)
	require.Len(t, playable, 1)
	assert.Equal(t, ready.ID, playable[0].ID)
	assert.True(t, playable[0].Playable)
}

func TestSlotAssignments(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	u := mustUser(t, svc, "u", "")
	song := mustSong(t, svc, u.ID, "S", nil)

	_, err := svc.JoinSlot(ctx, u.ID, song.ID, lineup.SlotDrums)
	require.NoError(t, err)
	_, err = svc.JoinSlot(ctx, u.ID, song.ID, lineup.SlotDrums)
	assert.ErrorIs(t, err, lineup.ErrDuplicateAssignment)
	_, err = svc.JoinSlot(ctx, u.ID, song.ID, "custom_missing")
	assert.ErrorIs(t, err, db.ErrNotFound)

	drummer, err := svc.CreateArtist(ctx, ArtistInput{Name: "Max", SlotIDs: []string{lineup.SlotDrums}})
	require.NoError(t, err)
	anyone, err := svc.CreateArtist(ctx, ArtistInput{Name: "Ana"})
	require.NoError(t, err)
	_, err = svc.CreateArtist(ctx, ArtistInput{Name: "Bad", SlotIDs: []string{"tuba"}})
	assert.True(t, IsValidation(err))

	_, err = svc.AssignArtist(ctx, song.ID, lineup.SlotVocals, drummer.ID)
	assert.True(t, IsValidation(err))

	cands, err := svc.Candidates(ctx, song.ID, lineup.SlotVocals)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, anyone.ID, cands[0].ID)

	p, err := svc.AssignArtist(ctx, song.ID, lineup.SlotDrums, drummer.ID)
	require.NoError(t, err)
	cands, _ = svc.Candidates(ctx, song.ID, lineup.SlotDrums)
	assert.Len(t, cands, 1, "assigned artist is no longer offered")

	_, err = svc.SetComment(ctx, u.ID, p.ID, "brushes")
	require.NoError(t, err)
	stranger := mustUser(t, svc, "stranger", "")
	_, err = svc.SetComment(ctx, stranger.ID, p.ID, "sticks")
	assert.ErrorIs(t, err, ErrUnauthorized)

	lineupView, err := svc.SongLineup(ctx, song.ID)
	require.NoError(t, err)
	require.Len(t, lineupView, 2)
	assert.Equal(t, "u", lineupView[0].Display.Name)
	assert.Equal(t, "Max", lineupView[1].Display.Name)
	assert.Equal(t, "brushes", lineupView[1].Comment)
	assert.Equal(t, "Batterie", lineupView[1].SlotName)

	require.NoError(t, svc.RemoveArtist(ctx, song.ID, lineup.SlotDrums, drummer.ID))
	require.NoError(t, svc.LeaveSlot(ctx, u.ID, song.ID, lineup.SlotDrums))
	require.NoError(t, svc.LeaveSlot(ctx, u.ID, song.ID, lineup.SlotDrums))
	rows, _ := svc.Parts.ListForSong(ctx, song.ID)
	assert.Empty(t, rows)
}

func TestSetComment_ParticipantOrGroupMember(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	owner := mustUser(t, svc, "owner", "")
	member := mustUser(t, svc, "member", "")
	outsider := mustUser(t, svc, "outsider", "")
	g, err := svc.CreateGroup(ctx, owner.ID, GroupInput{Name: "G"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(ctx, member.ID, g.ID)
	require.NoError(t, err)
	song := mustSong(t, svc, owner.ID, "S", &g.ID)

	mine, err := svc.JoinSlot(ctx, outsider.ID, song.ID, lineup.SlotBass)
	require.NoError(t, err)
	theirs, err := svc.JoinSlot(ctx, owner.ID, song.ID, lineup.SlotDrums)
	require.NoError(t, err)

	got, err := svc.SetComment(ctx, outsider.ID, mine.ID, "fretless")
	require.NoError(t, err)
	assert.Equal(t, "fretless", got.Comment)

	_, err = svc.SetComment(ctx, outsider.ID, theirs.ID, "louder")
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err = svc.SetComment(ctx, member.ID, theirs.ID, "half time")
	require.NoError(t, err)
	assert.Equal(t, "half time", got.Comment)

	_, err = svc.SetComment(ctx, owner.ID, "missing", "x")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDeleteArtistCascades(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	u := mustUser(t, svc, "u", "")
	g, err := svc.CreateGroup(ctx, u.ID, GroupInput{Name: "G"})
	require.NoError(t, err)
	song := mustSong(t, svc, u.ID, "S", &g.ID)
	a, err := svc.CreateArtist(ctx, ArtistInput{Name: "Max"})
	require.NoError(t, err)
	_, err = svc.AssignArtist(ctx, song.ID, lineup.SlotBass, a.ID)
	require.NoError(t, err)
	r, err := svc.CreateRehearsal(ctx, u.ID, RehearsalInput{GroupID: g.ID, DateTime: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	_, err = svc.SetArtistAttendance(ctx, u.ID, r.ID, a.ID, model.StatusConfirmed)
	require.NoError(t, err)

	assert.True(t, IsValidation(svc.DeleteArtist(ctx, a.ID, false)))
	require.NoError(t, svc.DeleteArtist(ctx, a.ID, true))

	rows, _ := svc.Parts.ListForSong(ctx, song.ID)
	assert.Empty(t, rows)
	r, _ = svc.Rehearsal(ctx, u.ID, r.ID)
	assert.Empty(t, r.ArtistAttendees)
}

func TestReorderSetlist_KeepsPositionsDense(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	u := mustUser(t, svc, "u", "")
	sl, err := svc.CreateSetlist(ctx, u.ID, "Set", nil)
	require.NoError(t, err)
	var ids []string
	for _, title := range []string{"A", "B", "C", "D"} {
		song := mustSong(t, svc, u.ID, title, nil)
		_, err := svc.AddToSetlist(ctx, u.ID, sl.ID, song.ID)
		require.NoError(t, err)
		ids = append(ids, song.ID)
	}
	_, err = svc.AddToSetlist(ctx, u.ID, sl.ID, ids[0])
	assert.True(t, IsValidation(err))

	order := []string{ids[3], ids[1], ids[0], ids[2]}
	_, err = svc.ReorderSetlist(ctx, u.ID, sl.ID, order)
	require.NoError(t, err)

	view, err := svc.Setlist(ctx, u.ID, sl.ID)
	require.NoError(t, err)
	for i, e := range view.Songs {
		assert.Equal(t, i, e.Position)
		assert.Equal(t, order[i], e.SongID)
	}

	_, err = svc.ReorderSetlist(ctx, u.ID, sl.ID, []string{ids[0], ids[0], ids[1], ids[2]})
	assert.True(t, IsValidation(err))
	_, err = svc.ReorderSetlist(ctx, u.ID, sl.ID, ids[:2])
	assert.True(t, IsValidation(err))

	require.NoError(t, svc.RemoveFromSetlist(ctx, u.ID, sl.ID, ids[1]))
	view, _ = svc.Setlist(ctx, u.ID, sl.ID)
	require.Len(t, view.Songs, 3)
	for i, e := range view.Songs {
		assert.Equal(t, i, e.Position)
	}

	other := mustUser(t, svc, "other", "")
	_, err = svc.Setlist(ctx, other.ID, sl.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSetlistDurationAndTable(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	u := mustUser(t, svc, "u", "")
	sl, err := svc.CreateSetlist(ctx, u.ID, "Set", nil)
	require.NoError(t, err)
	for _, d := range []string{"03:30", "01:15"} {
		res, err := svc.AddSong(ctx, u.ID, SongInput{Title: "T" + d, Duration: ptr(d)})
		require.NoError(t, err)
		_, err = svc.AddToSetlist(ctx, u.ID, sl.ID, res.Song.ID)
		require.NoError(t, err)
	}
	plain, err := svc.AddSong(ctx, u.ID, SongInput{Title: "No duration"})
	require.NoError(t, err)
	_, err = svc.AddToSetlist(ctx, u.ID, sl.ID, plain.Song.ID)
	require.NoError(t, err)

	view, err := svc.Setlist(ctx, u.ID, sl.ID)
	require.NoError(t, err)
	assert.Equal(t, "04:45", view.Duration)

	table, err := svc.SetlistTable(ctx, u.ID, sl.ID)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 3)
	assert.Equal(t, "04:45", table.Total.Duration)
}

func TestAttendanceTransitions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	u := mustUser(t, svc, "u", "")
	g, err := svc.CreateGroup(ctx, u.ID, GroupInput{Name: "G"})
	require.NoError(t, err)
	r, err := svc.CreateRehearsal(ctx, u.ID, RehearsalInput{GroupID: g.ID, DateTime: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, model.EventRehearsal, r.Type)
	assert.Equal(t, 120, r.Duration)
	assert.Equal(t, model.StatusPending, r.UserStatus(u.ID))

	for _, st := range []model.AttendanceStatus{model.StatusTentative, model.StatusDeclined, model.StatusConfirmed, model.StatusTentative} {
		r, err = svc.SetAttendance(ctx, u.ID, r.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, r.UserStatus(u.ID))
	}
	_, err = svc.SetAttendance(ctx, u.ID, r.ID, model.StatusPending)
	assert.True(t, IsValidation(err))
	_, err = svc.SetAttendance(ctx, u.ID, r.ID, "maybe")
	assert.True(t, IsValidation(err))

	_, err = svc.CreateRehearsal(ctx, u.ID, RehearsalInput{GroupID: g.ID, DateTime: time.Now(), Type: "party"})
	assert.True(t, IsValidation(err))
	outsider := mustUser(t, svc, "outsider", "")
	_, err = svc.SetAttendance(ctx, outsider.ID, r.ID, model.StatusConfirmed)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRehearsalSummary_UsesConfirmedPeopleOnly(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	u := mustUser(t, svc, "singer", "vocals")
	g, err := svc.CreateGroup(ctx, u.ID, GroupInput{Name: "G"})
	require.NoError(t, err)
	song := mustSong(t, svc, u.ID, "S", &g.ID)

	drums, _ := svc.CreateArtist(ctx, ArtistInput{Name: "Drums"})
	bass, _ := svc.CreateArtist(ctx, ArtistInput{Name: "Bass"})
	_, err = svc.JoinSlot(ctx, u.ID, song.ID, lineup.SlotVocals)
	require.NoError(t, err)
	_, err = svc.AssignArtist(ctx, song.ID, lineup.SlotDrums, drums.ID)
	require.NoError(t, err)
	_, err = svc.AssignArtist(ctx, song.ID, lineup.SlotBass, bass.ID)
	require.NoError(t, err)

	r, err := svc.CreateRehearsal(ctx, u.ID, RehearsalInput{GroupID: g.ID, DateTime: time.Now(), Type: model.EventConcert})
	require.NoError(t, err)
	_, err = svc.SetAttendance(ctx, u.ID, r.ID, model.StatusConfirmed)
	require.NoError(t, err)
	_, err = svc.SetArtistAttendance(ctx, u.ID, r.ID, drums.ID, model.StatusConfirmed)
	require.NoError(t, err)
	_, err = svc.SetArtistAttendance(ctx, u.ID, r.ID, bass.ID, model.StatusDeclined)
	require.NoError(t, err)

	sum, err := svc.RehearsalSummary(ctx, u.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Members[model.StatusConfirmed])
	assert.Equal(t, 1, sum.Artists[model.StatusConfirmed])
	assert.Equal(t, 1, sum.Artists[model.StatusDeclined])
	require.Len(t, sum.Songs, 1)
	assert.True(t, sum.Songs[0].Playable)
	assert.False(t, sum.Songs[0].Ready, "bass player declined")

	_, err = svc.SetArtistAttendance(ctx, u.ID, r.ID, bass.ID, model.StatusConfirmed)
	require.NoError(t, err)
	sum, _ = svc.RehearsalSummary(ctx, u.ID, r.ID)
	assert.True(t, sum.Songs[0].Ready)
}

func TestSlotCatalogThroughService(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	_, err := svc.AddSlot(ctx, "", "")
	assert.True(t, IsValidation(err))

	sax, err := svc.AddSlot(ctx, "Sax", "🎷")
	require.NoError(t, err)
	assert.True(t, IsValidation(svc.DeleteSlot(ctx, sax.ID, false)))
	assert.ErrorIs(t, svc.DeleteSlot(ctx, lineup.SlotDrums, true), lineup.ErrProtectedSlot)
	assert.NoError(t, svc.DeleteSlot(ctx, sax.ID, true))
}
