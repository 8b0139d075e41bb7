package band

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/lineup"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

type GroupInput struct {
	Name  string
	Style string
}

func (s *Service) ListGroups(ctx context.Context) ([]model.Group, error) {
	return s.store.Groups.List(ctx)
}

func (s *Service) Group(ctx context.Context, id string) (model.Group, error) {
	return s.store.Groups.Get(ctx, id)
}

// CreateGroup makes userID the creator and first member.
func (s *Service) CreateGroup(ctx context.Context, userID string, in GroupInput) (model.Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Group{}, invalid("name", "is required")
	}
	u, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return model.Group{}, err
	}
	g := model.Group{
		ID:        s.newID(),
		Name:      name,
		Style:     strings.TrimSpace(in.Style),
		CreatorID: userID,
		MemberIDs: []string{userID},
	}
	if err := s.store.Groups.Create(ctx, g); err != nil {
		return model.Group{}, err
	}
	u.GroupIDs = appendUnique(u.GroupIDs, g.ID)
	if err := s.store.Users.Update(ctx, u); err != nil {
		return model.Group{}, err
	}
	return g, nil
}

func (s *Service) UpdateGroup(ctx context.Context, userID, groupID string, in GroupInput) (model.Group, error) {
	g, err := s.memberOf(ctx, userID, groupID)
	if err != nil {
		return model.Group{}, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		g.Name = name
	}
	g.Style = strings.TrimSpace(in.Style)
	if err := s.store.Groups.Update(ctx, g); err != nil {
		return model.Group{}, err
	}
	return g, nil
}

type JoinResult struct {
	Group    model.Group           `json:"group"`
	SlotID   string                `json:"slotId,omitempty"`
	Enrolled []model.Participation `json:"enrolled"`
}

// JoinGroup adds userID to the group and enrolls them on every group song
// under the slot matching their instrument, when one matches. Joining again
// is harmless. Enrollment runs before the membership is saved, so a failed
// join leaves neither behind.
func (s *Service) JoinGroup(ctx context.Context, userID, groupID string) (JoinResult, error) {
	g, err := s.store.Groups.Get(ctx, groupID)
	if err != nil {
		return JoinResult{}, err
	}
	u, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return JoinResult{}, err
	}

	res := JoinResult{Group: g, Enrolled: []model.Participation{}}
	slotID, created, err := s.enroll(ctx, u, groupID)
	if err != nil {
		return JoinResult{}, fmt.Errorf("enroll %s in group %s: %w", userID, groupID, err)
	}
	res.SlotID = slotID
	res.Enrolled = created

	if res.Group, err = s.saveMembership(ctx, g, u, groupID); err != nil {
		if len(created) > 0 {
			if derr := s.store.Participations.DeleteMany(ctx, db.IDs(created)); derr != nil {
				log.Error().Err(derr).Str("user_id", userID).Str("group_id", groupID).
					Msg("[band] JoinGroup: could not undo enrollment")
			}
		}
		return JoinResult{}, err
	}
	return res, nil
}

// enroll assigns u on every song of groupID under the slot matching their
// instrument. No matching slot means nothing to do.
func (s *Service) enroll(ctx context.Context, u model.User, groupID string) (string, []model.Participation, error) {
	ids, err := s.slotIDs(ctx)
	if err != nil {
		return "", nil, err
	}
	slotID, ok := lineup.FindUserSlotForInstrument(u.Instrument, ids)
	if !ok {
		log.Info().Str("user_id", u.ID).Str("instrument", u.Instrument).Msg("[band] JoinGroup: no slot for instrument, skipping enrollment")
		return "", []model.Participation{}, nil
	}

	songs, err := db.Filter(ctx, s.store.Songs, func(song model.Song) bool {
		return song.OwnerGroupID != nil && *song.OwnerGroupID == groupID
	})
	if err != nil {
		return "", nil, err
	}
	batch := make([]lineup.Assignment, 0, len(songs))
	for _, song := range songs {
		batch = append(batch, lineup.Assignment{SongID: song.ID, SlotID: slotID, Identity: model.UserIdentity(u.ID)})
	}
	created, err := s.Parts.AssignMany(ctx, batch)
	if err != nil {
		return "", nil, err
	}
	return slotID, created, nil
}

// saveMembership records the membership on both sides. The group is
// restored when the user update fails.
func (s *Service) saveMembership(ctx context.Context, g model.Group, u model.User, groupID string) (model.Group, error) {
	before := g
	if !g.HasMember(u.ID) {
		g.MemberIDs = append(append([]string{}, g.MemberIDs...), u.ID)
		if err := s.store.Groups.Update(ctx, g); err != nil {
			return before, err
		}
	}
	if !u.InGroup(groupID) {
		u.GroupIDs = append(u.GroupIDs, groupID)
		if err := s.store.Users.Update(ctx, u); err != nil {
			if !before.HasMember(u.ID) {
				if rerr := s.store.Groups.Update(ctx, before); rerr != nil {
					log.Error().Err(rerr).Str("group_id", groupID).Msg("[band] JoinGroup: could not restore group members")
				}
			}
			return before, err
		}
	}
	return g, nil
}

// LeaveGroup removes the membership on both sides. Participations are kept.
func (s *Service) LeaveGroup(ctx context.Context, userID, groupID string) error {
	g, err := s.memberOf(ctx, userID, groupID)
	if err != nil {
		return err
	}
	g.MemberIDs = removeString(g.MemberIDs, userID)
	if err := s.store.Groups.Update(ctx, g); err != nil {
		return err
	}
	u, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return err
	}
	u.GroupIDs = removeString(u.GroupIDs, groupID)
	return s.store.Users.Update(ctx, u)
}

// DeleteGroup is reserved to the creator. Group songs and setlists become
// personal items of whoever added them; rehearsals are deleted.
func (s *Service) DeleteGroup(ctx context.Context, userID, groupID string, confirm bool) error {
	if err := RequireConfirm(confirm); err != nil {
		return err
	}
	g, err := s.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if g.CreatorID != userID {
		return ErrUnauthorized
	}
	if err := s.store.Groups.Delete(ctx, groupID); err != nil {
		return err
	}

	members, err := db.Filter(ctx, s.store.Users, func(u model.User) bool { return u.InGroup(groupID) })
	if err != nil {
		return err
	}
	for i := range members {
		members[i].GroupIDs = removeString(members[i].GroupIDs, groupID)
	}
	if err := s.store.Users.UpdateMany(ctx, members); err != nil {
		return err
	}

	songs, err := db.Filter(ctx, s.store.Songs, func(song model.Song) bool {
		return song.OwnerGroupID != nil && *song.OwnerGroupID == groupID
	})
	if err != nil {
		return err
	}
	for i := range songs {
		songs[i].OwnerGroupID = nil
	}
	if err := s.store.Songs.UpdateMany(ctx, songs); err != nil {
		return err
	}

	setlists, err := db.Filter(ctx, s.store.Setlists, func(sl model.Setlist) bool {
		return sl.GroupID != nil && *sl.GroupID == groupID
	})
	if err != nil {
		return err
	}
	for i := range setlists {
		setlists[i].GroupID = nil
	}
	if err := s.store.Setlists.UpdateMany(ctx, setlists); err != nil {
		return err
	}

	rehearsals, err := db.Filter(ctx, s.store.Rehearsals, func(r model.Rehearsal) bool { return r.GroupID == groupID })
	if err != nil {
		return err
	}
	if err := s.store.Rehearsals.DeleteMany(ctx, db.IDs(rehearsals)); err != nil {
		return err
	}
	log.Info().Str("group_id", groupID).Int("songs", len(songs)).Int("rehearsals", len(rehearsals)).Msg("[band] group deleted")
	return nil
}
