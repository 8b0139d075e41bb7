package band

import (
	"context"
	"strings"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

// RegisterUser stores a new account. Usernames are unique ignoring case.
func (s *Service) RegisterUser(ctx context.Context, username, hashedPassword, instrument string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, invalid("username", "is required")
	}
	u := model.User{
		ID:             s.newID(),
		Username:       username,
		HashedPassword: hashedPassword,
		Instrument:     strings.TrimSpace(instrument),
		GroupIDs:       []string{},
		CreatedAt:      s.now(),
	}
	err := s.store.Users.CreateUnique(ctx, u, func(existing model.User) bool {
		return strings.EqualFold(existing.Username, username)
	})
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *Service) User(ctx context.Context, id string) (model.User, error) {
	return s.store.Users.Get(ctx, id)
}

func (s *Service) UserByUsername(ctx context.Context, username string) (model.User, error) {
	matches, err := db.Filter(ctx, s.store.Users, func(u model.User) bool {
		return strings.EqualFold(u.Username, strings.TrimSpace(username))
	})
	if err != nil {
		return model.User{}, err
	}
	if len(matches) == 0 {
		return model.User{}, db.ErrNotFound
	}
	return matches[0], nil
}

// UpdateInstrument changes the instrument shown on the profile. Existing
// participations are left alone.
func (s *Service) UpdateInstrument(ctx context.Context, userID, instrument string) (model.User, error) {
	u, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	u.Instrument = strings.TrimSpace(instrument)
	if err := s.store.Users.Update(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}
