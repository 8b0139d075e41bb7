package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

type TokenResponse struct {
	Token string          `json:"token"`
	User  ProfileResponse `json:"user"`
}

// returned for profile endpoints
type ProfileResponse struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	Instrument string   `json:"instrument"`
	GroupIDs   []string `json:"groupIds"`
	CreatedAt  string   `json:"created_at"`
}

func Profile(u model.User) ProfileResponse {
	groups := u.GroupIDs
	if groups == nil {
		groups = []string{}
	}
	return ProfileResponse{
		ID:         u.ID,
		Username:   u.Username,
		Instrument: u.Instrument,
		GroupIDs:   groups,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}
