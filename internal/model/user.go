package model

import "time"

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"hashedPassword"`
	Instrument     string    `json:"instrument"`
	GroupIDs       []string  `json:"groupIds"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (u User) DocID() string { return u.ID }

// InGroup reports whether the user lists groupID among their groups.
func (u User) InGroup(groupID string) bool {
	for _, id := range u.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}
