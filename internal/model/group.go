package model

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Style     string   `json:"style"`
	CreatorID string   `json:"creatorId"`
	MemberIDs []string `json:"memberIds"`
}

func (g Group) DocID() string { return g.ID }

func (g Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
