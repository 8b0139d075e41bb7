package model

type InstrumentSlot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (s InstrumentSlot) DocID() string { return s.ID }
