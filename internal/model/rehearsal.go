package model

import "time"

type AttendanceStatus string

const (
	StatusPending   AttendanceStatus = "pending"
	StatusConfirmed AttendanceStatus = "confirmed"
	StatusTentative AttendanceStatus = "tentative"
	StatusDeclined  AttendanceStatus = "declined"
)

// Valid reports whether s is a status that can be recorded. Pending is only
// ever implied by a missing entry.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusTentative, StatusDeclined:
		return true
	}
	return false
}

type Attendance struct {
	Status    AttendanceStatus `json:"status"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type EventType string

const (
	EventRehearsal EventType = "rehearsal"
	EventConcert   EventType = "concert"
	EventOther     EventType = "event"
)

func (t EventType) Valid() bool {
	switch t {
	case EventRehearsal, EventConcert, EventOther:
		return true
	}
	return false
}

type Rehearsal struct {
	ID              string                `json:"id"`
	GroupID         string                `json:"groupId"`
	DateTime        time.Time             `json:"dateTime"`
	Duration        int                   `json:"duration"` // minutes
	Type            EventType             `json:"type"`
	Location        *string               `json:"location,omitempty"`
	Notes           *string               `json:"notes,omitempty"`
	SetlistID       *string               `json:"setlistId,omitempty"`
	ArtistAttendees map[string]Attendance `json:"artistAttendees"`
	Attendees       map[string]Attendance `json:"attendees"`
	CreatedBy       string                `json:"createdBy"`
}

func (r Rehearsal) DocID() string { return r.ID }

// ArtistStatus returns the recorded status, or pending when none exists.
func (r Rehearsal) ArtistStatus(artistID string) AttendanceStatus {
	if a, ok := r.ArtistAttendees[artistID]; ok {
		return a.Status
	}
	return StatusPending
}

func (r Rehearsal) UserStatus(userID string) AttendanceStatus {
	if a, ok := r.Attendees[userID]; ok {
		return a.Status
	}
	return StatusPending
}
