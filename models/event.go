package models

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatusOpen      EventStatus = "OPEN"
	EventStatusClosed    EventStatus = "CLOSED"
	EventStatusFinalized EventStatus = "FINALIZED"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusOpen, EventStatusClosed, EventStatusFinalized:
		return true
	}
	return false
}

type Event struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	StartsAt        time.Time   `json:"starts_at"`
	LocationName    *string     `json:"location_name,omitempty"`
	Status          EventStatus `json:"status"`
	CloseAt         *time.Time  `json:"close_at,omitempty"`
	FinalizedAt     *time.Time  `json:"finalized_at,omitempty"`
	CreatedByUserID uuid.UUID   `json:"created_by_user_id"`
	CreatedAt       time.Time   `json:"created_at"`
}

type Court struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	IsOpen    bool      `json:"is_open"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// CourtCaptain grants move/cancel authority scoped to a single court of an event.
type CourtCaptain struct {
	EventID   uuid.UUID `json:"event_id"`
	CourtID   uuid.UUID `json:"court_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
