package models

import (
	"time"

	"github.com/google/uuid"
)

type RegistrationType string

const (
	RegistrationTypeUser  RegistrationType = "USER"
	RegistrationTypeGuest RegistrationType = "GUEST"
)

type RegistrationStatus string

const (
	RegistrationStatusConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationStatusWaitlist  RegistrationStatus = "WAITLIST"
	RegistrationStatusCancelled RegistrationStatus = "CANCELLED"
)

// Registration lifecycle: created CONFIRMED or WAITLIST, WAITLIST may only
// become CONFIRMED through promotion, CANCELLED is terminal. A CONFIRMED
// registration always holds a court; a WAITLIST one never does.
type Registration struct {
	ID              uuid.UUID          `json:"id"`
	EventID         uuid.UUID          `json:"event_id"`
	Type            RegistrationType   `json:"registration_type"`
	Status          RegistrationStatus `json:"status"`
	CourtID         *uuid.UUID         `json:"court_id,omitempty"`
	UserID          *uuid.UUID         `json:"user_id,omitempty"`
	GuestName       *string            `json:"guest_name,omitempty"`
	CreatedByUserID uuid.UUID          `json:"created_by_user_id"`
	CreatedAt       time.Time          `json:"created_at"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty"`
}

// CourtOccupancy is the capacity-ledger view of a single court.
type CourtOccupancy struct {
	CourtID  uuid.UUID
	Capacity int
	IsOpen   bool
	Occupied int
}

// Available returns the number of free slots, never negative.
func (c CourtOccupancy) Available() int {
	if free := c.Capacity - c.Occupied; free > 0 {
		return free
	}
	return 0
}

// EffectivelyClosed reports whether the court can take no further
// confirmations, either because it was closed or because it is full.
func (c CourtOccupancy) EffectivelyClosed() bool {
	return !c.IsOpen || c.Occupied >= c.Capacity
}
