package models

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentStatusDraft    TournamentStatus = "DRAFT"
	TournamentStatusLive     TournamentStatus = "LIVE"
	TournamentStatusFinished TournamentStatus = "FINISHED"
	TournamentStatusArchived TournamentStatus = "ARCHIVED"
)

type TournamentFormat string

const (
	FormatRoundRobin TournamentFormat = "ROUND_ROBIN"
	FormatKnockout   TournamentFormat = "KNOCKOUT"
)

type Tournament struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	LocationName    *string          `json:"location_name,omitempty"`
	StartsAt        *time.Time       `json:"starts_at,omitempty"`
	Status          TournamentStatus `json:"status"`
	Format          TournamentFormat `json:"format"`
	TeamsCount      int              `json:"teams_count"`
	MinutesPerMatch int              `json:"minutes_per_match"`
	PublicToken     string           `json:"public_token"`
	CreatedByUserID uuid.UUID        `json:"created_by_user_id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CanTransitionTo enforces the one-directional tournament lifecycle:
// DRAFT -> LIVE -> FINISHED -> ARCHIVED.
func (t *Tournament) CanTransitionTo(next TournamentStatus) bool {
	allowed := map[TournamentStatus]TournamentStatus{
		TournamentStatusDraft:    TournamentStatusLive,
		TournamentStatusLive:     TournamentStatusFinished,
		TournamentStatusFinished: TournamentStatusArchived,
	}
	want, ok := allowed[t.Status]
	return ok && want == next
}

type MemberType string

const (
	MemberTypeUser  MemberType = "USER"
	MemberTypeGuest MemberType = "GUEST"
)

type Team struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	Name         string    `json:"name"`
	LogoEmoji    *string   `json:"logo_emoji,omitempty"`
	IsGuest      bool      `json:"is_guest"`
	CreatedAt    time.Time `json:"created_at"`
	Members      []*TeamMember `json:"members,omitempty"`
}

type TeamMember struct {
	ID            uuid.UUID  `json:"id"`
	TournamentID  uuid.UUID  `json:"tournament_id"`
	TeamID        uuid.UUID  `json:"team_id"`
	MemberType    MemberType `json:"member_type"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	GuestName     *string    `json:"guest_name,omitempty"`
	LevelOverride *int       `json:"level_override,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
