package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type User struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	PhoneE164   string    `json:"phone_e164"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	PlayerLevel *int      `json:"player_level,omitempty"`
	IsActive    bool      `json:"is_active"`
	PINHash     string    `json:"-"`
	Roles       []string  `json:"roles,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAdmin reports whether any of the user's roles carries admin authority.
func (u *User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == RoleAdmin || r == RoleSuperAdmin {
			return true
		}
	}
	return false
}
