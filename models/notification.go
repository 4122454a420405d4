package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Body            string     `json:"body"`
	IsActive        bool       `json:"is_active"`
	CreatedByUserID uuid.UUID  `json:"created_by_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}
