package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditCreateEvent        AuditAction = "CREATE_EVENT"
	AuditReopenEvent        AuditAction = "REOPEN_EVENT"
	AuditCloseEvent         AuditAction = "CLOSE_EVENT"
	AuditFinalizeEvent      AuditAction = "FINALIZE_EVENT"
	AuditAutoCloseEvent     AuditAction = "AUTO_CLOSE_EVENT"
	AuditCreateCourt        AuditAction = "CREATE_COURT"
	AuditUpdateCourt        AuditAction = "UPDATE_COURT"
	AuditDeleteCourt        AuditAction = "DELETE_COURT"
	AuditOpenCourt          AuditAction = "OPEN_COURT"
	AuditCloseCourt         AuditAction = "CLOSE_COURT"
	AuditAutoCloseCourt     AuditAction = "AUTO_CLOSE_COURT"
	AuditAssignCaptain      AuditAction = "ASSIGN_CAPTAIN"
	AuditRemoveCaptain      AuditAction = "REMOVE_CAPTAIN"
	AuditRegisterUser       AuditAction = "REGISTER_USER"
	AuditRegisterGuest      AuditAction = "REGISTER_GUEST"
	AuditCancelRegistration AuditAction = "CANCEL_REGISTRATION"
	AuditMoveRegistration   AuditAction = "MOVE_REGISTRATION"
	AuditPromoteWaitlist    AuditAction = "PROMOTE_WAITLIST"
)

// PromotionSource tags a PROMOTE_WAITLIST entry with the freeing action.
type PromotionSource string

const (
	PromotionFromCancel PromotionSource = "auto_from_cancel"
	PromotionFromMove   PromotionSource = "auto_from_move"
)

// AuditMetadata is the typed payload of an audit entry. Exactly the fields
// relevant to the action are set; the repository serializes it to jsonb.
type AuditMetadata struct {
	Source          string           `json:"source,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	CourtID         *uuid.UUID       `json:"court_id,omitempty"`
	FromCourtID     *uuid.UUID       `json:"from_court_id,omitempty"`
	ToCourtID       *uuid.UUID       `json:"to_court_id,omitempty"`
	CaptainUserID   *uuid.UUID       `json:"captain_user_id,omitempty"`
	CourtName       string           `json:"court_name,omitempty"`
	Capacity        *int             `json:"capacity,omitempty"`
	SortOrder       *int             `json:"sort_order,omitempty"`
	IsOpen          *bool            `json:"is_open,omitempty"`
	PreviousStatus  EventStatus      `json:"previous_status,omitempty"`
	PromotionSource PromotionSource  `json:"promotion_source,omitempty"`
}

type AuditEntry struct {
	ID                   int64         `json:"id"`
	EventID              *uuid.UUID    `json:"event_id,omitempty"`
	ActorUserID          uuid.UUID     `json:"actor_user_id"`
	Action               AuditAction   `json:"action"`
	TargetRegistrationID *uuid.UUID    `json:"target_registration_id,omitempty"`
	Metadata             AuditMetadata `json:"metadata"`
	CreatedAt            time.Time     `json:"created_at"`
}
