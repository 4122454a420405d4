package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/futbolmvp/booking-system/models"
	"github.com/futbolmvp/booking-system/repositories"
)

const maxGuestsPerActor = 10

// RegistrationService implements the registration state machine: confirm or
// waitlist on register, FIFO promotion when a slot frees, and the auto-close
// pass that runs after a transaction confirms a spot.
type RegistrationService struct {
	transactor       repositories.Transactor
	registrationRepo repositories.RegistrationRepository
	courtRepo        repositories.CourtRepository
	eventRepo        repositories.EventRepository
	captainRepo      repositories.CaptainRepository
	userRepo         repositories.UserRepository
	auditRepo        repositories.AuditRepository
	logger           *slog.Logger
}

func NewRegistrationService(
	transactor repositories.Transactor,
	registrationRepo repositories.RegistrationRepository,
	courtRepo repositories.CourtRepository,
	eventRepo repositories.EventRepository,
	captainRepo repositories.CaptainRepository,
	userRepo repositories.UserRepository,
	auditRepo repositories.AuditRepository,
	logger *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		transactor:       transactor,
		registrationRepo: registrationRepo,
		courtRepo:        courtRepo,
		eventRepo:        eventRepo,
		captainRepo:      captainRepo,
		userRepo:         userRepo,
		auditRepo:        auditRepo,
		logger:           logger,
	}
}

type RegisterResult struct {
	Registration *models.Registration `json:"registration"`
	Message      string               `json:"message"`
}

type CancelResult struct {
	CancelledRegistrationID uuid.UUID  `json:"cancelled_registration_id"`
	PromotedRegistrationID  *uuid.UUID `json:"promoted_registration_id,omitempty"`
}

type MoveResult struct {
	RegistrationID         uuid.UUID  `json:"moved_registration_id"`
	FromCourtID            uuid.UUID  `json:"from_court_id"`
	ToCourtID              uuid.UUID  `json:"to_court_id"`
	PromotedRegistrationID *uuid.UUID `json:"promoted_registration_id,omitempty"`
}

// Register self-registers the actor onto a court of an OPEN event. The court
// row is locked before the occupancy read; with free capacity the result is
// CONFIRMED, otherwise the registration joins the event-wide waitlist with no
// court. After commit a confirmed spot triggers the auto-close pass.
func (s *RegistrationService) Register(ctx context.Context, eventID, courtID, actorUserID uuid.UUID) (*RegisterResult, error) {
	var reg *models.Registration

	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		event, err := s.eventRepo.GetByID(ctx, exec, eventID)
		if err != nil {
			return mapEventErr(err)
		}
		if event.Status != models.EventStatusOpen {
			return ErrEventNotOpen
		}

		court, err := s.courtRepo.GetForUpdate(ctx, exec, courtID, eventID)
		if err != nil {
			return mapCourtErr(err)
		}
		if !court.IsOpen {
			return ErrCourtClosed
		}

		occupied, err := s.registrationRepo.CountConfirmedByCourt(ctx, exec, courtID)
		if err != nil {
			return fmt.Errorf("failed to count court occupancy: %w", err)
		}

		reg = &models.Registration{
			EventID:         eventID,
			Type:            models.RegistrationTypeUser,
			CreatedByUserID: actorUserID,
			UserID:          &actorUserID,
		}
		if occupied < court.Capacity {
			reg.Status = models.RegistrationStatusConfirmed
			reg.CourtID = &courtID
		} else {
			reg.Status = models.RegistrationStatusWaitlist
		}

		if err := s.registrationRepo.Create(ctx, exec, reg); err != nil {
			if errors.Is(err, repositories.ErrRegistrationConflict) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("failed to create registration: %w", err)
		}

		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:              &eventID,
			ActorUserID:          actorUserID,
			Action:               models.AuditRegisterUser,
			TargetRegistrationID: &reg.ID,
			Metadata:             models.AuditMetadata{Source: "api"},
		})
	})
	if err != nil {
		return nil, err
	}

	message := "added to waitlist"
	if reg.Status == models.RegistrationStatusConfirmed {
		message = "registration confirmed"
		s.runAutoClose(ctx, eventID, courtID, actorUserID)
	}
	return &RegisterResult{Registration: reg, Message: message}, nil
}

// RegisterGuest registers a guest on behalf of the actor. Guests never go to
// the waitlist: a full court is a hard conflict. Each actor may hold at most
// ten non-cancelled guest registrations per event.
func (s *RegistrationService) RegisterGuest(ctx context.Context, eventID, courtID, actorUserID uuid.UUID, guestName string) (*RegisterResult, error) {
	guestName = strings.TrimSpace(guestName)
	if guestName == "" {
		return nil, fmt.Errorf("%w: guest name is required", ErrValidationFailed)
	}

	var reg *models.Registration

	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		event, err := s.eventRepo.GetByID(ctx, exec, eventID)
		if err != nil {
			return mapEventErr(err)
		}
		if event.Status != models.EventStatusOpen {
			return ErrEventNotOpen
		}

		court, err := s.courtRepo.GetForUpdate(ctx, exec, courtID, eventID)
		if err != nil {
			return mapCourtErr(err)
		}
		if !court.IsOpen {
			return ErrCourtClosed
		}

		guestCount, err := s.registrationRepo.CountActiveGuestsByCreator(ctx, exec, eventID, actorUserID)
		if err != nil {
			return fmt.Errorf("failed to count guest registrations: %w", err)
		}
		if guestCount >= maxGuestsPerActor {
			return ErrGuestLimitReached
		}

		occupied, err := s.registrationRepo.CountConfirmedByCourt(ctx, exec, courtID)
		if err != nil {
			return fmt.Errorf("failed to count court occupancy: %w", err)
		}
		if occupied >= court.Capacity {
			return ErrCourtFull
		}

		reg = &models.Registration{
			EventID:         eventID,
			Type:            models.RegistrationTypeGuest,
			Status:          models.RegistrationStatusConfirmed,
			CourtID:         &courtID,
			CreatedByUserID: actorUserID,
			GuestName:       &guestName,
		}
		if err := s.registrationRepo.Create(ctx, exec, reg); err != nil {
			return fmt.Errorf("failed to create guest registration: %w", err)
		}

		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:              &eventID,
			ActorUserID:          actorUserID,
			Action:               models.AuditRegisterGuest,
			TargetRegistrationID: &reg.ID,
			Metadata:             models.AuditMetadata{Source: "api"},
		})
	})
	if err != nil {
		return nil, err
	}

	s.runAutoClose(ctx, eventID, courtID, actorUserID)
	return &RegisterResult{Registration: reg, Message: "guest confirmed"}, nil
}

// Cancel marks a registration CANCELLED and, if it held a court slot,
// promotes the oldest waitlisted registration into the freed slot within the
// same transaction. Requires admin role or captaincy of the freed court.
func (s *RegistrationService) Cancel(ctx context.Context, registrationID, actorUserID uuid.UUID) (*CancelResult, error) {
	result := &CancelResult{CancelledRegistrationID: registrationID}

	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		reg, err := s.registrationRepo.GetForUpdate(ctx, exec, registrationID)
		if err != nil {
			return mapRegistrationErr(err)
		}
		if reg.Status == models.RegistrationStatusCancelled {
			return ErrAlreadyCancelled
		}

		if err := s.canManage(ctx, exec, reg.EventID, reg.CourtID, actorUserID); err != nil {
			return err
		}

		event, err := s.eventRepo.GetByID(ctx, exec, reg.EventID)
		if err != nil {
			return mapEventErr(err)
		}
		if event.Status == models.EventStatusFinalized {
			return ErrEventFinalized
		}

		if err := s.registrationRepo.Cancel(ctx, exec, registrationID, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to cancel registration: %w", err)
		}

		if err := s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:              &reg.EventID,
			ActorUserID:          actorUserID,
			Action:               models.AuditCancelRegistration,
			TargetRegistrationID: &registrationID,
			Metadata:             models.AuditMetadata{Reason: "manual_cancel"},
		}); err != nil {
			return err
		}

		if reg.CourtID != nil {
			promotedID, err := s.promoteToFreedCourt(ctx, exec, reg.EventID, *reg.CourtID, actorUserID, models.PromotionFromCancel)
			if err != nil {
				return err
			}
			result.PromotedRegistrationID = promotedID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Move reassigns a CONFIRMED registration to another court of the same event,
// then promotes from the waitlist into the origin court. The event may be
// OPEN or CLOSED, only FINALIZED blocks changes.
func (s *RegistrationService) Move(ctx context.Context, registrationID, toCourtID, actorUserID uuid.UUID) (*MoveResult, error) {
	result := &MoveResult{RegistrationID: registrationID, ToCourtID: toCourtID}

	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		reg, err := s.registrationRepo.GetForUpdate(ctx, exec, registrationID)
		if err != nil {
			return mapRegistrationErr(err)
		}
		if reg.Status != models.RegistrationStatusConfirmed {
			return ErrNotConfirmed
		}
		if reg.CourtID == nil {
			return fmt.Errorf("%w: confirmed registration has no court", ErrValidationFailed)
		}
		fromCourtID := *reg.CourtID
		if toCourtID == fromCourtID {
			return ErrSameCourt
		}
		result.FromCourtID = fromCourtID

		if err := s.canManage(ctx, exec, reg.EventID, &fromCourtID, actorUserID); err != nil {
			return err
		}

		event, err := s.eventRepo.GetByID(ctx, exec, reg.EventID)
		if err != nil {
			return mapEventErr(err)
		}
		if event.Status == models.EventStatusFinalized {
			return ErrEventFinalized
		}

		toCourt, err := s.courtRepo.GetForUpdate(ctx, exec, toCourtID, reg.EventID)
		if err != nil {
			return mapCourtErr(err)
		}
		if !toCourt.IsOpen {
			return ErrCourtClosed
		}

		occupiedTo, err := s.registrationRepo.CountConfirmedByCourt(ctx, exec, toCourtID)
		if err != nil {
			return fmt.Errorf("failed to count destination occupancy: %w", err)
		}
		if occupiedTo >= toCourt.Capacity {
			return ErrCourtFull
		}

		if err := s.registrationRepo.MoveToCourt(ctx, exec, registrationID, toCourtID); err != nil {
			return fmt.Errorf("failed to move registration: %w", err)
		}

		if err := s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:              &reg.EventID,
			ActorUserID:          actorUserID,
			Action:               models.AuditMoveRegistration,
			TargetRegistrationID: &registrationID,
			Metadata:             models.AuditMetadata{FromCourtID: &fromCourtID, ToCourtID: &toCourtID},
		}); err != nil {
			return err
		}

		promotedID, err := s.promoteToFreedCourt(ctx, exec, reg.EventID, fromCourtID, actorUserID, models.PromotionFromMove)
		if err != nil {
			return err
		}
		result.PromotedRegistrationID = promotedID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// promoteToFreedCourt runs inside the freeing transaction. It takes the
// event-global FIFO head (oldest WAITLIST, no court), re-validates the freed
// court under lock and confirms at most one registration.
func (s *RegistrationService) promoteToFreedCourt(
	ctx context.Context,
	exec repositories.SQLExecutor,
	eventID, freedCourtID, actorUserID uuid.UUID,
	source models.PromotionSource,
) (*uuid.UUID, error) {
	wait, err := s.registrationRepo.OldestWaitlisted(ctx, exec, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read waitlist head: %w", err)
	}

	court, err := s.courtRepo.GetForUpdate(ctx, exec, freedCourtID, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock freed court: %w", err)
	}
	if !court.IsOpen {
		return nil, nil
	}

	occupied, err := s.registrationRepo.CountConfirmedByCourt(ctx, exec, freedCourtID)
	if err != nil {
		return nil, fmt.Errorf("failed to count freed court occupancy: %w", err)
	}
	if occupied >= court.Capacity {
		return nil, nil
	}

	if err := s.registrationRepo.Promote(ctx, exec, wait.ID, freedCourtID); err != nil {
		return nil, fmt.Errorf("failed to promote registration: %w", err)
	}

	if err := s.auditRepo.Append(ctx, exec, &models.AuditEntry{
		EventID:              &eventID,
		ActorUserID:          actorUserID,
		Action:               models.AuditPromoteWaitlist,
		TargetRegistrationID: &wait.ID,
		Metadata:             models.AuditMetadata{PromotionSource: source},
	}); err != nil {
		return nil, err
	}

	promoted := wait.ID
	return &promoted, nil
}

// canManage gates cancel/move: admins always pass, otherwise the actor must
// be a captain of the specific court involved. Waitlisted registrations have
// no court, so only admins can touch them.
func (s *RegistrationService) canManage(ctx context.Context, exec repositories.SQLExecutor, eventID uuid.UUID, courtID *uuid.UUID, actorUserID uuid.UUID) error {
	isAdmin, err := s.userRepo.HasAdminRole(ctx, exec, actorUserID)
	if err != nil {
		return fmt.Errorf("failed to check actor roles: %w", err)
	}
	if isAdmin {
		return nil
	}
	if courtID != nil {
		isCaptain, err := s.captainRepo.IsCaptainOfCourt(ctx, exec, eventID, *courtID, actorUserID)
		if err != nil {
			return fmt.Errorf("failed to check captaincy: %w", err)
		}
		if isCaptain {
			return nil
		}
	}
	return ErrForbidden
}

// runAutoClose executes the post-commit auto-close pass in its own
// transaction. Failures are logged, never surfaced: the registration that
// triggered the pass has already committed.
func (s *RegistrationService) runAutoClose(ctx context.Context, eventID, courtID, actorUserID uuid.UUID) {
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.autoClose(ctx, exec, eventID, courtID, actorUserID)
	})
	if err != nil {
		s.logger.Error("auto-close pass failed", "event_id", eventID, "court_id", courtID, "error", err)
	}
}

// autoClose is forward-only: a full open court is closed, and when every
// court of the event is effectively closed (closed or full) an OPEN event
// transitions to CLOSED. It never reopens anything.
func (s *RegistrationService) autoClose(ctx context.Context, exec repositories.SQLExecutor, eventID, courtID, actorUserID uuid.UUID) error {
	occupancies, err := s.registrationRepo.CourtOccupancies(ctx, exec, eventID)
	if err != nil {
		return fmt.Errorf("failed to read court occupancies: %w", err)
	}

	allClosed := len(occupancies) > 0
	for i := range occupancies {
		occ := &occupancies[i]

		if occ.CourtID == courtID && occ.IsOpen && occ.Occupied >= occ.Capacity {
			closed, err := s.courtRepo.CloseIfOpen(ctx, exec, courtID)
			if err != nil {
				return fmt.Errorf("failed to auto-close court: %w", err)
			}
			if closed {
				occ.IsOpen = false
				if err := s.auditRepo.Append(ctx, exec, &models.AuditEntry{
					EventID:     &eventID,
					ActorUserID: actorUserID,
					Action:      models.AuditAutoCloseCourt,
					Metadata:    models.AuditMetadata{CourtID: &courtID, Reason: "capacity_reached"},
				}); err != nil {
					return err
				}
			}
		}

		if !occ.EffectivelyClosed() {
			allClosed = false
		}
	}

	if !allClosed {
		return nil
	}

	closed, err := s.eventRepo.CloseIfOpen(ctx, exec, eventID)
	if err != nil {
		return fmt.Errorf("failed to auto-close event: %w", err)
	}
	if closed {
		if err := s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:     &eventID,
			ActorUserID: actorUserID,
			Action:      models.AuditAutoCloseEvent,
			Metadata:    models.AuditMetadata{Reason: "all_courts_closed_or_full"},
		}); err != nil {
			return err
		}
	}
	return nil
}

func mapEventErr(err error) error {
	if errors.Is(err, repositories.ErrEventNotFound) {
		return ErrEventNotFound
	}
	return err
}

func mapCourtErr(err error) error {
	if errors.Is(err, repositories.ErrCourtNotFound) {
		return ErrCourtNotFound
	}
	return err
}

func mapRegistrationErr(err error) error {
	if errors.Is(err, repositories.ErrRegistrationNotFound) {
		return ErrRegistrationNotFound
	}
	return err
}
