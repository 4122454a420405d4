package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/futbolmvp/booking-system/models"
	"github.com/futbolmvp/booking-system/repositories"
)

// EventService covers the admin surface of events and courts plus the
// read-side assembly of the event detail view.
type EventService struct {
	transactor       repositories.Transactor
	eventRepo        repositories.EventRepository
	courtRepo        repositories.CourtRepository
	registrationRepo repositories.RegistrationRepository
	captainRepo      repositories.CaptainRepository
	userRepo         repositories.UserRepository
	auditRepo        repositories.AuditRepository
	logger           *slog.Logger
}

func NewEventService(
	transactor repositories.Transactor,
	eventRepo repositories.EventRepository,
	courtRepo repositories.CourtRepository,
	registrationRepo repositories.RegistrationRepository,
	captainRepo repositories.CaptainRepository,
	userRepo repositories.UserRepository,
	auditRepo repositories.AuditRepository,
	logger *slog.Logger,
) *EventService {
	return &EventService{
		transactor:       transactor,
		eventRepo:        eventRepo,
		courtRepo:        courtRepo,
		registrationRepo: registrationRepo,
		captainRepo:      captainRepo,
		userRepo:         userRepo,
		auditRepo:        auditRepo,
		logger:           logger,
	}
}

type CreateEventInput struct {
	Title        string     `json:"title"`
	StartsAt     time.Time  `json:"starts_at"`
	LocationName *string    `json:"location_name,omitempty"`
	CloseAt      *time.Time `json:"close_at,omitempty"`
}

type CreateCourtInput struct {
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	SortOrder int    `json:"sort_order"`
	IsOpen    bool   `json:"is_open"`
}

// CourtDetail is a court with its live occupancy and confirmed players.
type CourtDetail struct {
	models.Court
	Occupied  int                   `json:"occupied"`
	Available int                   `json:"available"`
	Confirmed []models.Registration `json:"confirmed"`
}

type EventDetail struct {
	Event    *models.Event         `json:"event"`
	Courts   []CourtDetail         `json:"courts"`
	Waitlist []models.Registration `json:"waitlist"`
	Captains []models.CourtCaptain `json:"captains"`
}

func (s *EventService) CreateEvent(ctx context.Context, actorUserID uuid.UUID, input CreateEventInput) (*models.Event, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}

	event := &models.Event{
		Title:           strings.TrimSpace(input.Title),
		StartsAt:        input.StartsAt,
		LocationName:    input.LocationName,
		Status:          models.EventStatusOpen,
		CloseAt:         input.CloseAt,
		CreatedByUserID: actorUserID,
	}

	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.eventRepo.Create(ctx, exec, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:     &event.ID,
			ActorUserID: actorUserID,
			Action:      models.AuditCreateEvent,
			Metadata:    models.AuditMetadata{Source: "api"},
		})
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) ListOpenEvents(ctx context.Context) ([]models.Event, error) {
	status := models.EventStatusOpen
	return s.eventRepo.List(ctx, nil, repositories.ListEventsFilter{Status: &status})
}

func (s *EventService) ListEvents(ctx context.Context, actorUserID uuid.UUID, filter repositories.ListEventsFilter) ([]models.Event, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, nil, filter)
}

// ActiveEvent returns the detail view of the most recent OPEN or CLOSED
// event, the one the home screen shows.
func (s *EventService) ActiveEvent(ctx context.Context) (*EventDetail, error) {
	event, err := s.eventRepo.MostRecentActive(ctx, nil)
	if err != nil {
		return nil, mapEventErr(err)
	}
	return s.assembleDetail(ctx, event)
}

func (s *EventService) GetEventDetail(ctx context.Context, eventID uuid.UUID) (*EventDetail, error) {
	event, err := s.eventRepo.GetByID(ctx, nil, eventID)
	if err != nil {
		return nil, mapEventErr(err)
	}
	return s.assembleDetail(ctx, event)
}

// assembleDetail fans the four read queries out concurrently; each one runs
// on its own pooled connection.
func (s *EventService) assembleDetail(ctx context.Context, event *models.Event) (*EventDetail, error) {
	var (
		courts      []models.Court
		occupancies []models.CourtOccupancy
		confirmed   []models.Registration
		waitlist    []models.Registration
		captains    []models.CourtCaptain
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		courts, err = s.courtRepo.ListByEvent(gctx, nil, event.ID)
		return err
	})
	g.Go(func() (err error) {
		occupancies, err = s.registrationRepo.CourtOccupancies(gctx, nil, event.ID)
		return err
	})
	g.Go(func() (err error) {
		confirmed, err = s.registrationRepo.ListConfirmedByEvent(gctx, nil, event.ID)
		return err
	})
	g.Go(func() (err error) {
		waitlist, err = s.registrationRepo.ListWaitlistByEvent(gctx, nil, event.ID)
		return err
	})
	g.Go(func() (err error) {
		captains, err = s.captainRepo.ListByEvent(gctx, nil, event.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble event detail: %w", err)
	}

	occupiedByCourt := make(map[uuid.UUID]int, len(occupancies))
	for _, occ := range occupancies {
		occupiedByCourt[occ.CourtID] = occ.Occupied
	}
	confirmedByCourt := make(map[uuid.UUID][]models.Registration, len(courts))
	for _, reg := range confirmed {
		if reg.CourtID != nil {
			confirmedByCourt[*reg.CourtID] = append(confirmedByCourt[*reg.CourtID], reg)
		}
	}

	details := make([]CourtDetail, 0, len(courts))
	for _, court := range courts {
		occ := models.CourtOccupancy{
			CourtID:  court.ID,
			Capacity: court.Capacity,
			IsOpen:   court.IsOpen,
			Occupied: occupiedByCourt[court.ID],
		}
		regs := confirmedByCourt[court.ID]
		if regs == nil {
			regs = make([]models.Registration, 0)
		}
		details = append(details, CourtDetail{
			Court:     court,
			Occupied:  occ.Occupied,
			Available: occ.Available(),
			Confirmed: regs,
		})
	}

	return &EventDetail{
		Event:    event,
		Courts:   details,
		Waitlist: waitlist,
		Captains: captains,
	}, nil
}

// ReopenEvent returns a CLOSED or FINALIZED event to OPEN and clears its
// finalized timestamp. Manual action is the only way back, auto-close never
// reopens.
func (s *EventService) ReopenEvent(ctx context.Context, eventID, actorUserID uuid.UUID) (*models.Event, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}

	var event *models.Event
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		event, err = s.eventRepo.GetByID(ctx, exec, eventID)
		if err != nil {
			return mapEventErr(err)
		}
		if event.Status == models.EventStatusOpen {
			return fmt.Errorf("%w: event is already open", ErrValidationFailed)
		}
		previous := event.Status

		if err := s.eventRepo.Reopen(ctx, exec, eventID); err != nil {
			return fmt.Errorf("failed to reopen event: %w", err)
		}
		event.Status = models.EventStatusOpen
		event.FinalizedAt = nil

		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:     &eventID,
			ActorUserID: actorUserID,
			Action:      models.AuditReopenEvent,
			Metadata:    models.AuditMetadata{PreviousStatus: previous},
		})
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) CloseEvent(ctx context.Context, eventID, actorUserID uuid.UUID) (*models.Event, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}

	var event *models.Event
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		event, err = s.eventRepo.GetByID(ctx, exec, eventID)
		if err != nil {
			return mapEventErr(err)
		}
		if event.Status == models.EventStatusFinalized {
			return ErrEventFinalized
		}
		if event.Status == models.EventStatusClosed {
			return fmt.Errorf("%w: event is already closed", ErrValidationFailed)
		}

		if err := s.eventRepo.UpdateStatus(ctx, exec, eventID, models.EventStatusClosed); err != nil {
			return fmt.Errorf("failed to close event: %w", err)
		}
		event.Status = models.EventStatusClosed

		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:     &eventID,
			ActorUserID: actorUserID,
			Action:      models.AuditCloseEvent,
			Metadata:    models.AuditMetadata{Reason: "manual_close"},
		})
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) FinalizeEvent(ctx context.Context, eventID, actorUserID uuid.UUID) (*models.Event, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}

	var event *models.Event
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		event, err = s.eventRepo.GetByID(ctx, exec, eventID)
		if err != nil {
			return mapEventErr(err)
		}
		if event.Status == models.EventStatusFinalized {
			return ErrEventFinalized
		}
		previous := event.Status

		now := time.Now().UTC()
		if err := s.eventRepo.Finalize(ctx, exec, eventID, now); err != nil {
			return fmt.Errorf("failed to finalize event: %w", err)
		}
		event.Status = models.EventStatusFinalized
		event.FinalizedAt = &now

		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:     &eventID,
			ActorUserID: actorUserID,
			Action:      models.AuditFinalizeEvent,
			Metadata:    models.AuditMetadata{PreviousStatus: previous},
		})
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) CreateCourt(ctx context.Context, eventID, actorUserID uuid.UUID, input CreateCourtInput) (*models.Court, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: court name is required", ErrValidationFailed)
	}
	if input.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrValidationFailed)
	}

	court := &models.Court{
		EventID:   eventID,
		Name:      strings.TrimSpace(input.Name),
		Capacity:  input.Capacity,
		IsOpen:    input.IsOpen,
		SortOrder: input.SortOrder,
	}

	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.eventRepo.GetByID(ctx, exec, eventID); err != nil {
			return mapEventErr(err)
		}
		if err := s.courtRepo.Create(ctx, exec, court); err != nil {
			return fmt.Errorf("failed to create court: %w", err)
		}
		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:     &eventID,
			ActorUserID: actorUserID,
			Action:      models.AuditCreateCourt,
			Metadata:    models.AuditMetadata{CourtName: court.Name, Capacity: &court.Capacity},
		})
	})
	if err != nil {
		return nil, err
	}
	return court, nil
}

// UpdateCourt applies a partial update. Shrinking capacity below the current
// CONFIRMED count is rejected; the check runs under the court row lock so it
// cannot race a concurrent confirm.
func (s *EventService) UpdateCourt(ctx context.Context, eventID, courtID, actorUserID uuid.UUID, patch repositories.CourtPatch) (*models.Court, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidationFailed)
	}

	var court *models.Court
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		court, err = s.courtRepo.GetForUpdate(ctx, exec, courtID, eventID)
		if err != nil {
			return mapCourtErr(err)
		}

		if patch.Capacity != nil {
			if *patch.Capacity <= 0 {
				return fmt.Errorf("%w: capacity must be positive", ErrValidationFailed)
			}
			if *patch.Capacity < court.Capacity {
				occupied, err := s.registrationRepo.CountConfirmedByCourt(ctx, exec, courtID)
				if err != nil {
					return fmt.Errorf("failed to count court occupancy: %w", err)
				}
				if occupied > *patch.Capacity {
					return ErrCapacityBelowCount
				}
			}
		}

		if err := s.courtRepo.Update(ctx, exec, courtID, eventID, patch); err != nil {
			return fmt.Errorf("failed to update court: %w", err)
		}

		if patch.Name != nil {
			court.Name = *patch.Name
		}
		if patch.Capacity != nil {
			court.Capacity = *patch.Capacity
		}
		if patch.SortOrder != nil {
			court.SortOrder = *patch.SortOrder
		}
		if patch.IsOpen != nil {
			court.IsOpen = *patch.IsOpen
		}

		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:     &eventID,
			ActorUserID: actorUserID,
			Action:      models.AuditUpdateCourt,
			Metadata: models.AuditMetadata{
				CourtID:   &courtID,
				Capacity:  patch.Capacity,
				SortOrder: patch.SortOrder,
				IsOpen:    patch.IsOpen,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return court, nil
}

// DeleteCourt removes a court that has never been registered into, along
// with its captain assignments.
func (s *EventService) DeleteCourt(ctx context.Context, eventID, courtID, actorUserID uuid.UUID) error {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return err
	}

	return s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.courtRepo.GetByID(ctx, exec, courtID, eventID); err != nil {
			return mapCourtErr(err)
		}

		count, err := s.registrationRepo.CountByCourt(ctx, exec, courtID)
		if err != nil {
			return fmt.Errorf("failed to count court registrations: %w", err)
		}
		if count > 0 {
			return ErrCourtInUse
		}

		if err := s.captainRepo.DeleteByCourt(ctx, exec, eventID, courtID); err != nil {
			return fmt.Errorf("failed to remove court captains: %w", err)
		}
		if err := s.courtRepo.Delete(ctx, exec, courtID, eventID); err != nil {
			return mapCourtErr(err)
		}

		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:     &eventID,
			ActorUserID: actorUserID,
			Action:      models.AuditDeleteCourt,
			Metadata:    models.AuditMetadata{CourtID: &courtID},
		})
	})
}

// SetCourtOpen flips a court open or closed by hand.
func (s *EventService) SetCourtOpen(ctx context.Context, eventID, courtID, actorUserID uuid.UUID, open bool) error {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return err
	}

	action := models.AuditCloseCourt
	if open {
		action = models.AuditOpenCourt
	}

	return s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.courtRepo.GetByID(ctx, exec, courtID, eventID); err != nil {
			return mapCourtErr(err)
		}
		if err := s.courtRepo.SetOpen(ctx, exec, courtID, open); err != nil {
			return fmt.Errorf("failed to set court open state: %w", err)
		}
		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:     &eventID,
			ActorUserID: actorUserID,
			Action:      action,
			Metadata:    models.AuditMetadata{CourtID: &courtID},
		})
	})
}

func (s *EventService) AssignCaptain(ctx context.Context, eventID, courtID, userID, actorUserID uuid.UUID) error {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return err
	}

	return s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.courtRepo.GetByID(ctx, exec, courtID, eventID); err != nil {
			return mapCourtErr(err)
		}
		if _, err := s.userRepo.GetByID(ctx, exec, userID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		captain := &models.CourtCaptain{EventID: eventID, CourtID: courtID, UserID: userID}
		if err := s.captainRepo.Assign(ctx, exec, captain); err != nil {
			if errors.Is(err, repositories.ErrCaptainConflict) {
				return ErrCaptainConflict
			}
			return fmt.Errorf("failed to assign captain: %w", err)
		}

		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:     &eventID,
			ActorUserID: actorUserID,
			Action:      models.AuditAssignCaptain,
			Metadata:    models.AuditMetadata{CourtID: &courtID, CaptainUserID: &userID},
		})
	})
}

func (s *EventService) RemoveCaptain(ctx context.Context, eventID, courtID, userID, actorUserID uuid.UUID) error {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return err
	}

	return s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.captainRepo.Remove(ctx, exec, eventID, courtID, userID); err != nil {
			if errors.Is(err, repositories.ErrCaptainNotFound) {
				return ErrCaptainNotFound
			}
			return fmt.Errorf("failed to remove captain: %w", err)
		}
		return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
			EventID:     &eventID,
			ActorUserID: actorUserID,
			Action:      models.AuditRemoveCaptain,
			Metadata:    models.AuditMetadata{CourtID: &courtID, CaptainUserID: &userID},
		})
	})
}

func (s *EventService) ListAudit(ctx context.Context, actorUserID uuid.UUID, filter repositories.ListAuditFilter) ([]models.AuditEntry, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	return s.auditRepo.List(ctx, nil, filter)
}

// AutoCloseDueEvents closes every OPEN event whose close_at has passed. The
// scheduler calls it on a fixed interval; each event closes in its own
// transaction so one failure does not hold the rest back.
func (s *EventService) AutoCloseDueEvents(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	due, err := s.eventRepo.ListDueForClose(ctx, nil, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list events due for close: %w", err)
	}

	closed := make([]uuid.UUID, 0, len(due))
	for _, event := range due {
		event := event
		err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			didClose, err := s.eventRepo.CloseIfOpen(ctx, exec, event.ID)
			if err != nil {
				return err
			}
			if !didClose {
				return nil
			}
			closed = append(closed, event.ID)
			return s.auditRepo.Append(ctx, exec, &models.AuditEntry{
				EventID:     &event.ID,
				ActorUserID: event.CreatedByUserID,
				Action:      models.AuditAutoCloseEvent,
				Metadata:    models.AuditMetadata{Reason: "scheduled_close"},
			})
		})
		if err != nil {
			s.logger.Error("scheduled close failed", "event_id", event.ID, "error", err)
		}
	}
	return closed, nil
}

func (s *EventService) requireAdmin(ctx context.Context, actorUserID uuid.UUID) error {
	isAdmin, err := s.userRepo.HasAdminRole(ctx, nil, actorUserID)
	if err != nil {
		return fmt.Errorf("failed to check actor roles: %w", err)
	}
	if !isAdmin {
		return ErrForbidden
	}
	return nil
}
