package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/futbolmvp/booking-system/models"
	"github.com/futbolmvp/booking-system/repositories"
)

// NotificationService is the broadcast-announcement surface: admins publish,
// users see what they have not dismissed yet.
type NotificationService struct {
	transactor       repositories.Transactor
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
}

func NewNotificationService(transactor repositories.Transactor, notificationRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationService {
	return &NotificationService{
		transactor:       transactor,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

type CreateNotificationInput struct {
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s *NotificationService) Create(ctx context.Context, actorUserID uuid.UUID, input CreateNotificationInput) (*models.Notification, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}

	notification := &models.Notification{
		Title:           strings.TrimSpace(input.Title),
		Body:            strings.TrimSpace(input.Body),
		CreatedByUserID: actorUserID,
		ExpiresAt:       input.ExpiresAt,
	}
	if err := s.notificationRepo.Create(ctx, nil, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return notification, nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.notificationRepo.ListActiveForUser(ctx, nil, userID, time.Now().UTC())
}

func (s *NotificationService) ListAll(ctx context.Context, actorUserID uuid.UUID, limit int) ([]models.Notification, error) {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	return s.notificationRepo.ListAll(ctx, nil, limit)
}

func (s *NotificationService) Dismiss(ctx context.Context, notificationID, userID uuid.UUID) error {
	return s.notificationRepo.Dismiss(ctx, nil, notificationID, userID)
}

func (s *NotificationService) Deactivate(ctx context.Context, notificationID, actorUserID uuid.UUID) error {
	if err := s.requireAdmin(ctx, actorUserID); err != nil {
		return err
	}
	if err := s.notificationRepo.Deactivate(ctx, nil, notificationID); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *NotificationService) requireAdmin(ctx context.Context, actorUserID uuid.UUID) error {
	isAdmin, err := s.userRepo.HasAdminRole(ctx, nil, actorUserID)
	if err != nil {
		return fmt.Errorf("failed to check actor roles: %w", err)
	}
	if !isAdmin {
		return ErrForbidden
	}
	return nil
}
