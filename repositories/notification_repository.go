package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/futbolmvp/booking-system/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, n *models.Notification) error
	// ListActiveForUser returns active, unexpired notifications the user has
	// not dismissed yet.
	ListActiveForUser(ctx context.Context, exec SQLExecutor, userID uuid.UUID, now time.Time) ([]models.Notification, error)
	ListAll(ctx context.Context, exec SQLExecutor, limit int) ([]models.Notification, error)
	Dismiss(ctx context.Context, exec SQLExecutor, notificationID, userID uuid.UUID) error
	Deactivate(ctx context.Context, exec SQLExecutor, notificationID uuid.UUID) error
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const notificationColumns = `id, title, body, is_active, created_by_user_id, created_at, expires_at`

func scanNotification(row interface{ Scan(...interface{}) error }, n *models.Notification) error {
	return row.Scan(&n.ID, &n.Title, &n.Body, &n.IsActive, &n.CreatedByUserID, &n.CreatedAt, &n.ExpiresAt)
}

func (r *postgresNotificationRepository) Create(ctx context.Context, exec SQLExecutor, n *models.Notification) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO notifications (title, body, is_active, created_by_user_id, expires_at)
		VALUES ($1, $2, true, $3, $4)
		RETURNING id, is_active, created_at`

	err := executor.QueryRowContext(ctx, query, n.Title, n.Body, n.CreatedByUserID, n.ExpiresAt).
		Scan(&n.ID, &n.IsActive, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *postgresNotificationRepository) ListActiveForUser(ctx context.Context, exec SQLExecutor, userID uuid.UUID, now time.Time) ([]models.Notification, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications n
		WHERE n.is_active = true
		  AND (n.expires_at IS NULL OR n.expires_at > $2)
		  AND NOT EXISTS (
			SELECT 1 FROM notification_dismissals d
			WHERE d.notification_id = n.id AND d.user_id = $1
		  )
		ORDER BY n.created_at DESC`
	return r.queryNotifications(ctx, executor, query, userID, now)
}

func (r *postgresNotificationRepository) ListAll(ctx context.Context, exec SQLExecutor, limit int) ([]models.Notification, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + notificationColumns + ` FROM notifications n ORDER BY n.created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	return r.queryNotifications(ctx, executor, query, args...)
}

func (r *postgresNotificationRepository) Dismiss(ctx context.Context, exec SQLExecutor, notificationID, userID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO notification_dismissals (notification_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	if _, err := executor.ExecContext(ctx, query, notificationID, userID); err != nil {
		return fmt.Errorf("failed to dismiss notification: %w", err)
	}
	return nil
}

func (r *postgresNotificationRepository) Deactivate(ctx context.Context, exec SQLExecutor, notificationID uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `UPDATE notifications SET is_active = false WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, notificationID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}

func (r *postgresNotificationRepository) queryNotifications(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]models.Notification, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if scanErr := scanNotification(rows, &n); scanErr != nil {
			return nil, scanErr
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}
