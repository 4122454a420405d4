package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/futbolmvp/booking-system/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserPhoneConflict = errors.New("a user with this phone already exists")
)

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.User, error)
	GetByPhone(ctx context.Context, exec SQLExecutor, phone string) (*models.User, error)
	// HasAdminRole is the identity-collaborator lookup consumed by every
	// admin-gated operation.
	HasAdminRole(ctx context.Context, exec SQLExecutor, userID uuid.UUID) (bool, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, u *models.User) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO users (full_name, phone_e164, pin_hash, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING id, is_active, created_at`

	err := executor.QueryRowContext(ctx, query, u.FullName, u.PhoneE164, u.PINHash).
		Scan(&u.ID, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrUserPhoneConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.User, error) {
	return r.getBy(ctx, exec, "u.id = $1", id)
}

func (r *postgresUserRepository) GetByPhone(ctx context.Context, exec SQLExecutor, phone string) (*models.User, error) {
	return r.getBy(ctx, exec, "u.phone_e164 = $1", phone)
}

func (r *postgresUserRepository) getBy(ctx context.Context, exec SQLExecutor, where string, arg interface{}) (*models.User, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT u.id, u.full_name, u.phone_e164, u.avatar_url, u.player_level,
		       u.is_active, u.pin_hash, u.created_at,
		       COALESCE(array_agg(lower(r.code)) FILTER (WHERE r.code IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		WHERE ` + where + `
		GROUP BY u.id`

	u := &models.User{}
	err := executor.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.FullName, &u.PhoneE164, &u.AvatarURL, &u.PlayerLevel,
		&u.IsActive, &u.PINHash, &u.CreatedAt, pq.Array(&u.Roles),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *postgresUserRepository) HasAdminRole(ctx context.Context, exec SQLExecutor, userID uuid.UUID) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1 AND lower(r.code) IN ($2, $3)
		)`

	var isAdmin bool
	err := executor.QueryRowContext(ctx, query, userID, models.RoleAdmin, models.RoleSuperAdmin).Scan(&isAdmin)
	if err != nil {
		return false, err
	}
	return isAdmin, nil
}
