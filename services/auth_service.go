package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/futbolmvp/booking-system/models"
	"github.com/futbolmvp/booking-system/repositories"
	"github.com/futbolmvp/booking-system/utils"
)

const tokenTTL = 30 * 24 * time.Hour

// AuthService handles PIN-based signup and login. Phones are normalized to
// +54... form before storage and lookup; a successful login issues an HS256
// JWT carrying the user id.
type AuthService struct {
	transactor repositories.Transactor
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	logger     *slog.Logger
}

func NewAuthService(transactor repositories.Transactor, userRepo repositories.UserRepository, jwtSecret []byte, logger *slog.Logger) *AuthService {
	return &AuthService{
		transactor: transactor,
		userRepo:   userRepo,
		jwtSecret:  jwtSecret,
		logger:     logger,
	}
}

type PINRegisterInput struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	PIN      string `json:"pin"`
}

type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (s *AuthService) RegisterWithPIN(ctx context.Context, input PINRegisterInput) (*AuthResult, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrValidationFailed)
	}
	phone := utils.NormalizePhone(input.Phone)
	if phone == "" {
		return nil, ErrInvalidPhone
	}
	pin := strings.TrimSpace(input.PIN)
	if !utils.IsValidPIN(pin) {
		return nil, ErrInvalidPIN
	}

	pinHash, err := utils.HashPIN(pin)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	user := &models.User{
		FullName:  fullName,
		PhoneE164: phone,
		IsActive:  true,
		PINHash:   pinHash,
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.userRepo.Create(ctx, exec, user); err != nil {
			if errors.Is(err, repositories.ErrUserPhoneConflict) {
				return ErrPhoneConflict
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) LoginWithPIN(ctx context.Context, rawPhone, pin string) (*AuthResult, error) {
	phone := utils.NormalizePhone(rawPhone)
	if phone == "" {
		return nil, ErrInvalidPhone
	}
	pin = strings.TrimSpace(pin)
	if !utils.IsValidPIN(pin) {
		return nil, ErrInvalidPIN
	}

	user, err := s.userRepo.GetByPhone(ctx, nil, phone)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive || user.PINHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !utils.CheckPINHash(pin, user.PINHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// ParseToken validates a bearer token and returns the user id it carries.
func (s *AuthService) ParseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"name": user.FullName,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
