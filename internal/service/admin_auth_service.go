package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
)

// AdminUserStore persists admin users.
type AdminUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) error
	TouchLastLogin(ctx context.Context, id int) error
}

type AdminAuthService struct {
	users     AdminUserStore
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAdminAuthService(users AdminUserStore, jwtSecret string, tokenTTL time.Duration) *AdminAuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AdminAuthService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Login checks the password and issues an admin token.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Msg("Failed to load admin user")
		}
		return "", ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Warn().Int("user_id", user.ID).Msg("Login attempt on inactive admin account")
		return "", ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Int("user_id", user.ID).Msg("Admin password verification failed")
		return "", ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int("user_id", user.ID).Msg("Failed to record admin login")
	}

	log.Info().Int("user_id", user.ID).Msg("Admin login successful")
	return utils.GenerateJWT(s.jwtSecret, user.ID, user.Email, s.tokenTTL)
}

// EnsureAdmin creates the bootstrap admin when it does not exist yet.
func (s *AdminAuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	user := &models.AdminUser{
		Email:        email,
		PasswordHash: string(hashed),
		Name:         name,
		IsActive:     true,
	}
	// ON CONFLICT DO NOTHING returns no row for an existing admin.
	if err := s.users.Create(ctx, user); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return nil
}
