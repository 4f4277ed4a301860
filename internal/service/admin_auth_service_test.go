package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/gtd_payments/internal/models"
	"github.com/GTDGit/gtd_payments/internal/utils"
)

type memAdminStore struct {
	users   map[string]*models.AdminUser
	touched []int
}

func (s *memAdminStore) GetByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (s *memAdminStore) Create(_ context.Context, u *models.AdminUser) error {
	if _, ok := s.users[u.Email]; ok {
		return sql.ErrNoRows
	}
	u.ID = len(s.users) + 1
	s.users[u.Email] = u
	return nil
}

func (s *memAdminStore) TouchLastLogin(_ context.Context, id int) error {
	s.touched = append(s.touched, id)
	return nil
}

func bcryptHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func TestAdminLogin(t *testing.T) {
	store := &memAdminStore{users: map[string]*models.AdminUser{
		"ops@example.com":  {ID: 1, Email: "ops@example.com", PasswordHash: bcryptHash(t, "correct horse"), IsActive: true},
		"gone@example.com": {ID: 2, Email: "gone@example.com", PasswordHash: bcryptHash(t, "pw"), IsActive: false},
	}}
	svc := NewAdminAuthService(store, "secret", time.Hour)

	token, err := svc.Login(context.Background(), "ops@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := utils.ValidateJWT("secret", token)
	if err != nil || claims.UserID != 1 {
		t.Errorf("claims = %+v, %v", claims, err)
	}
	if len(store.touched) != 1 {
		t.Errorf("last login not recorded")
	}

	tests := []struct {
		email, password string
		want            error
	}{
		{"ops@example.com", "wrong", ErrInvalidCredentials},
		{"nobody@example.com", "pw", ErrInvalidCredentials},
		{"gone@example.com", "pw", ErrAccountInactive},
	}
	for _, tt := range tests {
		if _, err := svc.Login(context.Background(), tt.email, tt.password); !errors.Is(err, tt.want) {
			t.Errorf("Login(%s) err = %v, want %v", tt.email, err, tt.want)
		}
	}
}

func TestEnsureAdmin(t *testing.T) {
	store := &memAdminStore{users: map[string]*models.AdminUser{}}
	svc := NewAdminAuthService(store, "secret", 0)

	if err := svc.EnsureAdmin(context.Background(), "", "", ""); err != nil || len(store.users) != 0 {
		t.Fatalf("empty bootstrap created a user: %v", err)
	}
	if err := svc.EnsureAdmin(context.Background(), "ops@example.com", "pw", "Ops"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if err := svc.EnsureAdmin(context.Background(), "ops@example.com", "other", "Ops"); err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}
	u := store.users["ops@example.com"]
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw")) != nil {
		t.Error("existing admin password was replaced")
	}
}
