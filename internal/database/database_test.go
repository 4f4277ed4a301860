package database

import (
	"testing"
	"time"

	appconfig "github.com/GTDGit/gtd_payments/internal/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	got := DSN(&appconfig.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "pay ments",
		Password: "p@ss/word",
		Name:     "payments",
		SSLMode:  "disable",
	})
	want := "postgres://pay+ments:p%40ss%2Fword@db:5432/payments?sslmode=disable"
	if got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{4, 4 * time.Second},
		{5, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
