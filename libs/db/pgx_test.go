package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert appointment: %w", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "appointments_active_slot_idx"})
	name, ok := UniqueViolation(wrapped)
	if !ok || name != "appointments_active_slot_idx" {
		t.Fatalf("expected slot index violation, got %q %v", name, ok)
	}

	if _, ok := UniqueViolation(&pgconn.PgError{Code: CodeCheckViolation}); ok {
		t.Fatal("check violation must not be reported as unique")
	}
	if _, ok := UniqueViolation(errors.New("boom")); ok {
		t.Fatal("plain error must not be reported as unique")
	}
}

func TestOpenRejectsBadURL(t *testing.T) {
	if _, err := Open(context.Background(), "postgres://%zz", Options{}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("DB_MIN_CONNS", "")
	t.Setenv("DB_CONNECT_ATTEMPTS", "")
	opts := OptionsFromEnv()
	if opts.MaxConns != 4 || opts.MinConns != 1 || opts.ConnectAttempts != 5 {
		t.Fatalf("unexpected options %+v", opts)
	}
}
