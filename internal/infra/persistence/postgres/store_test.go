package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func TestNewStorePropagatesOpenFailure(t *testing.T) {
	opened := make([]string, 0, 1)
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		opened = append(opened, driverName+" "+dsn)
		return nil, errors.New("connection refused")
	})
	defer restore()

	_, err := NewStore("postgres://db.internal/colony", nil)
	if err == nil {
		t.Fatalf("expected open failure")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("err = %v, want wrapped open error", err)
	}
	if len(opened) != 1 || opened[0] != "pgx postgres://db.internal/colony" {
		t.Fatalf("unexpected open calls: %v", opened)
	}
}

func TestNewStoreAppliesDefaultDSN(t *testing.T) {
	var gotDSN string
	restore := OverrideSQLOpen(func(_, dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return nil, errors.New("sentinel")
	})
	defer restore()

	if _, err := NewStore("", nil); err == nil {
		t.Fatalf("expected sentinel failure")
	}
	if gotDSN != defaultDSN {
		t.Fatalf("dsn = %q, want %q", gotDSN, defaultDSN)
	}
}
