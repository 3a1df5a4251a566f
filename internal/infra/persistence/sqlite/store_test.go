package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"colonyledger/pkg/domain"
)

func TestStateSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "colony.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Path() != path {
		t.Fatalf("path = %q, want %q", store.Path(), path)
	}

	var animal domain.Animal
	var cage domain.Cage
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		animal, err = tx.CreateAnimal(domain.Animal{TubeID: 4, Sex: "M", State: domain.StateAlive})
		if err != nil {
			return err
		}
		cage, err = tx.CreateCage(domain.Cage{Number: "C-010"})
		if err != nil {
			return err
		}
		_, err = tx.CreateOccupancyInterval(domain.OccupancyInterval{
			CageID:   cage.ID,
			AnimalID: animal.ID,
			Start:    time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		})
		return err
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.DB().Close() }()

	got, ok := reopened.GetAnimal(animal.ID)
	if !ok {
		t.Fatalf("animal lost across reopen")
	}
	if got.TubeID != 4 {
		t.Fatalf("tube id = %d, want 4", got.TubeID)
	}
	open, ok := reopened.OpenInterval(animal.ID)
	if !ok || open.CageID != cage.ID {
		t.Fatalf("open interval not restored: %+v, %v", open, ok)
	}
}

func TestDefaultPath(t *testing.T) {
	// Run against a scratch directory so the default file lands somewhere safe.
	t.Chdir(t.TempDir())

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.DB().Close() }()
	if store.Path() != "colonyledger.db" {
		t.Fatalf("path = %q, want colonyledger.db", store.Path())
	}
}
