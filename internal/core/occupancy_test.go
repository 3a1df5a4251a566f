package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"colonyledger/pkg/domain"
)

func TestPlaceAnimalOpensSingleInterval(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	// The fixture already housed the male; placing again must conflict.
	_, _, err := fix.svc.PlaceAnimal(ctx, fix.male.ID, fix.cage2.ID)
	var conflict domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	history := fix.svc.OccupancyHistory(ctx, fix.male.ID)
	if len(history) != 1 || !history[0].Open() {
		t.Fatalf("expected a single open interval, got %+v", history)
	}
}

func TestPlaceDeceasedAnimalFails(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	req := CullingRequest{AnimalID: fix.male.ID}
	req.RequesterID = "tech-1"
	submitted, _, err := fix.svc.SubmitCullingRequest(ctx, req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := fix.svc.ApproveRequest(ctx, submitted.ID, "manager-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, _, err = fix.svc.PlaceAnimal(ctx, fix.male.ID, fix.cage2.ID)
	var ise domain.InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
}

func TestCloseOpenIntervalIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	store := fix.svc.Store()
	// Closing with no open interval is a no-op, not an error.
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if err := closeOpenInterval(tx, fix.male.ID, time.Now().UTC()); err != nil {
			return err
		}
		return closeOpenInterval(tx, fix.male.ID, time.Now().UTC())
	}); err != nil {
		t.Fatalf("close twice: %v", err)
	}

	history := fix.svc.OccupancyHistory(ctx, fix.male.ID)
	if len(history) != 1 || history[0].Open() {
		t.Fatalf("expected one closed interval, got %+v", history)
	}
	if _, housed := fix.svc.CurrentCage(ctx, fix.male.ID); housed {
		t.Fatalf("expected unhoused after close")
	}
}

func TestMoveAnimalKeepsLedgerContiguous(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	store := fix.svc.Store()
	at := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := moveAnimal(tx, fix.male.ID, fix.cage2.ID, at)
		return err
	}); err != nil {
		t.Fatalf("move: %v", err)
	}

	history := fix.svc.OccupancyHistory(ctx, fix.male.ID)
	if len(history) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(history))
	}
	if history[0].Open() || history[1].End != nil {
		t.Fatalf("expected closed then open, got %+v", history)
	}
	if history[0].End.After(history[1].Start) {
		t.Fatalf("intervals overlap")
	}
}

func TestMoveAnimalNudgesSameInstantTransfer(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	store := fix.svc.Store()
	open, ok := store.OpenInterval(fix.male.ID)
	if !ok {
		t.Fatalf("expected open interval")
	}

	// Moving at exactly the open interval's start must not produce an
	// overlapping pair.
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := moveAnimal(tx, fix.male.ID, fix.cage2.ID, open.Start)
		return err
	}); err != nil {
		t.Fatalf("move at start instant: %v", err)
	}

	history := fix.svc.OccupancyHistory(ctx, fix.male.ID)
	if len(history) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(history))
	}
	if !history[0].End.After(history[0].Start) {
		t.Fatalf("closed interval must end after start")
	}
}

func TestCageOccupants(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	occupants, err := fix.svc.CageOccupants(ctx, fix.cage1.ID)
	if err != nil {
		t.Fatalf("occupants: %v", err)
	}
	if len(occupants) != 1 || occupants[0].ID != fix.male.ID {
		t.Fatalf("expected male in cage1, got %+v", occupants)
	}

	if _, err := fix.svc.CageOccupants(ctx, "missing"); err == nil {
		t.Fatalf("expected NotFoundError for missing cage")
	}
}
