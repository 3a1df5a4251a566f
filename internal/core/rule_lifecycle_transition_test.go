package core

import (
	"context"
	"errors"
	"testing"

	"colonyledger/internal/infra/persistence/memory"
	"colonyledger/pkg/domain"
)

func lifecycleRuleStore(t *testing.T) (*memory.Store, Animal) {
	t.Helper()
	store := memory.NewStore(NewRulesEngine(LifecycleTransitionRule()))
	var animal Animal
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		animal, err = tx.CreateAnimal(Animal{TubeID: 1, Sex: "M", State: StateAlive})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store, animal
}

func TestLifecycleRuleBlocksNonAliveCreation(t *testing.T) {
	store, _ := lifecycleRuleStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateAnimal(Animal{TubeID: 2, Sex: "F", State: StateDeceased})
		return err
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
}

func TestLifecycleRuleBlocksUnknownState(t *testing.T) {
	store, animal := lifecycleRuleStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateAnimal(animal.ID, func(a *Animal) error {
			a.State = "hibernating"
			return nil
		})
		return err
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
}

func TestLifecycleRuleBlocksResurrection(t *testing.T) {
	store, animal := lifecycleRuleStore(t)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateAnimal(animal.ID, func(a *Animal) error {
			a.State = StateDeceased
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("cull: %v", err)
	}

	_, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateAnimal(animal.ID, func(a *Animal) error {
			a.State = StateAlive
			return nil
		})
		return err
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
}

func TestLifecycleRuleBlocksReopeningTerminalRequest(t *testing.T) {
	store, animal := lifecycleRuleStore(t)
	ctx := context.Background()

	var req CullingRequest
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		req, err = tx.CreateCullingRequest(CullingRequest{
			RequestBase: domain.RequestBase{RequesterID: "tech-1", Status: StatusPending},
			AnimalID:    animal.ID,
		})
		if err != nil {
			return err
		}
		req, err = tx.UpdateCullingRequest(req.ID, func(r *CullingRequest) error {
			r.Status = StatusRejected
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	_, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateCullingRequest(req.ID, func(r *CullingRequest) error {
			r.Status = StatusPending
			return nil
		})
		return err
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
}
