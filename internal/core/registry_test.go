package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"colonyledger/pkg/domain"
)

func TestCreateAnimalValidation(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	t.Run("unknown strain", func(t *testing.T) {
		_, _, err := fix.svc.CreateAnimal(ctx, Animal{StrainID: "missing", TubeID: 9, Sex: "M"})
		var nf domain.NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
	})

	t.Run("duplicate tube within strain", func(t *testing.T) {
		_, _, err := fix.svc.CreateAnimal(ctx, Animal{StrainID: fix.strain.ID, TubeID: fix.male.TubeID, Sex: "M"})
		var ve domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("invalid sex", func(t *testing.T) {
		_, _, err := fix.svc.CreateAnimal(ctx, Animal{StrainID: fix.strain.ID, TubeID: 10, Sex: "X"})
		var ve domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("mother must be female", func(t *testing.T) {
		mother := fix.male.ID
		_, _, err := fix.svc.CreateAnimal(ctx, Animal{StrainID: fix.strain.ID, TubeID: 11, Sex: "F", MotherID: &mother})
		var ve domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("valid parents recorded", func(t *testing.T) {
		mother := fix.female.ID
		father := fix.male.ID
		pup, _, err := fix.svc.CreateAnimal(ctx, Animal{
			StrainID:    fix.strain.ID,
			TubeID:      12,
			Sex:         "F",
			DateOfBirth: time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC),
			MotherID:    &mother,
			FatherID:    &father,
		})
		if err != nil {
			t.Fatalf("create pup: %v", err)
		}
		if pup.State != StateAlive {
			t.Fatalf("new animals start alive, got %s", pup.State)
		}
		if pup.Genotype != domain.GenotypeUnknown {
			t.Fatalf("expected default genotype, got %s", pup.Genotype)
		}
		parents, err := fix.svc.Parents(ctx, pup.ID)
		if err != nil {
			t.Fatalf("parents: %v", err)
		}
		if len(parents) != 2 {
			t.Fatalf("expected 2 parents, got %d", len(parents))
		}
	})
}

func TestUpdateAnimalGuardsStateAndSex(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	_, _, err := fix.svc.UpdateAnimal(ctx, fix.male.ID, func(a *Animal) error {
		a.State = StateDeceased
		return nil
	})
	var ve domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for state edit, got %v", err)
	}

	_, _, err = fix.svc.UpdateAnimal(ctx, fix.male.ID, func(a *Animal) error {
		a.Sex = "F"
		return nil
	})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for sex edit, got %v", err)
	}

	updated, _, err := fix.svc.UpdateAnimal(ctx, fix.male.ID, func(a *Animal) error {
		a.Weaned = true
		weaned := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		a.WeanedDate = &weaned
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Weaned || updated.WeanedDate == nil {
		t.Fatalf("expected weaned fields set, got %+v", updated)
	}
}

func TestDeleteGuards(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	// A housed animal cannot be deleted.
	_, err := fix.svc.DeleteAnimal(ctx, fix.male.ID)
	var ise domain.InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}

	// An occupied cage cannot be deleted.
	_, err = fix.svc.DeleteCage(ctx, fix.cage1.ID)
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}

	// A referenced strain cannot be deleted.
	_, err = fix.svc.DeleteStrain(ctx, fix.strain.ID)
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}

	// An empty cage can.
	if _, err := fix.svc.DeleteCage(ctx, fix.cage3.ID); err != nil {
		t.Fatalf("delete empty cage: %v", err)
	}
}

func TestDuplicateStrainName(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	_, _, err := fix.svc.CreateStrain(ctx, Strain{Name: fix.strain.Name})
	var ve domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDuplicateCageNumber(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	_, _, err := fix.svc.CreateCage(ctx, Cage{Number: fix.cage1.Number, Type: "standard", Location: "room 9"})
	var ve domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := len(fix.svc.ListCages(ctx)); got != 3 {
		t.Fatalf("expected 3 cages, got %d", got)
	}
}

func TestWeightRecords(t *testing.T) {
	ctx := context.Background()
	fix := newColonyFixture(t)

	for _, grams := range []float64{18.5, 19.2, 20.1} {
		if _, _, err := fix.svc.AddWeightRecord(ctx, WeightRecord{AnimalID: fix.male.ID, Grams: grams}); err != nil {
			t.Fatalf("add weight: %v", err)
		}
	}
	history := fix.svc.WeightHistory(ctx, fix.male.ID)
	if len(history) != 3 {
		t.Fatalf("expected 3 records, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].MeasuredAt.Before(history[i-1].MeasuredAt) {
			t.Fatalf("history out of order")
		}
	}

	_, _, err := fix.svc.AddWeightRecord(ctx, WeightRecord{AnimalID: fix.male.ID, Grams: -1})
	var ve domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNotificationsReadFlow(t *testing.T) {
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

	unread := fix.svc.UnreadNotifications(ctx, "tech-1")
	if len(unread) != 1 {
		t.Fatalf("expected 1 unread, got %d", len(unread))
	}
	if _, _, err := fix.svc.MarkNotificationRead(ctx, unread[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if got := fix.svc.UnreadNotifications(ctx, "tech-1"); len(got) != 0 {
		t.Fatalf("expected none unread, got %d", len(got))
	}
	if got := fix.svc.Notifications(ctx, "tech-1"); len(got) != 1 {
		t.Fatalf("read notifications remain listed, got %d", len(got))
	}

	_, _, err = fix.svc.MarkNotificationRead(ctx, "no-such-notification")
	var nfe domain.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nfe.Entity != domain.EntityNotification || nfe.ID != "no-such-notification" {
		t.Fatalf("unexpected not-found detail: %+v", nfe)
	}
}
