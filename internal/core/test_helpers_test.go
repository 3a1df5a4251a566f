package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

// steppingClock returns a deterministic clock that advances by step on every
// read, so intervals opened in successive operations never collide.
func steppingClock(start time.Time, step time.Duration) Clock {
	var mu sync.Mutex
	current := start
	return ClockFunc(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(step)
		return current
	})
}

type colonyFixture struct {
	svc    *Service
	strain Strain
	cage1  Cage
	cage2  Cage
	cage3  Cage
	male   Animal
	female Animal
}

// newColonyFixture builds a service with a strain, three cages, and a housed
// male/female pair: the male in cage1, the female in cage2.
func newColonyFixture(t *testing.T, opts ...ServiceOption) colonyFixture {
	t.Helper()
	ctx := context.Background()

	opts = append([]ServiceOption{
		WithClock(steppingClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), time.Second)),
	}, opts...)
	svc := NewInMemoryService(NewDefaultRulesEngine(), opts...)

	strain, _, err := svc.CreateStrain(ctx, Strain{Name: "C57BL/6"})
	if err != nil {
		t.Fatalf("create strain: %v", err)
	}
	cage1, _, err := svc.CreateCage(ctx, Cage{Number: "C-001", Type: "standard", Location: "room 1"})
	if err != nil {
		t.Fatalf("create cage1: %v", err)
	}
	cage2, _, err := svc.CreateCage(ctx, Cage{Number: "C-002", Type: "standard", Location: "room 1"})
	if err != nil {
		t.Fatalf("create cage2: %v", err)
	}
	cage3, _, err := svc.CreateCage(ctx, Cage{Number: "C-003", Type: "breeding", Location: "room 2"})
	if err != nil {
		t.Fatalf("create cage3: %v", err)
	}
	male, _, err := svc.CreateAnimal(ctx, Animal{StrainID: strain.ID, TubeID: 1, Sex: "M", DateOfBirth: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("create male: %v", err)
	}
	female, _, err := svc.CreateAnimal(ctx, Animal{StrainID: strain.ID, TubeID: 2, Sex: "F", DateOfBirth: time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("create female: %v", err)
	}
	if _, _, err := svc.PlaceAnimal(ctx, male.ID, cage1.ID); err != nil {
		t.Fatalf("place male: %v", err)
	}
	if _, _, err := svc.PlaceAnimal(ctx, female.ID, cage2.ID); err != nil {
		t.Fatalf("place female: %v", err)
	}

	return colonyFixture{
		svc:    svc,
		strain: strain,
		cage1:  cage1,
		cage2:  cage2,
		cage3:  cage3,
		male:   male,
		female: female,
	}
}
