package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"

	"colonyledger/pkg/domain"
)

// Property: for any sequence of placements, transfers, and closures, each
// animal holds at most one open interval and its closed intervals never
// overlap.
func TestPropertyOccupancyInvariantsHold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		clock := steppingClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Second)
		svc := NewInMemoryService(NewDefaultRulesEngine(), WithClock(clock))

		strain, _, err := svc.CreateStrain(ctx, Strain{Name: "BALB/c"})
		if err != nil {
			rt.Fatalf("create strain: %v", err)
		}

		cageCount := rapid.IntRange(2, 4).Draw(rt, "cages")
		var cages []Cage
		for i := 0; i < cageCount; i++ {
			cage, _, err := svc.CreateCage(ctx, Cage{Number: string(rune('A' + i))})
			if err != nil {
				rt.Fatalf("create cage: %v", err)
			}
			cages = append(cages, cage)
		}

		animalCount := rapid.IntRange(1, 3).Draw(rt, "animals")
		var animals []Animal
		for i := 0; i < animalCount; i++ {
			animal, _, err := svc.CreateAnimal(ctx, Animal{StrainID: strain.ID, TubeID: i + 1, Sex: "F"})
			if err != nil {
				rt.Fatalf("create animal: %v", err)
			}
			animals = append(animals, animal)
		}

		steps := rapid.IntRange(1, 25).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			animal := animals[rapid.IntRange(0, len(animals)-1).Draw(rt, "animal")]
			cage := cages[rapid.IntRange(0, len(cages)-1).Draw(rt, "cage")]
			store := svc.Store()

			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				_, _, err := svc.PlaceAnimal(ctx, animal.ID, cage.ID)
				var conflict domain.ConflictError
				if err != nil && !errors.As(err, &conflict) {
					rt.Fatalf("place: %v", err)
				}
			case 1:
				if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
					_, err := moveAnimal(tx, animal.ID, cage.ID, clock.Now())
					return err
				}); err != nil {
					rt.Fatalf("move: %v", err)
				}
			case 2:
				if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
					return closeOpenInterval(tx, animal.ID, clock.Now())
				}); err != nil {
					rt.Fatalf("close: %v", err)
				}
			}
		}

		for _, animal := range animals {
			history := svc.OccupancyHistory(ctx, animal.ID)
			open := 0
			for i, interval := range history {
				if interval.Open() {
					open++
				} else if !interval.End.After(interval.Start) {
					rt.Fatalf("interval %s ends at or before start", interval.ID)
				}
				if i > 0 {
					prev := history[i-1]
					if prev.Open() {
						rt.Fatalf("open interval %s is not last", prev.ID)
					}
					if prev.End.After(interval.Start) {
						rt.Fatalf("intervals %s and %s overlap", prev.ID, interval.ID)
					}
				}
			}
			if open > 1 {
				rt.Fatalf("animal %s has %d open intervals", animal.ID, open)
			}
		}
	})
}
