package core

import (
	"context"
	"fmt"
	"time"

	"colonyledger/pkg/domain"
)

// openInterval opens a new occupancy interval for the animal in the cage.
// The animal must not already hold an open interval.
func openInterval(tx Transaction, animalID, cageID string, start time.Time) (OccupancyInterval, error) {
	if existing, ok := tx.FindOpenInterval(animalID); ok {
		return OccupancyInterval{}, domain.ConflictError{
			Entity: domain.EntityAnimal,
			ID:     animalID,
			Detail: fmt.Sprintf("animal already housed in cage %s", existing.CageID),
		}
	}
	return tx.CreateOccupancyInterval(OccupancyInterval{
		AnimalID: animalID,
		CageID:   cageID,
		Start:    start,
	})
}

// closeOpenInterval ends the animal's open interval at the given time. It is
// idempotent: an animal with no open interval is left untouched.
func closeOpenInterval(tx Transaction, animalID string, end time.Time) error {
	interval, ok := tx.FindOpenInterval(animalID)
	if !ok {
		return nil
	}
	if !end.After(interval.Start) {
		end = interval.Start.Add(time.Nanosecond)
	}
	_, err := tx.UpdateOccupancyInterval(interval.ID, func(i *OccupancyInterval) error {
		i.End = &end
		return nil
	})
	return err
}

// moveAnimal closes any open interval and opens a new one in the destination
// cage within the same transaction, keeping the ledger gap-free at the
// moment of transfer.
func moveAnimal(tx Transaction, animalID, destinationCageID string, at time.Time) (OccupancyInterval, error) {
	if _, ok := tx.FindCage(destinationCageID); !ok {
		return OccupancyInterval{}, domain.NotFoundError{Entity: domain.EntityCage, ID: destinationCageID}
	}
	// A transfer stamped at or before the open interval's start would leave
	// the closed and new intervals overlapping; nudge it forward instead.
	if open, ok := tx.FindOpenInterval(animalID); ok && !at.After(open.Start) {
		at = open.Start.Add(time.Nanosecond)
	}
	if err := closeOpenInterval(tx, animalID, at); err != nil {
		return OccupancyInterval{}, err
	}
	return openInterval(tx, animalID, destinationCageID, at)
}

// PlaceAnimal houses an unhoused living animal in a cage, opening its first
// occupancy interval.
func (s *Service) PlaceAnimal(ctx context.Context, animalID, cageID string) (OccupancyInterval, Result, error) {
	var created OccupancyInterval
	var res Result
	err := s.instrument(ctx, "place_animal", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			animal, ok := tx.FindAnimal(animalID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityAnimal, ID: animalID}
			}
			if animal.State == StateDeceased {
				return domain.InvalidStateError{Entity: domain.EntityAnimal, ID: animalID, Detail: "animal is deceased"}
			}
			if _, ok := tx.FindCage(cageID); !ok {
				return domain.NotFoundError{Entity: domain.EntityCage, ID: cageID}
			}
			var txErr error
			created, txErr = openInterval(tx, animalID, cageID, s.clock.Now())
			return txErr
		})
		return created.ID, err
	})
	return created, res, err
}

// CurrentCage resolves the cage an animal is presently housed in. The second
// return value is false for unhoused animals.
func (s *Service) CurrentCage(_ context.Context, animalID string) (Cage, bool) {
	interval, ok := s.store.OpenInterval(animalID)
	if !ok {
		return Cage{}, false
	}
	return s.store.GetCage(interval.CageID)
}

// OccupancyHistory lists an animal's occupancy intervals ordered by start.
func (s *Service) OccupancyHistory(_ context.Context, animalID string) []OccupancyInterval {
	return s.store.OccupancyHistory(animalID)
}

// CageOccupants lists the animals currently housed in the cage.
func (s *Service) CageOccupants(ctx context.Context, cageID string) ([]Animal, error) {
	var occupants []Animal
	err := s.store.View(ctx, func(view TransactionView) error {
		if _, ok := view.FindCage(cageID); !ok {
			return domain.NotFoundError{Entity: domain.EntityCage, ID: cageID}
		}
		for _, interval := range view.ListOccupancyIntervals() {
			if interval.CageID != cageID || !interval.Open() {
				continue
			}
			if animal, ok := view.FindAnimal(interval.AnimalID); ok {
				occupants = append(occupants, animal)
			}
		}
		return nil
	})
	return occupants, err
}
