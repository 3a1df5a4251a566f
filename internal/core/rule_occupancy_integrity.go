package core

import (
	"context"
	"fmt"
	"sort"

	"colonyledger/pkg/domain"
)

// OccupancyIntegrityRule blocks commits that would corrupt the occupancy
// ledger: overlapping intervals, ends at or before starts, more than one
// open interval per animal, or a deceased animal still holding a cage.
func OccupancyIntegrityRule() domain.Rule {
	return occupancyIntegrityRule{}
}

type occupancyIntegrityRule struct{}

func (occupancyIntegrityRule) Name() string { return "occupancy_integrity" }

func (occupancyIntegrityRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	byAnimal := make(map[string][]domain.OccupancyInterval)
	for _, interval := range view.ListOccupancyIntervals() {
		byAnimal[interval.AnimalID] = append(byAnimal[interval.AnimalID], interval)
	}

	for animalID, intervals := range byAnimal {
		sort.Slice(intervals, func(i, j int) bool { return intervals[i].Start.Before(intervals[j].Start) })

		openCount := 0
		for i, interval := range intervals {
			if interval.Open() {
				openCount++
			} else if !interval.End.After(interval.Start) {
				res.Violations = append(res.Violations, occupancyViolation(animalID,
					fmt.Sprintf("interval %s for animal %s ends at or before its start", interval.ID, animalID)))
			}
			if i == 0 {
				continue
			}
			prev := intervals[i-1]
			if prev.Open() || prev.End.After(interval.Start) {
				res.Violations = append(res.Violations, occupancyViolation(animalID,
					fmt.Sprintf("intervals %s and %s for animal %s overlap", prev.ID, interval.ID, animalID)))
			}
		}
		if openCount > 1 {
			res.Violations = append(res.Violations, occupancyViolation(animalID,
				fmt.Sprintf("animal %s has %d open intervals", animalID, openCount)))
		}
		// Closed intervals are history and may outlive their referents;
		// open intervals must point at live records.
		for _, interval := range intervals {
			if !interval.Open() {
				continue
			}
			if _, ok := view.FindCage(interval.CageID); !ok {
				res.Violations = append(res.Violations, occupancyViolation(animalID,
					fmt.Sprintf("open interval %s references missing cage %s", interval.ID, interval.CageID)))
			}
			animal, ok := view.FindAnimal(animalID)
			if !ok {
				res.Violations = append(res.Violations, occupancyViolation(animalID,
					fmt.Sprintf("open interval %s references missing animal %s", interval.ID, animalID)))
				continue
			}
			if animal.State == domain.StateDeceased {
				res.Violations = append(res.Violations, occupancyViolation(animalID,
					fmt.Sprintf("deceased animal %s still holds an open interval", animalID)))
			}
		}
	}

	return res, nil
}

func occupancyViolation(animalID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "occupancy_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityOccupancyInterval,
		EntityID: animalID,
	}
}
