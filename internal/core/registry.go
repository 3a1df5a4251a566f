package core

import (
	"context"
	"fmt"
	"time"

	"colonyledger/pkg/domain"
)

// CreateStrain persists a new strain. Strain names are unique.
func (s *Service) CreateStrain(ctx context.Context, strain Strain) (Strain, Result, error) {
	var created Strain
	var res Result
	err := s.instrument(ctx, "create_strain", func(ctx context.Context) (string, error) {
		if strain.Name == "" {
			return "", domain.ValidationError{Message: "strain name is required"}
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			for _, existing := range tx.Snapshot().ListStrains() {
				if existing.Name == strain.Name {
					return domain.ValidationError{Message: fmt.Sprintf("strain name %q already in use", strain.Name)}
				}
			}
			var txErr error
			created, txErr = tx.CreateStrain(strain)
			return txErr
		})
		return created.ID, err
	})
	return created, res, err
}

// UpdateStrain mutates a strain using the provided mutator.
func (s *Service) UpdateStrain(ctx context.Context, id string, mutator func(*Strain) error) (Strain, Result, error) {
	var updated Strain
	var res Result
	err := s.instrument(ctx, "update_strain", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindStrain(id); !ok {
				return domain.NotFoundError{Entity: domain.EntityStrain, ID: id}
			}
			var txErr error
			updated, txErr = tx.UpdateStrain(id, mutator)
			return txErr
		})
		return id, err
	})
	return updated, res, err
}

// DeleteStrain removes a strain that no animal references.
func (s *Service) DeleteStrain(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.instrument(ctx, "delete_strain", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindStrain(id); !ok {
				return domain.NotFoundError{Entity: domain.EntityStrain, ID: id}
			}
			for _, a := range tx.Snapshot().ListAnimals() {
				if a.StrainID == id {
					return domain.InvalidStateError{Entity: domain.EntityStrain, ID: id, Detail: fmt.Sprintf("referenced by animal %s", a.ID)}
				}
			}
			return tx.DeleteStrain(id)
		})
		return id, err
	})
	return res, err
}

// ListStrains returns all strains from committed state.
func (s *Service) ListStrains(_ context.Context) []Strain {
	return s.store.ListStrains()
}

// CreateCage persists a new cage. Cage numbers are unique.
func (s *Service) CreateCage(ctx context.Context, cage Cage) (Cage, Result, error) {
	var created Cage
	var res Result
	err := s.instrument(ctx, "create_cage", func(ctx context.Context) (string, error) {
		if cage.Number == "" {
			return "", domain.ValidationError{Message: "cage number is required"}
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			for _, existing := range tx.Snapshot().ListCages() {
				if existing.Number == cage.Number {
					return domain.ValidationError{Message: fmt.Sprintf("cage number %q already in use", cage.Number)}
				}
			}
			var txErr error
			created, txErr = tx.CreateCage(cage)
			return txErr
		})
		return created.ID, err
	})
	return created, res, err
}

// UpdateCage mutates a cage using the provided mutator.
func (s *Service) UpdateCage(ctx context.Context, id string, mutator func(*Cage) error) (Cage, Result, error) {
	var updated Cage
	var res Result
	err := s.instrument(ctx, "update_cage", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindCage(id); !ok {
				return domain.NotFoundError{Entity: domain.EntityCage, ID: id}
			}
			var txErr error
			updated, txErr = tx.UpdateCage(id, mutator)
			return txErr
		})
		return id, err
	})
	return updated, res, err
}

// DeleteCage removes an empty cage. Cages with an open occupancy interval
// cannot be deleted.
func (s *Service) DeleteCage(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.instrument(ctx, "delete_cage", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindCage(id); !ok {
				return domain.NotFoundError{Entity: domain.EntityCage, ID: id}
			}
			for _, interval := range tx.Snapshot().ListOccupancyIntervals() {
				if interval.CageID == id && interval.Open() {
					return domain.InvalidStateError{Entity: domain.EntityCage, ID: id, Detail: "cage is occupied"}
				}
			}
			return tx.DeleteCage(id)
		})
		return id, err
	})
	return res, err
}

// GetCage retrieves a cage from committed state.
func (s *Service) GetCage(_ context.Context, id string) (Cage, error) {
	cage, ok := s.store.GetCage(id)
	if !ok {
		return Cage{}, domain.NotFoundError{Entity: domain.EntityCage, ID: id}
	}
	return cage, nil
}

// ListCages returns all cages from committed state.
func (s *Service) ListCages(_ context.Context) []Cage {
	return s.store.ListCages()
}

// CreateAnimal registers a new animal. The strain must exist, the tube
// number must be unique within the strain, and any recorded parents must
// exist with the matching sex. New animals always start alive.
func (s *Service) CreateAnimal(ctx context.Context, animal Animal) (Animal, Result, error) {
	var created Animal
	var res Result
	err := s.instrument(ctx, "create_animal", func(ctx context.Context) (string, error) {
		if animal.Sex != domain.SexMale && animal.Sex != domain.SexFemale {
			return "", domain.ValidationError{Message: fmt.Sprintf("invalid sex %q", animal.Sex)}
		}
		if animal.Genotype == "" {
			animal.Genotype = domain.GenotypeUnknown
		}
		animal.State = StateAlive
		animal.CullDate = nil
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindStrain(animal.StrainID); !ok {
				return domain.NotFoundError{Entity: domain.EntityStrain, ID: animal.StrainID}
			}
			for _, existing := range tx.Snapshot().ListAnimals() {
				if existing.StrainID == animal.StrainID && existing.TubeID == animal.TubeID {
					return domain.ValidationError{Message: fmt.Sprintf("tube %d already in use for strain %s", animal.TubeID, animal.StrainID)}
				}
			}
			if err := validateParent(tx, animal.MotherID, domain.SexFemale); err != nil {
				return err
			}
			if err := validateParent(tx, animal.FatherID, domain.SexMale); err != nil {
				return err
			}
			var txErr error
			created, txErr = tx.CreateAnimal(animal)
			return txErr
		})
		return created.ID, err
	})
	return created, res, err
}

func validateParent(tx Transaction, parentID *string, expected Sex) error {
	if parentID == nil || *parentID == "" {
		return nil
	}
	parent, ok := tx.FindAnimal(*parentID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityAnimal, ID: *parentID}
	}
	if parent.Sex != expected {
		return domain.ValidationError{Message: fmt.Sprintf("parent %s has sex %s, expected %s", parent.ID, parent.Sex, expected)}
	}
	return nil
}

// UpdateAnimal mutates descriptive animal fields. Direct state or cull-date
// edits are rejected; lifecycle moves go through the workflow or
// MarkAnimalForCulling.
func (s *Service) UpdateAnimal(ctx context.Context, id string, mutator func(*Animal) error) (Animal, Result, error) {
	var updated Animal
	var res Result
	err := s.instrument(ctx, "update_animal", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			before, ok := tx.FindAnimal(id)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityAnimal, ID: id}
			}
			var txErr error
			updated, txErr = tx.UpdateAnimal(id, func(a *Animal) error {
				if err := mutator(a); err != nil {
					return err
				}
				if a.State != before.State {
					return domain.ValidationError{Message: "animal state cannot be set directly"}
				}
				if a.Sex != before.Sex {
					return domain.ValidationError{Message: "animal sex is immutable"}
				}
				return nil
			})
			return txErr
		})
		return id, err
	})
	return updated, res, err
}

// DeleteAnimal removes an animal record along with nothing else; the
// occupancy ledger keeps closed history. Animals with an open interval
// cannot be deleted.
func (s *Service) DeleteAnimal(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.instrument(ctx, "delete_animal", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindAnimal(id); !ok {
				return domain.NotFoundError{Entity: domain.EntityAnimal, ID: id}
			}
			if _, open := tx.FindOpenInterval(id); open {
				return domain.InvalidStateError{Entity: domain.EntityAnimal, ID: id, Detail: "animal is housed; transfer or cull first"}
			}
			return tx.DeleteAnimal(id)
		})
		return id, err
	})
	return res, err
}

// GetAnimal retrieves an animal from committed state.
func (s *Service) GetAnimal(_ context.Context, id string) (Animal, error) {
	animal, ok := s.store.GetAnimal(id)
	if !ok {
		return Animal{}, domain.NotFoundError{Entity: domain.EntityAnimal, ID: id}
	}
	return animal, nil
}

// ListAnimals returns all animals from committed state.
func (s *Service) ListAnimals(_ context.Context) []Animal {
	return s.store.ListAnimals()
}

// MarkAnimalForCulling flags an alive animal for culling without waiting for
// a request, moving it to the pending-cull state.
func (s *Service) MarkAnimalForCulling(ctx context.Context, id string) (Animal, Result, error) {
	var updated Animal
	var res Result
	err := s.instrument(ctx, "mark_animal_for_culling", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			updated, txErr = transitionAnimal(tx, id, StatePendingCull, time.Time{})
			return txErr
		})
		return id, err
	})
	return updated, res, err
}

// AddWeightRecord appends a weight measurement for a living animal.
func (s *Service) AddWeightRecord(ctx context.Context, record WeightRecord) (WeightRecord, Result, error) {
	var created WeightRecord
	var res Result
	err := s.instrument(ctx, "add_weight_record", func(ctx context.Context) (string, error) {
		if record.Grams <= 0 {
			return "", domain.ValidationError{Message: "weight must be positive"}
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			animal, ok := tx.FindAnimal(record.AnimalID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityAnimal, ID: record.AnimalID}
			}
			if animal.State == StateDeceased {
				return domain.InvalidStateError{Entity: domain.EntityAnimal, ID: animal.ID, Detail: "animal is deceased"}
			}
			if record.MeasuredAt.IsZero() {
				record.MeasuredAt = s.clock.Now()
			}
			var txErr error
			created, txErr = tx.CreateWeightRecord(record)
			return txErr
		})
		return created.ID, err
	})
	return created, res, err
}

// WeightHistory returns an animal's weight records ordered by measurement time.
func (s *Service) WeightHistory(_ context.Context, animalID string) []WeightRecord {
	return s.store.ListWeightRecords(animalID)
}

// Notifications returns a recipient's notifications, newest first.
func (s *Service) Notifications(_ context.Context, recipientID string) []Notification {
	return s.store.ListNotifications(recipientID)
}

// UnreadNotifications returns the unread subset of a recipient's notifications.
func (s *Service) UnreadNotifications(_ context.Context, recipientID string) []Notification {
	var out []Notification
	for _, n := range s.store.ListNotifications(recipientID) {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}

// MarkNotificationRead flags a notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) (Notification, Result, error) {
	var updated Notification
	var res Result
	err := s.instrument(ctx, "mark_notification_read", func(ctx context.Context) (string, error) {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindNotification(id); !ok {
				return domain.NotFoundError{Entity: domain.EntityNotification, ID: id}
			}
			var txErr error
			updated, txErr = tx.UpdateNotification(id, func(n *Notification) error {
				n.Read = true
				return nil
			})
			return txErr
		})
		return id, err
	})
	return updated, res, err
}

// Ancestors returns every ancestor reachable through parent references.
func (s *Service) Ancestors(ctx context.Context, animalID string) ([]Animal, []string, error) {
	var ancestors []Animal
	var warnings []string
	err := s.store.View(ctx, func(view TransactionView) error {
		if _, ok := view.FindAnimal(animalID); !ok {
			return domain.NotFoundError{Entity: domain.EntityAnimal, ID: animalID}
		}
		ancestors, warnings = domain.Ancestors(view, animalID)
		return nil
	})
	return ancestors, warnings, err
}

// Descendants returns every animal descended from the given animal.
func (s *Service) Descendants(ctx context.Context, animalID string) ([]Animal, []string, error) {
	var descendants []Animal
	var warnings []string
	err := s.store.View(ctx, func(view TransactionView) error {
		if _, ok := view.FindAnimal(animalID); !ok {
			return domain.NotFoundError{Entity: domain.EntityAnimal, ID: animalID}
		}
		descendants, warnings = domain.Descendants(view, animalID)
		return nil
	})
	return descendants, warnings, err
}

// Parents returns the recorded mother and father of the animal.
func (s *Service) Parents(ctx context.Context, animalID string) ([]Animal, error) {
	var parents []Animal
	err := s.store.View(ctx, func(view TransactionView) error {
		if _, ok := view.FindAnimal(animalID); !ok {
			return domain.NotFoundError{Entity: domain.EntityAnimal, ID: animalID}
		}
		parents = domain.Parents(view, animalID)
		return nil
	})
	return parents, err
}
