package core

import (
	"fmt"
	"time"

	"colonyledger/pkg/domain"
)

// allowedTransitions is the canonical lifecycle machine. Deceased is terminal
// and absent as a source state.
var allowedTransitions = map[AnimalState]map[AnimalState]struct{}{
	StateAlive: {
		StateBreeding:    {},
		StatePendingCull: {},
		StateDeceased:    {},
	},
	StateBreeding: {
		StateAlive:    {},
		StateDeceased: {},
	},
	StatePendingCull: {
		StateDeceased: {},
	},
}

func transitionAllowed(from, to AnimalState) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// transitionAnimal moves an animal to the target state, enforcing the
// lifecycle machine. A non-zero cullDate is stamped when the target is
// deceased; otherwise the deceased timestamp defaults to the transaction's
// view of now via the caller.
func transitionAnimal(tx Transaction, id string, target AnimalState, cullDate time.Time) (Animal, error) {
	animal, ok := tx.FindAnimal(id)
	if !ok {
		return Animal{}, domain.NotFoundError{Entity: domain.EntityAnimal, ID: id}
	}
	if !transitionAllowed(animal.State, target) {
		return Animal{}, domain.InvalidStateError{
			Entity: domain.EntityAnimal,
			ID:     id,
			Detail: fmt.Sprintf("cannot transition from %s to %s", animal.State, target),
		}
	}
	return tx.UpdateAnimal(id, func(a *Animal) error {
		a.State = target
		if target == StateDeceased && !cullDate.IsZero() {
			cd := cullDate
			a.CullDate = &cd
		}
		return nil
	})
}
