package core

import (
	"context"
	"fmt"

	"colonyledger/pkg/domain"
)

// LifecycleTransitionRule blocks illegal animal state transitions and
// request status moves out of a terminal state. It inspects the change set
// rather than the whole snapshot: a commit is only judged on what it moved.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

var validAnimalStates = map[domain.AnimalState]struct{}{
	domain.StateAlive:       {},
	domain.StateBreeding:    {},
	domain.StatePendingCull: {},
	domain.StateDeceased:    {},
}

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	for _, change := range changes {
		switch change.Entity {
		case domain.EntityAnimal:
			evaluateAnimalChange(&res, change)
		case domain.EntityTransferRequest, domain.EntityBreedingRequest, domain.EntityCullingRequest:
			evaluateRequestChange(&res, change)
		}
	}

	return res, nil
}

func evaluateAnimalChange(res *domain.Result, change domain.Change) {
	after, ok := change.After.(domain.Animal)
	if !ok {
		return
	}
	if _, valid := validAnimalStates[after.State]; !valid {
		res.Violations = append(res.Violations, lifecycleViolation(domain.EntityAnimal, after.ID,
			fmt.Sprintf("animal %s has unknown state %q", after.ID, after.State)))
		return
	}
	if change.Action == domain.ActionCreate && after.State != domain.StateAlive {
		res.Violations = append(res.Violations, lifecycleViolation(domain.EntityAnimal, after.ID,
			fmt.Sprintf("animal %s must be created alive, got %s", after.ID, after.State)))
		return
	}
	before, ok := change.Before.(domain.Animal)
	if !ok || before.State == after.State {
		return
	}
	if !transitionAllowed(before.State, after.State) {
		res.Violations = append(res.Violations, lifecycleViolation(domain.EntityAnimal, after.ID,
			fmt.Sprintf("animal %s cannot transition from %s to %s", after.ID, before.State, after.State)))
	}
}

func evaluateRequestChange(res *domain.Result, change domain.Change) {
	if change.Action != domain.ActionUpdate {
		return
	}
	before, ok := change.Before.(domain.Request)
	if !ok {
		return
	}
	after, ok := change.After.(domain.Request)
	if !ok {
		return
	}
	if before.CurrentStatus() == after.CurrentStatus() {
		return
	}
	if before.CurrentStatus() != domain.StatusPending {
		res.Violations = append(res.Violations, lifecycleViolation(change.Entity, after.RequestID(),
			fmt.Sprintf("request %s is terminal in status %s", after.RequestID(), before.CurrentStatus())))
	}
}

func lifecycleViolation(entity domain.EntityType, entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "lifecycle_transition",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
}
