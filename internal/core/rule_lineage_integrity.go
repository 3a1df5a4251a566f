package core

import (
	"context"
	"fmt"

	"colonyledger/pkg/domain"
)

// LineageIntegrityRule enforces parent reference constraints. Structural
// breaks (self-parent, missing parent, wrong parent sex) block the commit;
// strain mismatches and cycles introduced by imported data are surfaced as
// warnings so operators can repair the records.
func LineageIntegrityRule() domain.Rule {
	return lineageIntegrityRule{}
}

type lineageIntegrityRule struct{}

func (lineageIntegrityRule) Name() string { return "lineage_integrity" }

func (lineageIntegrityRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	animals := view.ListAnimals()
	index := make(map[string]domain.Animal, len(animals))
	for _, a := range animals {
		index[a.ID] = a
	}

	for _, child := range animals {
		checkParent(&res, index, child, child.MotherID, domain.SexFemale)
		checkParent(&res, index, child, child.FatherID, domain.SexMale)
	}

	for _, a := range animals {
		if onLineageCycle(index, a.ID) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lineage_integrity",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("animal %s sits on a lineage cycle", a.ID),
				Entity:   domain.EntityAnimal,
				EntityID: a.ID,
			})
		}
	}

	return res, nil
}

func checkParent(res *domain.Result, index map[string]domain.Animal, child domain.Animal, parentID *string, expected domain.Sex) {
	if parentID == nil || *parentID == "" {
		return
	}
	if *parentID == child.ID {
		res.Violations = append(res.Violations, lineageViolation(child.ID,
			fmt.Sprintf("animal %s references itself as a parent", child.ID)))
		return
	}
	parent, ok := index[*parentID]
	if !ok {
		res.Violations = append(res.Violations, lineageViolation(child.ID,
			fmt.Sprintf("animal %s references missing parent %s", child.ID, *parentID)))
		return
	}
	if parent.Sex != expected {
		res.Violations = append(res.Violations, lineageViolation(child.ID,
			fmt.Sprintf("animal %s parent %s has sex %s, expected %s", child.ID, parent.ID, parent.Sex, expected)))
	}
	if parent.StrainID != child.StrainID {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "lineage_integrity",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("animal %s parent %s has mismatched strain", child.ID, parent.ID),
			Entity:   domain.EntityAnimal,
			EntityID: child.ID,
		})
	}
}

// onLineageCycle reports whether following parent references from the animal
// ever returns to it.
func onLineageCycle(index map[string]domain.Animal, id string) bool {
	visited := make(map[string]struct{})
	queue := lineageParentRefs(index, id)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == id {
			return true
		}
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}
		queue = append(queue, lineageParentRefs(index, current)...)
	}
	return false
}

func lineageParentRefs(index map[string]domain.Animal, id string) []string {
	animal, ok := index[id]
	if !ok {
		return nil
	}
	var refs []string
	if animal.MotherID != nil && *animal.MotherID != "" {
		refs = append(refs, *animal.MotherID)
	}
	if animal.FatherID != nil && *animal.FatherID != "" {
		refs = append(refs, *animal.FatherID)
	}
	return refs
}

func lineageViolation(entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "lineage_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityAnimal,
		EntityID: entityID,
	}
}
