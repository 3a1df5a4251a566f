package domain

import "fmt"

// LineageView is the minimal read surface lineage traversals need.
type LineageView interface {
	FindAnimal(id string) (Animal, bool)
	ListAnimals() []Animal
}

// Ancestors walks the mother/father references of the given animal and
// returns every reachable ancestor. The parent graph is acyclic by
// construction, but corrupted data could introduce a back-edge; the walk
// tracks visited IDs and reports any detected cycle as a warning instead of
// looping.
func Ancestors(view LineageView, id string) ([]Animal, []string) {
	var ancestors []Animal
	var warnings []string
	visited := map[string]struct{}{id: {}}

	queue := parentIDs(view, id)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, seen := visited[current]; seen {
			warnings = append(warnings, fmt.Sprintf("lineage cycle detected at animal %s", current))
			continue
		}
		visited[current] = struct{}{}
		animal, ok := view.FindAnimal(current)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("animal %s references missing ancestor %s", id, current))
			continue
		}
		ancestors = append(ancestors, animal)
		queue = append(queue, parentIDs(view, current)...)
	}
	return ancestors, warnings
}

// Descendants returns every animal that lists the given animal among its
// ancestors, using a child index built from the snapshot. Cycles from bad
// data are reported as warnings.
func Descendants(view LineageView, id string) ([]Animal, []string) {
	children := make(map[string][]Animal)
	for _, a := range view.ListAnimals() {
		if a.MotherID != nil {
			children[*a.MotherID] = append(children[*a.MotherID], a)
		}
		if a.FatherID != nil {
			children[*a.FatherID] = append(children[*a.FatherID], a)
		}
	}

	var descendants []Animal
	var warnings []string
	visited := map[string]struct{}{id: {}}

	queue := append([]Animal(nil), children[id]...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, seen := visited[current.ID]; seen {
			warnings = append(warnings, fmt.Sprintf("lineage cycle detected at animal %s", current.ID))
			continue
		}
		visited[current.ID] = struct{}{}
		descendants = append(descendants, current)
		queue = append(queue, children[current.ID]...)
	}
	return descendants, warnings
}

// Parents returns the recorded mother and father of the animal, in that
// order, skipping unset or dangling references.
func Parents(view LineageView, id string) []Animal {
	var parents []Animal
	for _, pid := range parentIDs(view, id) {
		if parent, ok := view.FindAnimal(pid); ok {
			parents = append(parents, parent)
		}
	}
	return parents
}

func parentIDs(view LineageView, id string) []string {
	animal, ok := view.FindAnimal(id)
	if !ok {
		return nil
	}
	var ids []string
	if animal.MotherID != nil && *animal.MotherID != "" {
		ids = append(ids, *animal.MotherID)
	}
	if animal.FatherID != nil && *animal.FatherID != "" {
		ids = append(ids, *animal.FatherID)
	}
	return ids
}
