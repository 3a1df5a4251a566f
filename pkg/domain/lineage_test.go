package domain

import (
	"sort"
	"strings"
	"testing"
)

type mapLineageView map[string]Animal

func (v mapLineageView) FindAnimal(id string) (Animal, bool) {
	a, ok := v[id]
	return a, ok
}

func (v mapLineageView) ListAnimals() []Animal {
	out := make([]Animal, 0, len(v))
	for _, a := range v {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func pedigree() mapLineageView {
	gm := Animal{Base: Base{ID: "gm"}, Sex: SexFemale}
	gf := Animal{Base: Base{ID: "gf"}, Sex: SexMale}
	gmID, gfID := gm.ID, gf.ID
	mother := Animal{Base: Base{ID: "mother"}, Sex: SexFemale, MotherID: &gmID, FatherID: &gfID}
	father := Animal{Base: Base{ID: "father"}, Sex: SexMale}
	motherID, fatherID := mother.ID, father.ID
	pup := Animal{Base: Base{ID: "pup"}, Sex: SexMale, MotherID: &motherID, FatherID: &fatherID}
	return mapLineageView{
		"gm": gm, "gf": gf, "mother": mother, "father": father, "pup": pup,
	}
}

func ids(animals []Animal) []string {
	out := make([]string, len(animals))
	for i, a := range animals {
		out[i] = a.ID
	}
	sort.Strings(out)
	return out
}

func TestAncestorsWalksBothSides(t *testing.T) {
	view := pedigree()
	ancestors, warnings := Ancestors(view, "pup")
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	got := ids(ancestors)
	want := []string{"father", "gf", "gm", "mother"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("ancestors = %v, want %v", got, want)
	}
}

func TestAncestorsReportsMissingParent(t *testing.T) {
	view := pedigree()
	ghost := "ghost"
	father := view["father"]
	father.FatherID = &ghost
	view["father"] = father

	_, warnings := Ancestors(view, "pup")
	if len(warnings) != 1 || !strings.Contains(warnings[0], "missing ancestor ghost") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestAncestorsSurvivesCycle(t *testing.T) {
	view := pedigree()
	pupID := "pup"
	gm := view["gm"]
	gm.MotherID = &pupID
	view["gm"] = gm

	ancestors, warnings := Ancestors(view, "pup")
	if len(warnings) == 0 {
		t.Fatalf("expected cycle warning")
	}
	if !strings.Contains(warnings[0], "cycle") {
		t.Fatalf("warnings = %v", warnings)
	}
	if len(ancestors) != 4 {
		t.Fatalf("ancestors = %v", ids(ancestors))
	}
}

func TestDescendantsCollectsAllGenerations(t *testing.T) {
	view := pedigree()
	descendants, warnings := Descendants(view, "gm")
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	got := ids(descendants)
	want := []string{"mother", "pup"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("descendants = %v, want %v", got, want)
	}
}

func TestParentsSkipsDanglingReferences(t *testing.T) {
	view := pedigree()
	delete(view, "father")

	parents := Parents(view, "pup")
	if len(parents) != 1 || parents[0].ID != "mother" {
		t.Fatalf("parents = %v", ids(parents))
	}

	if got := Parents(view, "gm"); len(got) != 0 {
		t.Fatalf("expected no parents, got %v", ids(got))
	}
}
