package facet

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/siftkit/sift/params"
)

// beersFacet declares the two-level categories facet used across the tests.
func beersFacet(t *testing.T, opts ...params.HierarchicalFacetOption) params.HierarchicalFacet {
	t.Helper()
	all := append([]params.HierarchicalFacetOption{params.WithSeparator(" | ")}, opts...)
	f, err := params.NewHierarchicalFacet("categories",
		[]string{"categories.lvl0", "categories.lvl1"}, all...)
	if err != nil {
		t.Fatalf("NewHierarchicalFacet: %v", err)
	}
	return f
}

func stateWith(t *testing.T, f params.HierarchicalFacet, refinement string) *params.State {
	t.Helper()
	st, err := params.New().WithHierarchicalFacets(f)
	if err != nil {
		t.Fatalf("WithHierarchicalFacets: %v", err)
	}
	if refinement != "" {
		st, err = st.AddHierarchicalFacetRefinement(f.Name(), refinement)
		if err != nil {
			t.Fatalf("AddHierarchicalFacetRefinement: %v", err)
		}
	}
	return st
}

func checkNode(t *testing.T, n *Node, name, path string, count int, refined bool, children int) {
	t.Helper()
	if n.Name != name {
		t.Errorf("Name = %q, want %q", n.Name, name)
	}
	if n.Path != path {
		t.Errorf("Path = %q, want %q", n.Path, path)
	}
	if n.Count != count {
		t.Errorf("%s: Count = %d, want %d", path, n.Count, count)
	}
	if n.IsRefined != refined {
		t.Errorf("%s: IsRefined = %v, want %v", path, n.IsRefined, refined)
	}
	if children == 0 {
		if n.Data != nil {
			t.Errorf("%s: Data = %v, want nil", path, n.Data)
		}
	} else if len(n.Data) != children {
		t.Fatalf("%s: len(Data) = %d, want %d", path, len(n.Data), children)
	}
}

func TestBuild_RefinedTwoLevels(t *testing.T) {
	f := beersFacet(t)
	st := stateWith(t, f, "beers | IPA")
	tree := Build(f, st, []map[string]int{
		{"beers": 3},
		{"beers | IPA": 2, "beers | Belgian": 1},
	})

	if tree.Name != "categories" {
		t.Errorf("Name = %q", tree.Name)
	}
	if tree.Count != nil || tree.Path != nil || !tree.IsRefined {
		t.Errorf("envelope = {count:%v path:%v isRefined:%v}, want {nil nil true}",
			tree.Count, tree.Path, tree.IsRefined)
	}
	if len(tree.Data) != 1 {
		t.Fatalf("len(Data) = %d, want 1", len(tree.Data))
	}

	beers := tree.Data[0]
	checkNode(t, beers, "beers", "beers", 3, true, 2)
	checkNode(t, beers.Data[0], "IPA", "beers | IPA", 2, true, 0)
	checkNode(t, beers.Data[1], "Belgian", "beers | Belgian", 1, false, 0)
}

func TestBuild_NoRefinement(t *testing.T) {
	f := beersFacet(t)
	st := stateWith(t, f, "")
	tree := Build(f, st, []map[string]int{
		{"beers": 3, "wines": 5},
	})
	if len(tree.Data) != 2 {
		t.Fatalf("len(Data) = %d, want 2", len(tree.Data))
	}
	checkNode(t, tree.Data[0], "wines", "wines", 5, false, 0)
	checkNode(t, tree.Data[1], "beers", "beers", 3, false, 0)
	if tree.Count != nil || tree.Path != nil || !tree.IsRefined {
		t.Error("envelope shape depends on refinement state")
	}
}

func TestBuild_FirstLevelWinsOnDuplicatePath(t *testing.T) {
	f := beersFacet(t)
	st := stateWith(t, f, "beers")
	tree := Build(f, st, []map[string]int{
		{"beers": 3},
		{"beers": 7, "beers | IPA": 2},
	})
	checkNode(t, tree.Data[0], "beers", "beers", 3, true, 1)
}

func TestBuild_ChildOrdering(t *testing.T) {
	f := beersFacet(t)
	st := stateWith(t, f, "beers")
	tree := Build(f, st, []map[string]int{
		{"beers": 9},
		{"beers | Stout": 2, "beers | IPA": 4, "beers | Amber": 2},
	})
	kids := tree.Data[0].Data
	if len(kids) != 3 {
		t.Fatalf("len(kids) = %d", len(kids))
	}
	// count descending, ties broken by name
	if kids[0].Name != "IPA" || kids[1].Name != "Amber" || kids[2].Name != "Stout" {
		t.Errorf("order = [%s %s %s], want [IPA Amber Stout]",
			kids[0].Name, kids[1].Name, kids[2].Name)
	}
}

func TestBuild_MalformedPathsSkipped(t *testing.T) {
	f := beersFacet(t)
	st := stateWith(t, f, "")
	tree := Build(f, st, []map[string]int{
		{"beers": 3, "": 1},
		{"beers | ": 2, " | IPA": 2, "beers | IPA": 2, "orphan | deep": 9},
	})
	if len(tree.Data) != 1 {
		t.Fatalf("len(Data) = %d, want 1 (malformed and orphan paths skipped)", len(tree.Data))
	}
	beers := tree.Data[0]
	if len(beers.Data) != 1 || beers.Data[0].Path != "beers | IPA" {
		t.Errorf("beers children = %v", beers.Data)
	}
}

func TestBuild_ShowParentLevelFalse(t *testing.T) {
	f := beersFacet(t, params.WithoutParentLevel())
	st := stateWith(t, f, "beers | IPA")
	tree := Build(f, st, []map[string]int{
		{"beers": 3, "wines": 5},
		{"beers | IPA": 2, "beers | Belgian": 1},
	})
	if len(tree.Data) != 1 {
		t.Fatalf("len(Data) = %d, want only the refined branch", len(tree.Data))
	}
	beers := tree.Data[0]
	checkNode(t, beers, "beers", "beers", 3, true, 1)
	checkNode(t, beers.Data[0], "IPA", "beers | IPA", 2, true, 0)
}

func TestBuild_ShowParentLevelFalse_NoRefinement(t *testing.T) {
	f := beersFacet(t, params.WithoutParentLevel())
	st := stateWith(t, f, "")
	tree := Build(f, st, []map[string]int{{"beers": 3, "wines": 5}})
	if len(tree.Data) != 2 {
		t.Errorf("len(Data) = %d, want the full level without a refinement", len(tree.Data))
	}
}

func TestBuild_RootPath(t *testing.T) {
	f := beersFacet(t, params.WithRootPath("beers"))
	st := stateWith(t, f, "")
	tree := Build(f, st, []map[string]int{
		{"beers": 3, "wines": 5},
		{"beers | IPA": 2, "wines | red": 4},
	})
	if len(tree.Data) != 1 {
		t.Fatalf("len(Data) = %d, want the prefix subtree only", len(tree.Data))
	}
	beers := tree.Data[0]
	checkNode(t, beers, "beers", "beers", 3, false, 1)
	checkNode(t, beers.Data[0], "IPA", "beers | IPA", 2, false, 0)
	if tree.Count != nil || tree.Path != nil {
		t.Error("root path must not leak into the envelope")
	}
}

func TestBuild_RootPathNotReported(t *testing.T) {
	f := beersFacet(t, params.WithRootPath("beers"))
	st := stateWith(t, f, "")
	tree := Build(f, st, []map[string]int{
		{},
		{"beers | IPA": 2, "beers | Belgian": 1},
	})
	if len(tree.Data) != 1 {
		t.Fatalf("len(Data) = %d, want a synthesized prefix node", len(tree.Data))
	}
	checkNode(t, tree.Data[0], "beers", "beers", 3, false, 2)
}

func TestBuild_EmptyLevels(t *testing.T) {
	f := beersFacet(t)
	st := stateWith(t, f, "")
	tree := Build(f, st, nil)
	if tree.Data != nil {
		t.Errorf("Data = %v, want nil", tree.Data)
	}
}

func TestBuild_EnvelopeJSON(t *testing.T) {
	f := beersFacet(t)
	st := stateWith(t, f, "")
	raw, err := json.Marshal(Build(f, st, nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"count":null`, `"path":null`, `"isRefined":true`, `"data":null`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("json = %s, missing %s", raw, want)
		}
	}
}
