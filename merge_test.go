package sift

import (
	"reflect"
	"testing"
	"time"

	"github.com/siftkit/sift/engine"
	"github.com/siftkit/sift/params"
)

func TestMergeResults_Main(t *testing.T) {
	st := params.New().WithFacets("brand").WithDisjunctiveFacets("color")
	resp := engine.Response{
		Hits:        []engine.Hit{{"objectID": "1"}},
		TotalHits:   42,
		Page:        2,
		PageCount:   3,
		HitsPerPage: 20,
		Elapsed:     5 * time.Millisecond,
		Facets: map[string]map[string]int{
			"brand": {"acme": 40, "globex": 2},
			"color": {"red": 30},
			"stray": {"x": 1},
		},
	}

	res := mergeResults("products", st, []engine.Response{resp})
	if res.Index != "products" {
		t.Errorf("index = %q, want products", res.Index)
	}
	if res.TotalHits != 42 || res.Page != 2 || res.PageCount != 3 || res.HitsPerPage != 20 {
		t.Errorf("paging = %d/%d/%d/%d, want 42/2/3/20",
			res.TotalHits, res.Page, res.PageCount, res.HitsPerPage)
	}
	if res.Elapsed != 5*time.Millisecond {
		t.Errorf("elapsed = %v, want 5ms", res.Elapsed)
	}
	if res.State != st {
		t.Error("result must carry the state it was derived from")
	}
	if len(res.Hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(res.Hits))
	}

	// Counts split by declaration side; undeclared attributes drop out.
	wantConj := map[string]map[string]int{"brand": {"acme": 40, "globex": 2}}
	if !reflect.DeepEqual(res.Facets, wantConj) {
		t.Errorf("facets = %+v, want %+v", res.Facets, wantConj)
	}
	wantDisj := map[string]map[string]int{"color": {"red": 30}}
	if !reflect.DeepEqual(res.DisjunctiveFacets, wantDisj) {
		t.Errorf("disjunctiveFacets = %+v, want %+v", res.DisjunctiveFacets, wantDisj)
	}
}

func TestMergeResults_DisjunctiveOverride(t *testing.T) {
	st := params.New().
		WithDisjunctiveFacets("color", "size").
		AddDisjunctiveFacetRefinement("color", "red")

	resps := []engine.Response{
		{
			TotalHits: 10,
			Facets: map[string]map[string]int{
				"color": {"red": 10},
				"size":  {"42": 6, "43": 4},
			},
		},
		// Companion counted without the color refinement.
		{Facets: map[string]map[string]int{"color": {"red": 10, "blue": 7}}},
	}

	res := mergeResults("products", st, resps)
	wantColor := map[string]int{"red": 10, "blue": 7}
	if !reflect.DeepEqual(res.DisjunctiveFacets["color"], wantColor) {
		t.Errorf("color = %+v, want %+v", res.DisjunctiveFacets["color"], wantColor)
	}
	// size остаётся из главного ответа.
	wantSize := map[string]int{"42": 6, "43": 4}
	if !reflect.DeepEqual(res.DisjunctiveFacets["size"], wantSize) {
		t.Errorf("size = %+v, want %+v", res.DisjunctiveFacets["size"], wantSize)
	}
}

func TestMergeResults_Hierarchical(t *testing.T) {
	f, err := params.NewHierarchicalFacet("categories",
		[]string{"cat.lvl0", "cat.lvl1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, err := params.New().WithHierarchicalFacets(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, err = st.AddHierarchicalFacetRefinement("categories", "Men")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resps := []engine.Response{
		{TotalHits: 10},
		{Facets: map[string]map[string]int{"cat.lvl0": {"Men": 10, "Women": 8}}},
		{Facets: map[string]map[string]int{"cat.lvl1": {"Men > Shoes": 6, "Men > Hats": 4}}},
	}

	res := mergeResults("products", st, resps)
	tree, ok := res.HierarchicalFacet("categories")
	if !ok {
		t.Fatal("categories tree missing")
	}
	if tree.Count != nil || tree.Path != nil || !tree.IsRefined {
		t.Errorf("summary level shape off: %+v", tree)
	}
	if len(tree.Data) != 2 {
		t.Fatalf("roots = %d, want 2", len(tree.Data))
	}

	men := tree.Data[0]
	if men.Name != "Men" || men.Count != 10 || !men.IsRefined {
		t.Errorf("men root = %+v", men)
	}
	if len(men.Data) != 2 {
		t.Fatalf("men children = %d, want 2", len(men.Data))
	}
	if men.Data[0].Path != "Men > Shoes" || men.Data[0].Count != 6 {
		t.Errorf("first child = %+v", men.Data[0])
	}
	if men.Data[0].IsRefined {
		t.Error("descendants of the refinement are not refined")
	}

	women := tree.Data[1]
	if women.Name != "Women" || women.Count != 8 || women.IsRefined {
		t.Errorf("women root = %+v", women)
	}
	if len(women.Data) != 0 {
		t.Errorf("women children = %+v, want none", women.Data)
	}
}

func TestMergeResults_WalksCompanionsInOrder(t *testing.T) {
	f, err := params.NewHierarchicalFacet("categories", []string{"cat.lvl0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := params.New().
		WithDisjunctiveFacets("color").
		AddDisjunctiveFacetRefinement("color", "red")
	st, err = st.WithHierarchicalFacets(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs := buildRequests("products", st)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(reqs))
	}

	resps := []engine.Response{
		{Facets: map[string]map[string]int{"color": {"red": 3}}},
		{Facets: map[string]map[string]int{"color": {"red": 3, "blue": 2}}},
		{Facets: map[string]map[string]int{"cat.lvl0": {"Men": 5}}},
	}

	res := mergeResults("products", st, resps)
	if got := res.DisjunctiveFacets["color"]["blue"]; got != 2 {
		t.Errorf("blue = %d, want 2 from the companion response", got)
	}
	tree, ok := res.HierarchicalFacet("categories")
	if !ok || len(tree.Data) != 1 || tree.Data[0].Count != 5 {
		t.Errorf("tree = %+v, want single Men root with count 5", tree)
	}
}

func TestResult_FacetValues(t *testing.T) {
	res := &Result{
		Facets:            map[string]map[string]int{"brand": {"acme": 1}},
		DisjunctiveFacets: map[string]map[string]int{"color": {"red": 2}},
	}

	if counts, ok := res.FacetValues("brand"); !ok || counts["acme"] != 1 {
		t.Errorf("brand = %+v ok=%t", counts, ok)
	}
	if counts, ok := res.FacetValues("color"); !ok || counts["red"] != 2 {
		t.Errorf("color = %+v ok=%t", counts, ok)
	}
	if _, ok := res.FacetValues("missing"); ok {
		t.Error("missing attribute reported present")
	}
}
