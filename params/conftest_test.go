package params

import "testing"

// mustHierarchicalFacet builds a valid declaration or fails the test.
func mustHierarchicalFacet(t *testing.T, name string, attrs []string, opts ...HierarchicalFacetOption) HierarchicalFacet {
	t.Helper()
	f, err := NewHierarchicalFacet(name, attrs, opts...)
	if err != nil {
		t.Fatalf("NewHierarchicalFacet(%q): %v", name, err)
	}
	return f
}

// declaredState returns a State with conjunctive, disjunctive and
// hierarchical facets declared, no refinements applied.
func declaredState(t *testing.T) *State {
	t.Helper()
	st := New().
		WithFacets("brand", "material").
		WithDisjunctiveFacets("color", "price")
	st, err := st.WithHierarchicalFacets(
		mustHierarchicalFacet(t, "categories", []string{"categories.lvl0", "categories.lvl1", "categories.lvl2"}),
	)
	if err != nil {
		t.Fatalf("WithHierarchicalFacets: %v", err)
	}
	return st
}

// mustPage moves the state to a non-zero page so page resets are visible.
func mustPage(t *testing.T, st *State, n int) *State {
	t.Helper()
	next, err := st.WithPage(n)
	if err != nil {
		t.Fatalf("WithPage(%d): %v", n, err)
	}
	return next
}
