package params

import (
	"fmt"
	"slices"
)

// DefaultHitsPerPage is the page size applied by New.
const DefaultHitsPerPage = 20

// State is an immutable search-parameter snapshot. Every mutator returns a
// new instance, or the receiver itself when the change is a semantic no-op,
// so callers can short-circuit on pointer equality.
type State struct {
	query       string
	page        int
	hitsPerPage int

	facets       []string
	disjunctive  []string
	hierarchical []HierarchicalFacet

	facetRefs        map[string][]string
	excludeRefs      map[string][]string
	disjunctiveRefs  map[string][]string
	numericRefs      map[string]map[Operator]float64
	hierarchicalRefs map[string]string

	tags       []string
	tagFilters string

	extras map[string]any
}

// New creates an empty State with default pagination.
func New() *State {
	return &State{hitsPerPage: DefaultHitsPerPage}
}

func (s *State) clone() *State {
	c := *s
	return &c
}

// WithQuery sets the query text. Resets the page on change.
func (s *State) WithQuery(q string) *State {
	if q == s.query {
		return s
	}
	c := s.clone()
	c.query = q
	c.page = 0
	return c
}

// WithPage moves to a zero-based result page.
func (s *State) WithPage(n int) (*State, error) {
	if n < 0 {
		return nil, fmt.Errorf("page must not be negative: %d", n)
	}
	if n == s.page {
		return s, nil
	}
	c := s.clone()
	c.page = n
	return c, nil
}

// WithHitsPerPage sets the page size. Resets the page on change.
func (s *State) WithHitsPerPage(n int) (*State, error) {
	if n <= 0 {
		return nil, fmt.Errorf("hits per page must be positive: %d", n)
	}
	if n == s.hitsPerPage {
		return s, nil
	}
	c := s.clone()
	c.hitsPerPage = n
	c.page = 0
	return c, nil
}

// WithFacets replaces the declared conjunctive facet attributes.
func (s *State) WithFacets(attrs ...string) *State {
	if slices.Equal(attrs, s.facets) {
		return s
	}
	c := s.clone()
	c.facets = slices.Clone(attrs)
	return c
}

// WithDisjunctiveFacets replaces the declared disjunctive facet attributes.
func (s *State) WithDisjunctiveFacets(attrs ...string) *State {
	if slices.Equal(attrs, s.disjunctive) {
		return s
	}
	c := s.clone()
	c.disjunctive = slices.Clone(attrs)
	return c
}

// Query returns the query text.
func (s *State) Query() string { return s.query }

// Page returns the zero-based page.
func (s *State) Page() int { return s.page }

// HitsPerPage returns the page size.
func (s *State) HitsPerPage() int { return s.hitsPerPage }

// Facets returns the declared conjunctive facet attributes.
func (s *State) Facets() []string { return slices.Clone(s.facets) }

// DisjunctiveFacets returns the declared disjunctive facet attributes.
func (s *State) DisjunctiveFacets() []string { return slices.Clone(s.disjunctive) }

// IsConjunctiveFacet reports whether attr is declared as a conjunctive facet.
func (s *State) IsConjunctiveFacet(attr string) bool {
	return slices.Contains(s.facets, attr)
}

// IsDisjunctiveFacet reports whether attr is declared as a disjunctive facet.
func (s *State) IsDisjunctiveFacet(attr string) bool {
	return slices.Contains(s.disjunctive, attr)
}
