package sift

import (
	"time"

	"github.com/siftkit/sift/engine"
	"github.com/siftkit/sift/facet"
	"github.com/siftkit/sift/params"
)

// Result is one merged search outcome: the hits page plus facet counts
// split by declaration kind, with hierarchical counts already folded
// into trees. State is the parameter snapshot the search ran with.
type Result struct {
	Index       string        `json:"index"`
	Hits        []engine.Hit  `json:"hits"`
	TotalHits   int           `json:"totalHits"`
	Page        int           `json:"page"`
	PageCount   int           `json:"pageCount"`
	HitsPerPage int           `json:"hitsPerPage"`
	Elapsed     time.Duration `json:"elapsed"`

	Facets             map[string]map[string]int `json:"facets,omitempty"`
	DisjunctiveFacets  map[string]map[string]int `json:"disjunctiveFacets,omitempty"`
	HierarchicalFacets []facet.Tree              `json:"hierarchicalFacets,omitempty"`

	State *params.State `json:"-"`
}

// FacetValues returns the counts for attr regardless of which side it
// was declared on.
func (r *Result) FacetValues(attr string) (map[string]int, bool) {
	if counts, ok := r.Facets[attr]; ok {
		return counts, true
	}
	counts, ok := r.DisjunctiveFacets[attr]
	return counts, ok
}

// HierarchicalFacet returns the derived tree for the named facet.
func (r *Result) HierarchicalFacet(name string) (facet.Tree, bool) {
	for _, t := range r.HierarchicalFacets {
		if t.Name == name {
			return t, true
		}
	}
	return facet.Tree{}, false
}
