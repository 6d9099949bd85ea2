package sift

import (
	"github.com/siftkit/sift/engine"
	"github.com/siftkit/sift/facet"
	"github.com/siftkit/sift/params"
)

// mergeResults folds the positional response batch back into one
// Result, walking the order buildRequests produced: main response,
// then one response per refined disjunctive facet, then the
// hierarchical level responses per declared facet.
func mergeResults(index string, st *params.State, resps []engine.Response) *Result {
	main := resps[0]
	res := &Result{
		Index:       index,
		Hits:        main.Hits,
		TotalHits:   main.TotalHits,
		Page:        main.Page,
		PageCount:   main.PageCount,
		HitsPerPage: main.HitsPerPage,
		Elapsed:     main.Elapsed,
		State:       st,
	}

	if conjunctive := st.Facets(); len(conjunctive) > 0 {
		res.Facets = make(map[string]map[string]int, len(conjunctive))
		for _, attr := range conjunctive {
			if counts, ok := main.Facets[attr]; ok {
				res.Facets[attr] = counts
			}
		}
	}

	// Disjunctive counts start from the hits response; the companion
	// responses override them with counts taken without the
	// attribute's own refinements.
	if disjunctive := st.DisjunctiveFacets(); len(disjunctive) > 0 {
		res.DisjunctiveFacets = make(map[string]map[string]int, len(disjunctive))
		for _, attr := range disjunctive {
			if counts, ok := main.Facets[attr]; ok {
				res.DisjunctiveFacets[attr] = counts
			}
		}
	}

	next := 1
	for _, attr := range st.RefinedDisjunctiveFacets() {
		if next >= len(resps) {
			break
		}
		if counts, ok := resps[next].Facets[attr]; ok {
			if res.DisjunctiveFacets == nil {
				res.DisjunctiveFacets = make(map[string]map[string]int)
			}
			res.DisjunctiveFacets[attr] = counts
		}
		next++
	}

	for _, f := range st.HierarchicalFacets() {
		attrs := f.Attributes()
		count := hierarchicalLevelCount(st, f)
		levels := make([]map[string]int, 0, count)
		for lvl := 0; lvl < count && next < len(resps); lvl++ {
			levels = append(levels, resps[next].Facets[attrs[lvl]])
			next++
		}
		res.HierarchicalFacets = append(res.HierarchicalFacets, facet.Build(f, st, levels))
	}

	return res
}
