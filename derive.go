package sift

import (
	"slices"

	"github.com/siftkit/sift/engine"
	"github.com/siftkit/sift/params"
)

// buildRequests derives the physical batch for one logical search: the
// hits request first, then one facets-only request per refined
// disjunctive attribute with that attribute's own refinements lifted,
// then per hierarchical facet one facets-only request per tree level
// down to the refined depth. mergeResults walks the same order.
func buildRequests(index string, st *params.State) []engine.Request {
	reqs := []engine.Request{mainRequest(index, st)}

	for _, attr := range st.RefinedDisjunctiveFacets() {
		reqs = append(reqs, disjunctiveRequest(index, st, attr))
	}

	for _, f := range st.HierarchicalFacets() {
		reqs = append(reqs, hierarchicalRequests(index, st, f)...)
	}

	return reqs
}

func mainRequest(index string, st *params.State) engine.Request {
	return engine.Request{
		Index:       index,
		Query:       st.Query(),
		Page:        st.Page(),
		HitsPerPage: st.HitsPerPage(),
		Facets:      append(st.Facets(), st.DisjunctiveFacets()...),
		Filters:     append(buildFilters(st, ""), hierarchicalFilters(st, "")...),
		Numeric:     buildNumeric(st, ""),
		Tags:        st.TagRefinements(),
		RawTags:     st.TagFilters(),
		Extra:       st.Extras(),
	}
}

// disjunctiveRequest counts attr's values with attr's own disjunctive
// and numeric refinements lifted, so every value of the attribute
// keeps its count while one of them is selected.
func disjunctiveRequest(index string, st *params.State, attr string) engine.Request {
	return engine.Request{
		Index:       index,
		Query:       st.Query(),
		HitsPerPage: st.HitsPerPage(),
		Facets:      []string{attr},
		FacetsOnly:  true,
		Filters:     append(buildFilters(st, attr), hierarchicalFilters(st, "")...),
		Numeric:     buildNumeric(st, attr),
		Tags:        st.TagRefinements(),
		RawTags:     st.TagFilters(),
		Extra:       st.Extras(),
	}
}

// hierarchicalRequests emits one facets-only request per tree level:
// level i counts attributes[i], constrained to the refined path's
// depth-i ancestor on attributes[i-1]. Level 0 is hierarchically
// unconstrained so every root keeps its count. An unrefined facet gets
// the single level-0 request (rooted facets start from their root
// path instead).
func hierarchicalRequests(index string, st *params.State, f params.HierarchicalFacet) []engine.Request {
	path := effectivePath(st, f)
	attrs := f.Attributes()
	segments := f.SplitPath(path)

	base := append(buildFilters(st, ""), hierarchicalFilters(st, f.Name())...)

	count := hierarchicalLevelCount(st, f)
	reqs := make([]engine.Request, 0, count)
	for lvl := 0; lvl < count; lvl++ {
		filters := slices.Clone(base)
		if lvl > 0 {
			prefix := f.JoinPath(segments[:lvl]...)
			filters = append(filters, []engine.Filter{{Attribute: attrs[lvl-1], Value: prefix}})
		}
		reqs = append(reqs, engine.Request{
			Index:       index,
			Query:       st.Query(),
			HitsPerPage: st.HitsPerPage(),
			Facets:      []string{attrs[lvl]},
			FacetsOnly:  true,
			Filters:     filters,
			Numeric:     buildNumeric(st, ""),
			Tags:        st.TagRefinements(),
			RawTags:     st.TagFilters(),
			Extra:       st.Extras(),
		})
	}
	return reqs
}

// hierarchicalLevelCount is the number of per-level requests derived
// for one hierarchical facet: the refined path's ancestors plus the
// refined node's children, capped by the attribute list.
func hierarchicalLevelCount(st *params.State, f params.HierarchicalFacet) int {
	levels := f.PathDepth(effectivePath(st, f))
	if limit := len(f.Attributes()) - 1; levels > limit {
		levels = limit
	}
	return levels + 1
}

// effectivePath is the refinement when set, the facet's root path
// otherwise.
func effectivePath(st *params.State, f params.HierarchicalFacet) string {
	if path, ok := st.HierarchicalFacetRefinement(f.Name()); ok {
		return path
	}
	return f.RootPath()
}

// buildFilters assembles the AND-of-OR groups: one single-value group
// per conjunctive pair, one negated group per exclusion, one OR group
// per refined disjunctive attribute. skipDisjunctive lifts that
// attribute's group.
func buildFilters(st *params.State, skipDisjunctive string) [][]engine.Filter {
	var groups [][]engine.Filter

	facetRefs := st.FacetRefinements()
	for _, attr := range sortedKeys(facetRefs) {
		for _, v := range facetRefs[attr] {
			groups = append(groups, []engine.Filter{{Attribute: attr, Value: v}})
		}
	}

	excludeRefs := st.ExcludeRefinements()
	for _, attr := range sortedKeys(excludeRefs) {
		for _, v := range excludeRefs[attr] {
			groups = append(groups, []engine.Filter{{Attribute: attr, Value: v, Negate: true}})
		}
	}

	disjRefs := st.DisjunctiveRefinements()
	for _, attr := range sortedKeys(disjRefs) {
		if attr == skipDisjunctive {
			continue
		}
		group := make([]engine.Filter, 0, len(disjRefs[attr]))
		for _, v := range disjRefs[attr] {
			group = append(group, engine.Filter{Attribute: attr, Value: v})
		}
		groups = append(groups, group)
	}

	return groups
}

// hierarchicalFilters emits one single-value group per hierarchically
// constrained facet: a path at depth d filters the level d-1
// attribute. skipName lifts one facet's group so its own level
// requests can substitute ancestor prefixes.
func hierarchicalFilters(st *params.State, skipName string) [][]engine.Filter {
	var groups [][]engine.Filter
	for _, f := range st.HierarchicalFacets() {
		if f.Name() == skipName {
			continue
		}
		path := effectivePath(st, f)
		if path == "" {
			continue
		}
		attrs := f.Attributes()
		depth := f.PathDepth(path)
		if depth > len(attrs) {
			depth = len(attrs)
		}
		groups = append(groups, []engine.Filter{{Attribute: attrs[depth-1], Value: path}})
	}
	return groups
}

// buildNumeric flattens the numeric refinements in attribute-then-
// operator order. skip lifts one attribute's refinements.
func buildNumeric(st *params.State, skip string) []engine.NumericFilter {
	refs := st.NumericRefinements()
	var out []engine.NumericFilter
	for _, attr := range sortedKeys(refs) {
		if attr == skip {
			continue
		}
		ops := refs[attr]
		opKeys := make([]string, 0, len(ops))
		for op := range ops {
			opKeys = append(opKeys, string(op))
		}
		slices.Sort(opKeys)
		for _, op := range opKeys {
			out = append(out, engine.NumericFilter{
				Attribute: attr,
				Operator:  engine.Operator(op),
				Value:     ops[params.Operator(op)],
			})
		}
	}
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
