package params

import "slices"

// Copy-on-write helpers over attribute → ordered value list mappings.
// Mutating helpers never touch the input map: they either build a fresh
// map or hand the input back untouched with changed=false.

func copyRefs(m map[string][]string) map[string][]string {
	c := make(map[string][]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneRefs(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	c := make(map[string][]string, len(m))
	for k, v := range m {
		c[k] = slices.Clone(v)
	}
	return c
}

// refHas reports membership: with values, every value must be present;
// without, the attribute must carry at least one refinement.
func refHas(m map[string][]string, attr string, values ...string) bool {
	list, ok := m[attr]
	if !ok || len(list) == 0 {
		return false
	}
	for _, v := range values {
		if !slices.Contains(list, v) {
			return false
		}
	}
	return true
}

func refAdd(m map[string][]string, attr, value string) (map[string][]string, bool) {
	if refHas(m, attr, value) {
		return m, false
	}
	next := copyRefs(m)
	prev := m[attr]
	list := make([]string, 0, len(prev)+1)
	list = append(list, prev...)
	next[attr] = append(list, value)
	return next, true
}

// refRemove drops the listed values, or the whole attribute entry when no
// value is given.
func refRemove(m map[string][]string, attr string, values ...string) (map[string][]string, bool) {
	list, ok := m[attr]
	if !ok || len(list) == 0 {
		return m, false
	}
	if len(values) == 0 {
		next := copyRefs(m)
		delete(next, attr)
		return next, true
	}
	kept := make([]string, 0, len(list))
	for _, v := range list {
		if !slices.Contains(values, v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == len(list) {
		return m, false
	}
	next := copyRefs(m)
	if len(kept) == 0 {
		delete(next, attr)
	} else {
		next[attr] = kept
	}
	return next, true
}

func refToggle(m map[string][]string, attr, value string) (map[string][]string, bool) {
	if refHas(m, attr, value) {
		return refRemove(m, attr, value)
	}
	return refAdd(m, attr, value)
}

// refClear drops every entry the selector matches, tagging predicate calls
// with the supplied kind.
func refClear(m map[string][]string, sel ClearSelector, kind RefinementKind) (map[string][]string, bool) {
	if len(m) == 0 {
		return m, false
	}
	next := make(map[string][]string, len(m))
	changed := false
	for attr, list := range m {
		kept := make([]string, 0, len(list))
		for _, v := range list {
			if sel.matches(Refinement{Attribute: attr, Kind: kind, Value: v}) {
				changed = true
				continue
			}
			kept = append(kept, v)
		}
		if len(kept) > 0 {
			next[attr] = kept
		}
	}
	if !changed {
		return m, false
	}
	return next, true
}

// AddFacetRefinement appends a conjunctive refinement value. Resets the
// page on change; no-op if the value is already refined.
func (s *State) AddFacetRefinement(attr, value string) *State {
	next, changed := refAdd(s.facetRefs, attr, value)
	if !changed {
		return s
	}
	c := s.clone()
	c.facetRefs = next
	c.page = 0
	return c
}

// RemoveFacetRefinement removes a conjunctive refinement value, or every
// value for attr when no value is given. No-op if absent.
func (s *State) RemoveFacetRefinement(attr string, value ...string) *State {
	next, changed := refRemove(s.facetRefs, attr, value...)
	if !changed {
		return s
	}
	c := s.clone()
	c.facetRefs = next
	c.page = 0
	return c
}

// ToggleFacetRefinement removes the value if refined, else adds it.
func (s *State) ToggleFacetRefinement(attr, value string) *State {
	next, changed := refToggle(s.facetRefs, attr, value)
	if !changed {
		return s
	}
	c := s.clone()
	c.facetRefs = next
	c.page = 0
	return c
}

// AddExcludeRefinement appends a negative refinement value. Resets the
// page on change; no-op if the value is already excluded.
func (s *State) AddExcludeRefinement(attr, value string) *State {
	next, changed := refAdd(s.excludeRefs, attr, value)
	if !changed {
		return s
	}
	c := s.clone()
	c.excludeRefs = next
	c.page = 0
	return c
}

// RemoveExcludeRefinement removes a negative refinement value, or every
// value for attr when no value is given. No-op if absent.
func (s *State) RemoveExcludeRefinement(attr string, value ...string) *State {
	next, changed := refRemove(s.excludeRefs, attr, value...)
	if !changed {
		return s
	}
	c := s.clone()
	c.excludeRefs = next
	c.page = 0
	return c
}

// ToggleExcludeRefinement removes the exclusion if present, else adds it.
func (s *State) ToggleExcludeRefinement(attr, value string) *State {
	next, changed := refToggle(s.excludeRefs, attr, value)
	if !changed {
		return s
	}
	c := s.clone()
	c.excludeRefs = next
	c.page = 0
	return c
}

// AddDisjunctiveFacetRefinement appends a disjunctive (OR) refinement
// value. Resets the page on change; no-op if already refined.
func (s *State) AddDisjunctiveFacetRefinement(attr, value string) *State {
	next, changed := refAdd(s.disjunctiveRefs, attr, value)
	if !changed {
		return s
	}
	c := s.clone()
	c.disjunctiveRefs = next
	c.page = 0
	return c
}

// RemoveDisjunctiveFacetRefinement removes a disjunctive refinement value,
// or every value for attr when no value is given. No-op if absent.
func (s *State) RemoveDisjunctiveFacetRefinement(attr string, value ...string) *State {
	next, changed := refRemove(s.disjunctiveRefs, attr, value...)
	if !changed {
		return s
	}
	c := s.clone()
	c.disjunctiveRefs = next
	c.page = 0
	return c
}

// ToggleDisjunctiveFacetRefinement removes the value if refined, else adds it.
func (s *State) ToggleDisjunctiveFacetRefinement(attr, value string) *State {
	next, changed := refToggle(s.disjunctiveRefs, attr, value)
	if !changed {
		return s
	}
	c := s.clone()
	c.disjunctiveRefs = next
	c.page = 0
	return c
}

// IsFacetRefined reports whether attr carries conjunctive refinements,
// or whether the given value is refined.
func (s *State) IsFacetRefined(attr string, value ...string) bool {
	return refHas(s.facetRefs, attr, value...)
}

// IsExcludeRefined reports whether attr carries exclusions, or whether the
// given value is excluded.
func (s *State) IsExcludeRefined(attr string, value ...string) bool {
	return refHas(s.excludeRefs, attr, value...)
}

// IsDisjunctiveFacetRefined reports whether attr carries disjunctive
// refinements, or whether the given value is refined.
func (s *State) IsDisjunctiveFacetRefined(attr string, value ...string) bool {
	return refHas(s.disjunctiveRefs, attr, value...)
}

// FacetRefinements returns a copy of the conjunctive refinement map.
func (s *State) FacetRefinements() map[string][]string { return cloneRefs(s.facetRefs) }

// ExcludeRefinements returns a copy of the exclusion map.
func (s *State) ExcludeRefinements() map[string][]string { return cloneRefs(s.excludeRefs) }

// DisjunctiveRefinements returns a copy of the disjunctive refinement map.
func (s *State) DisjunctiveRefinements() map[string][]string { return cloneRefs(s.disjunctiveRefs) }

// RefinedDisjunctiveFacets returns the disjunctive attributes that need an
// independent count request: attributes carrying disjunctive refinements,
// plus declared disjunctive attributes carrying numeric refinements.
// Declared attributes come first in declaration order; refined attributes
// that were never declared follow, sorted.
func (s *State) RefinedDisjunctiveFacets() []string {
	var out []string
	seen := make(map[string]struct{}, len(s.disjunctive))
	for _, attr := range s.disjunctive {
		if _, dup := seen[attr]; dup {
			continue
		}
		if refHas(s.disjunctiveRefs, attr) || s.IsNumericRefined(attr) {
			out = append(out, attr)
			seen[attr] = struct{}{}
		}
	}
	var undeclared []string
	for attr, list := range s.disjunctiveRefs {
		if _, ok := seen[attr]; ok {
			continue
		}
		if len(list) > 0 {
			undeclared = append(undeclared, attr)
		}
	}
	slices.Sort(undeclared)
	return append(out, undeclared...)
}

// UnrefinedDisjunctiveFacets returns the declared disjunctive attributes
// without refinements, in declaration order.
func (s *State) UnrefinedDisjunctiveFacets() []string {
	var out []string
	for _, attr := range s.disjunctive {
		if !refHas(s.disjunctiveRefs, attr) && !s.IsNumericRefined(attr) {
			out = append(out, attr)
		}
	}
	return out
}
