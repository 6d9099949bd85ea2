package params

// RefinementKind labels the refinement category a clear predicate inspects.
type RefinementKind string

// Refinement kinds seen by ClearMatching predicates.
const (
	KindConjunctiveFacet  RefinementKind = "conjunctiveFacet"
	KindExcludeFacet      RefinementKind = "exclude"
	KindDisjunctiveFacet  RefinementKind = "disjunctiveFacet"
	KindNumeric           RefinementKind = "numeric"
	KindHierarchicalFacet RefinementKind = "hierarchicalFacet"
)

// Refinement describes one applied refinement during a predicate clear.
// Value carries the refined value for facet kinds and the joined path for
// hierarchical facets; Operator and Number are set for numeric entries only.
type Refinement struct {
	Attribute string
	Kind      RefinementKind
	Value     string
	Operator  Operator
	Number    float64
}

// ClearSelector picks which refinements ClearRefinements drops.
type ClearSelector struct {
	all       bool
	byAttr    bool
	attribute string
	predicate func(Refinement) bool
}

// ClearAll selects every refinement of every kind.
func ClearAll() ClearSelector { return ClearSelector{all: true} }

// ClearAttribute selects every refinement kind applied to one attribute.
// For hierarchical facets the attribute is the facet name.
func ClearAttribute(attr string) ClearSelector {
	return ClearSelector{byAttr: true, attribute: attr}
}

// ClearMatching selects the refinements the predicate reports true for.
func ClearMatching(pred func(Refinement) bool) ClearSelector {
	return ClearSelector{predicate: pred}
}

func (sel ClearSelector) matches(r Refinement) bool {
	switch {
	case sel.all:
		return true
	case sel.byAttr:
		return r.Attribute == sel.attribute
	case sel.predicate != nil:
		return sel.predicate(r)
	default:
		return false
	}
}

// ClearRefinements drops the selected conjunctive, exclude, disjunctive,
// numeric and hierarchical refinements. Resets the page on change; returns
// the receiver when nothing matched.
func (s *State) ClearRefinements(sel ClearSelector) *State {
	facetRefs, c1 := refClear(s.facetRefs, sel, KindConjunctiveFacet)
	excludeRefs, c2 := refClear(s.excludeRefs, sel, KindExcludeFacet)
	disjunctiveRefs, c3 := refClear(s.disjunctiveRefs, sel, KindDisjunctiveFacet)
	numericRefs, c4 := numClear(s.numericRefs, sel)
	hierarchicalRefs, c5 := hierClear(s.hierarchicalRefs, sel)
	if !c1 && !c2 && !c3 && !c4 && !c5 {
		return s
	}
	c := s.clone()
	c.facetRefs = facetRefs
	c.excludeRefs = excludeRefs
	c.disjunctiveRefs = disjunctiveRefs
	c.numericRefs = numericRefs
	c.hierarchicalRefs = hierarchicalRefs
	c.page = 0
	return c
}
