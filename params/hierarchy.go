package params

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultSeparator joins hierarchical path segments unless overridden.
const DefaultSeparator = " > "

// HierarchicalFacet declares a multi-level category facet reconstructed
// from one real attribute per tree level.
type HierarchicalFacet struct {
	name            string
	attributes      []string
	separator       string
	rootPath        string
	showParentLevel bool
}

// HierarchicalFacetOption adjusts optional hierarchical facet settings.
type HierarchicalFacetOption func(*HierarchicalFacet)

// WithSeparator overrides the default " > " path separator.
func WithSeparator(sep string) HierarchicalFacetOption {
	return func(f *HierarchicalFacet) {
		f.separator = sep
	}
}

// WithRootPath restricts the facet to the subtree under path.
func WithRootPath(path string) HierarchicalFacetOption {
	return func(f *HierarchicalFacet) {
		f.rootPath = path
	}
}

// WithoutParentLevel hides the siblings of refined ancestors: the derived
// tree keeps only the refined path and the refined node's direct children.
func WithoutParentLevel() HierarchicalFacetOption {
	return func(f *HierarchicalFacet) {
		f.showParentLevel = false
	}
}

// NewHierarchicalFacet validates a hierarchical facet declaration.
// Attributes are ordered root to leaf, one per tree level.
func NewHierarchicalFacet(name string, attributes []string, opts ...HierarchicalFacetOption) (HierarchicalFacet, error) {
	f := HierarchicalFacet{
		name:            name,
		attributes:      slices.Clone(attributes),
		separator:       DefaultSeparator,
		showParentLevel: true,
	}
	for _, o := range opts {
		o(&f)
	}
	if err := f.validate(); err != nil {
		return HierarchicalFacet{}, err
	}
	return f, nil
}

func (f HierarchicalFacet) validate() error {
	if f.name == "" {
		return fmt.Errorf("hierarchical facet name is required")
	}
	if len(f.attributes) == 0 {
		return fmt.Errorf("hierarchical facet %q needs at least one attribute", f.name)
	}
	for _, attr := range f.attributes {
		if attr == "" {
			return fmt.Errorf("hierarchical facet %q has an empty attribute", f.name)
		}
	}
	if f.separator == "" {
		return fmt.Errorf("hierarchical facet %q has an empty separator", f.name)
	}
	return nil
}

func (f HierarchicalFacet) equal(other HierarchicalFacet) bool {
	return f.name == other.name &&
		slices.Equal(f.attributes, other.attributes) &&
		f.separator == other.separator &&
		f.rootPath == other.rootPath &&
		f.showParentLevel == other.showParentLevel
}

// Name returns the logical facet name.
func (f HierarchicalFacet) Name() string { return f.name }

// Attributes returns the per-level attributes, root first.
func (f HierarchicalFacet) Attributes() []string { return slices.Clone(f.attributes) }

// Separator returns the path separator.
func (f HierarchicalFacet) Separator() string { return f.separator }

// RootPath returns the subtree restriction, empty when unrestricted.
func (f HierarchicalFacet) RootPath() string { return f.rootPath }

// ShowParentLevel reports whether refined ancestors keep their siblings.
func (f HierarchicalFacet) ShowParentLevel() bool { return f.showParentLevel }

// SplitPath splits a joined facet path into its segments.
func (f HierarchicalFacet) SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, f.separator)
}

// JoinPath joins segments into a facet path.
func (f HierarchicalFacet) JoinPath(segments ...string) string {
	return strings.Join(segments, f.separator)
}

// PathDepth returns the number of segments in path, zero for an empty path.
func (f HierarchicalFacet) PathDepth(path string) int {
	return len(f.SplitPath(path))
}

func hierSet(m map[string]string, name, path string) map[string]string {
	next := make(map[string]string, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	next[name] = path
	return next
}

func hierRemove(m map[string]string, name string) map[string]string {
	next := make(map[string]string, len(m))
	for k, v := range m {
		if k != name {
			next[k] = v
		}
	}
	return next
}

func hierClear(m map[string]string, sel ClearSelector) (map[string]string, bool) {
	if len(m) == 0 {
		return m, false
	}
	next := make(map[string]string, len(m))
	changed := false
	for name, path := range m {
		if sel.matches(Refinement{Attribute: name, Kind: KindHierarchicalFacet, Value: path}) {
			changed = true
			continue
		}
		next[name] = path
	}
	if !changed {
		return m, false
	}
	return next, true
}

// WithHierarchicalFacets replaces the declared hierarchical facets.
func (s *State) WithHierarchicalFacets(facets ...HierarchicalFacet) (*State, error) {
	for i, f := range facets {
		if err := f.validate(); err != nil {
			return nil, err
		}
		for _, earlier := range facets[:i] {
			if earlier.name == f.name {
				return nil, fmt.Errorf("hierarchical facet %q declared twice", f.name)
			}
		}
	}
	if slices.EqualFunc(s.hierarchical, facets, HierarchicalFacet.equal) {
		return s, nil
	}
	c := s.clone()
	c.hierarchical = slices.Clone(facets)
	return c, nil
}

// HierarchicalFacets returns the declared hierarchical facets.
func (s *State) HierarchicalFacets() []HierarchicalFacet { return slices.Clone(s.hierarchical) }

// HierarchicalFacetByName returns a declared hierarchical facet.
func (s *State) HierarchicalFacetByName(name string) (HierarchicalFacet, bool) {
	for _, f := range s.hierarchical {
		if f.name == name {
			return f, true
		}
	}
	return HierarchicalFacet{}, false
}

// IsHierarchicalFacet reports whether name is a declared hierarchical facet.
func (s *State) IsHierarchicalFacet(name string) bool {
	_, ok := s.HierarchicalFacetByName(name)
	return ok
}

// AddHierarchicalFacetRefinement selects path on a declared hierarchical
// facet. A facet holds a single path at a time; refining an already refined
// facet fails with ErrAlreadyRefined. Resets the page.
func (s *State) AddHierarchicalFacetRefinement(name, path string) (*State, error) {
	if !s.IsHierarchicalFacet(name) {
		return nil, fmt.Errorf("hierarchical facet %q: %w", name, ErrUndeclaredFacet)
	}
	if path == "" {
		return nil, fmt.Errorf("hierarchical facet %q: path is required", name)
	}
	if _, refined := s.hierarchicalRefs[name]; refined {
		return nil, fmt.Errorf("hierarchical facet %q: %w", name, ErrAlreadyRefined)
	}
	c := s.clone()
	c.hierarchicalRefs = hierSet(s.hierarchicalRefs, name, path)
	c.page = 0
	return c, nil
}

// RemoveHierarchicalFacetRefinement clears the refinement of a declared
// hierarchical facet. No-op when the facet is not refined.
func (s *State) RemoveHierarchicalFacetRefinement(name string) (*State, error) {
	if !s.IsHierarchicalFacet(name) {
		return nil, fmt.Errorf("hierarchical facet %q: %w", name, ErrUndeclaredFacet)
	}
	if _, refined := s.hierarchicalRefs[name]; !refined {
		return s, nil
	}
	c := s.clone()
	c.hierarchicalRefs = hierRemove(s.hierarchicalRefs, name)
	c.page = 0
	return c, nil
}

// ToggleHierarchicalFacetRefinement selects path, or climbs one level when
// path is the refined path or one of its ancestors: toggling a top-level
// path clears the refinement, a deeper one moves it to the parent path.
// Resets the page.
func (s *State) ToggleHierarchicalFacetRefinement(name, path string) (*State, error) {
	f, ok := s.HierarchicalFacetByName(name)
	if !ok {
		return nil, fmt.Errorf("hierarchical facet %q: %w", name, ErrUndeclaredFacet)
	}
	if path == "" {
		return nil, fmt.Errorf("hierarchical facet %q: path is required", name)
	}
	next := path
	if cur, refined := s.hierarchicalRefs[name]; refined &&
		(cur == path || strings.HasPrefix(cur, path+f.separator)) {
		if i := strings.LastIndex(path, f.separator); i >= 0 {
			next = path[:i]
		} else {
			next = ""
		}
	}
	c := s.clone()
	if next == "" {
		c.hierarchicalRefs = hierRemove(s.hierarchicalRefs, name)
	} else {
		c.hierarchicalRefs = hierSet(s.hierarchicalRefs, name, next)
	}
	c.page = 0
	return c, nil
}

// IsHierarchicalFacetRefined reports whether the facet has a selected path.
func (s *State) IsHierarchicalFacetRefined(name string) bool {
	_, ok := s.hierarchicalRefs[name]
	return ok
}

// HierarchicalFacetRefinement returns the selected path of a facet.
func (s *State) HierarchicalFacetRefinement(name string) (string, bool) {
	path, ok := s.hierarchicalRefs[name]
	return path, ok
}

// HierarchicalRefinements returns a copy of the name → path refinement map.
func (s *State) HierarchicalRefinements() map[string]string {
	if s.hierarchicalRefs == nil {
		return nil
	}
	out := make(map[string]string, len(s.hierarchicalRefs))
	for k, v := range s.hierarchicalRefs {
		out[k] = v
	}
	return out
}
