package params

import "slices"

// AddTagRefinement appends tag to the managed tag list. Fails while a raw
// tag-filter expression is set. Resets the page on change.
func (s *State) AddTagRefinement(tag string) (*State, error) {
	if s.tagFilters != "" {
		return nil, ErrTagModeConflict
	}
	if s.IsTagRefined(tag) {
		return s, nil
	}
	c := s.clone()
	list := make([]string, 0, len(s.tags)+1)
	list = append(list, s.tags...)
	c.tags = append(list, tag)
	c.page = 0
	return c, nil
}

// RemoveTagRefinement removes tag from the managed tag list. Fails while a
// raw tag-filter expression is set; no-op if the tag is absent.
func (s *State) RemoveTagRefinement(tag string) (*State, error) {
	if s.tagFilters != "" {
		return nil, ErrTagModeConflict
	}
	if !s.IsTagRefined(tag) {
		return s, nil
	}
	kept := make([]string, 0, len(s.tags)-1)
	for _, t := range s.tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	c := s.clone()
	if len(kept) == 0 {
		c.tags = nil
	} else {
		c.tags = kept
	}
	c.page = 0
	return c, nil
}

// ToggleTagRefinement removes the tag if refined, else adds it.
func (s *State) ToggleTagRefinement(tag string) (*State, error) {
	if s.IsTagRefined(tag) {
		return s.RemoveTagRefinement(tag)
	}
	return s.AddTagRefinement(tag)
}

// WithTagFilters sets the raw tag-filter expression. Fails while the
// managed tag list is non-empty.
func (s *State) WithTagFilters(raw string) (*State, error) {
	if raw != "" && len(s.tags) > 0 {
		return nil, ErrTagModeConflict
	}
	if raw == s.tagFilters {
		return s, nil
	}
	c := s.clone()
	c.tagFilters = raw
	return c, nil
}

// ClearTags drops both the managed tag list and the raw expression.
// No-op when both are already empty.
func (s *State) ClearTags() *State {
	if len(s.tags) == 0 && s.tagFilters == "" {
		return s
	}
	c := s.clone()
	c.tags = nil
	c.tagFilters = ""
	c.page = 0
	return c
}

// IsTagRefined reports whether tag is in the managed tag list.
func (s *State) IsTagRefined(tag string) bool {
	return slices.Contains(s.tags, tag)
}

// TagRefinements returns a copy of the managed tag list.
func (s *State) TagRefinements() []string { return slices.Clone(s.tags) }

// TagFilters returns the raw tag-filter expression.
func (s *State) TagFilters() string { return s.tagFilters }
