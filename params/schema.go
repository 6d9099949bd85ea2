package params

import (
	"fmt"
	"math"
	"slices"
)

// Core parameter keys accepted by SetParameter.
const (
	ParamQuery             = "query"
	ParamPage              = "page"
	ParamHitsPerPage       = "hitsPerPage"
	ParamFacets            = "facets"
	ParamDisjunctiveFacets = "disjunctiveFacets"
	ParamTagFilters        = "tagFilters"
)

type extraKind int

const (
	extraString extraKind = iota
	extraInt
	extraBool
)

// extraParams is the closed allowlist of passthrough engine options.
var extraParams = map[string]extraKind{
	"sortBy":      extraString,
	"sortOrder":   extraString,
	"language":    extraString,
	"scorer":      extraString,
	"slop":        extraInt,
	"inOrder":     extraBool,
	"verbatim":    extraBool,
	"noStopwords": extraBool,
	"timeoutMs":   extraInt,
	"dialect":     extraInt,
}

func knownParameter(key string) bool {
	switch key {
	case ParamQuery, ParamPage, ParamHitsPerPage, ParamFacets, ParamDisjunctiveFacets, ParamTagFilters:
		return true
	}
	_, ok := extraParams[key]
	return ok
}

// SetParameter sets a single parameter by key. See SetParameters.
func (s *State) SetParameter(name string, value any) (*State, error) {
	return s.SetParameters(map[string]any{name: value})
}

// SetParameters applies a generic key/value patch. Every key must belong to
// the core schema (query, page, hitsPerPage, facets, disjunctiveFacets,
// tagFilters) or the passthrough allowlist; unknown keys fail with an
// UnknownParameterError naming all of them and the state stays untouched.
// An explicit page is applied last so it survives the page reset triggered
// by query and hitsPerPage changes.
func (s *State) SetParameters(values map[string]any) (*State, error) {
	var unknown []string
	for key := range values {
		if !knownParameter(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, NewUnknownParameter(unknown...)
	}

	next := s
	var err error
	if v, ok := values[ParamFacets]; ok {
		attrs, convErr := asStringSlice(ParamFacets, v)
		if convErr != nil {
			return nil, convErr
		}
		next = next.WithFacets(attrs...)
	}
	if v, ok := values[ParamDisjunctiveFacets]; ok {
		attrs, convErr := asStringSlice(ParamDisjunctiveFacets, v)
		if convErr != nil {
			return nil, convErr
		}
		next = next.WithDisjunctiveFacets(attrs...)
	}
	if v, ok := values[ParamQuery]; ok {
		q, convErr := asString(ParamQuery, v)
		if convErr != nil {
			return nil, convErr
		}
		next = next.WithQuery(q)
	}
	if v, ok := values[ParamHitsPerPage]; ok {
		n, convErr := asInt(ParamHitsPerPage, v)
		if convErr != nil {
			return nil, convErr
		}
		if next, err = next.WithHitsPerPage(n); err != nil {
			return nil, err
		}
	}
	if v, ok := values[ParamTagFilters]; ok {
		raw, convErr := asString(ParamTagFilters, v)
		if convErr != nil {
			return nil, convErr
		}
		if next, err = next.WithTagFilters(raw); err != nil {
			return nil, err
		}
	}
	extraKeys := make([]string, 0, len(values))
	for key := range values {
		if _, ok := extraParams[key]; ok {
			extraKeys = append(extraKeys, key)
		}
	}
	slices.Sort(extraKeys)
	for _, key := range extraKeys {
		if next, err = next.withExtra(key, values[key]); err != nil {
			return nil, err
		}
	}
	if v, ok := values[ParamPage]; ok {
		n, convErr := asInt(ParamPage, v)
		if convErr != nil {
			return nil, convErr
		}
		if next, err = next.WithPage(n); err != nil {
			return nil, err
		}
	}
	return next, nil
}

func (s *State) withExtra(key string, value any) (*State, error) {
	coerced, err := coerceExtra(key, extraParams[key], value)
	if err != nil {
		return nil, err
	}
	if cur, ok := s.extras[key]; ok && cur == coerced {
		return s, nil
	}
	c := s.clone()
	ex := make(map[string]any, len(s.extras)+1)
	for k, v := range s.extras {
		ex[k] = v
	}
	ex[key] = coerced
	c.extras = ex
	return c, nil
}

func coerceExtra(key string, kind extraKind, value any) (any, error) {
	switch kind {
	case extraString:
		return asString(key, value)
	case extraInt:
		return asInt(key, value)
	default:
		return asBool(key, value)
	}
}

func asString(key string, value any) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q: expected string, got %T", key, value)
	}
	return v, nil
}

func asBool(key string, value any) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("parameter %q: expected bool, got %T", key, value)
	}
	return v, nil
}

// asInt accepts native ints and whole JSON numbers.
func asInt(key string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("parameter %q: expected integer, got %v", key, v)
		}
		return int(v), nil
	}
	return 0, fmt.Errorf("parameter %q: expected integer, got %T", key, value)
}

func asStringSlice(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %q: expected string element, got %T", key, item)
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("parameter %q: expected string list, got %T", key, value)
}

// Extra returns a passthrough engine option by key.
func (s *State) Extra(key string) (any, bool) {
	v, ok := s.extras[key]
	return v, ok
}

// Extras returns a copy of the passthrough engine options.
func (s *State) Extras() map[string]any {
	if s.extras == nil {
		return nil
	}
	out := make(map[string]any, len(s.extras))
	for k, v := range s.extras {
		out[k] = v
	}
	return out
}
