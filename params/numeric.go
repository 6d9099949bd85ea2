package params

import "fmt"

// Operator is a numeric comparison operator.
type Operator string

// Supported numeric comparison operators.
const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
)

// IsValid reports whether op is a supported comparison operator.
func (op Operator) IsValid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual:
		return true
	}
	return false
}

func numSet(m map[string]map[Operator]float64, attr string, op Operator, value float64) map[string]map[Operator]float64 {
	next := make(map[string]map[Operator]float64, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	inner := make(map[Operator]float64, len(m[attr])+1)
	for k, v := range m[attr] {
		inner[k] = v
	}
	inner[op] = value
	next[attr] = inner
	return next
}

func numClear(m map[string]map[Operator]float64, sel ClearSelector) (map[string]map[Operator]float64, bool) {
	if len(m) == 0 {
		return m, false
	}
	next := make(map[string]map[Operator]float64, len(m))
	changed := false
	for attr, inner := range m {
		kept := make(map[Operator]float64, len(inner))
		for op, value := range inner {
			if sel.matches(Refinement{Attribute: attr, Kind: KindNumeric, Operator: op, Number: value}) {
				changed = true
				continue
			}
			kept[op] = value
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

// AddNumericRefinement sets the value for an (attribute, operator) pair,
// overwriting any previous value for that pair. Resets the page on change;
// no-op if the identical value is already set.
func (s *State) AddNumericRefinement(attr string, op Operator, value float64) (*State, error) {
	if !op.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperator, string(op))
	}
	if cur, ok := s.NumericRefinement(attr, op); ok && cur == value {
		return s, nil
	}
	c := s.clone()
	c.numericRefs = numSet(s.numericRefs, attr, op, value)
	c.page = 0
	return c, nil
}

// RemoveNumericRefinement drops the listed operators for attr, or every
// operator when none is given. No-op if nothing is refined.
func (s *State) RemoveNumericRefinement(attr string, ops ...Operator) *State {
	inner, ok := s.numericRefs[attr]
	if !ok || len(inner) == 0 {
		return s
	}
	kept := make(map[Operator]float64, len(inner))
	if len(ops) > 0 {
		for op, value := range inner {
			drop := false
			for _, o := range ops {
				if o == op {
					drop = true
					break
				}
			}
			if !drop {
				kept[op] = value
			}
		}
		if len(kept) == len(inner) {
			return s
		}
	}
	next := make(map[string]map[Operator]float64, len(s.numericRefs))
	for k, v := range s.numericRefs {
		next[k] = v
	}
	if len(kept) == 0 {
		delete(next, attr)
	} else {
		next[attr] = kept
	}
	c := s.clone()
	c.numericRefs = next
	c.page = 0
	return c
}

// IsNumericRefined reports whether attr carries numeric refinements, or
// whether every listed operator has a value.
func (s *State) IsNumericRefined(attr string, ops ...Operator) bool {
	inner, ok := s.numericRefs[attr]
	if !ok || len(inner) == 0 {
		return false
	}
	for _, op := range ops {
		if _, ok := inner[op]; !ok {
			return false
		}
	}
	return true
}

// NumericRefinement returns the value set for an (attribute, operator) pair.
func (s *State) NumericRefinement(attr string, op Operator) (float64, bool) {
	inner, ok := s.numericRefs[attr]
	if !ok {
		return 0, false
	}
	value, ok := inner[op]
	return value, ok
}

// NumericRefinements returns a copy of the numeric refinement map.
func (s *State) NumericRefinements() map[string]map[Operator]float64 {
	if s.numericRefs == nil {
		return nil
	}
	out := make(map[string]map[Operator]float64, len(s.numericRefs))
	for attr, inner := range s.numericRefs {
		m := make(map[Operator]float64, len(inner))
		for op, value := range inner {
			m[op] = value
		}
		out[attr] = m
	}
	return out
}
