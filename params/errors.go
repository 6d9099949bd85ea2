package params

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownParameter signals a parameter key that is not part of the schema.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrTagModeConflict signals mixing the managed tag list with a raw tag expression.
	ErrTagModeConflict = errors.New("tag refinements and raw tag filters cannot be combined")
	// ErrInvalidOperator signals an unsupported numeric comparison operator.
	ErrInvalidOperator = errors.New("invalid numeric operator")
	// ErrUndeclaredFacet signals a refinement on an attribute that was never declared.
	ErrUndeclaredFacet = errors.New("facet is not declared")
	// ErrAlreadyRefined signals a second refinement on a single-refinement facet.
	ErrAlreadyRefined = errors.New("facet is already refined")
)

// UnknownParameterError wraps ErrUnknownParameter with every offending key.
type UnknownParameterError struct {
	Keys []string
}

func (e *UnknownParameterError) Error() string {
	if len(e.Keys) == 1 {
		return fmt.Sprintf("unknown parameter: %s", e.Keys[0])
	}
	return fmt.Sprintf("unknown parameters: %s", strings.Join(e.Keys, ", "))
}

func (e *UnknownParameterError) Unwrap() error { return ErrUnknownParameter }

// NewUnknownParameter creates an UnknownParameterError for the given keys.
func NewUnknownParameter(keys ...string) error {
	return &UnknownParameterError{Keys: keys}
}
