package sift

import "github.com/siftkit/sift/params"

// Sentinel errors re-exported from the params layer.
// Use errors.Is() to check.
var (
	ErrUnknownParameter = params.ErrUnknownParameter
	ErrTagModeConflict  = params.ErrTagModeConflict
	ErrInvalidOperator  = params.ErrInvalidOperator
	ErrUndeclaredFacet  = params.ErrUndeclaredFacet
	ErrAlreadyRefined   = params.ErrAlreadyRefined
)
