package engine

import (
	"context"
	"time"
)

// Searcher executes one batch of search requests. Responses align
// positionally with the requests: on success len(responses) equals
// len(requests).
type Searcher interface {
	Search(ctx context.Context, reqs []Request) ([]Response, error)
}

// TagsField is the document attribute where managed tags are stored.
// Every engine filters Request.Tags against this attribute.
const TagsField = "_tags"

// Operator is a numeric comparison operator in filter position.
type Operator string

// Numeric filter operators.
const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
)

// Filter is one facet condition. Negate turns it into an exclusion.
type Filter struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
	Negate    bool   `json:"negate,omitempty"`
}

// NumericFilter is one numeric comparison condition.
type NumericFilter struct {
	Attribute string   `json:"attribute"`
	Operator  Operator `json:"operator"`
	Value     float64  `json:"value"`
}

// Request is one physical search request of a batch.
//
// Filters is a conjunction of disjunctions: the outer slice combines with
// AND, the groups inside combine with OR. FacetsOnly requests return facet
// counts and no hits.
type Request struct {
	Index       string          `json:"index"`
	Query       string          `json:"query"`
	Page        int             `json:"page"`
	HitsPerPage int             `json:"hitsPerPage"`
	Facets      []string        `json:"facets,omitempty"`
	FacetsOnly  bool            `json:"facetsOnly,omitempty"`
	Filters     [][]Filter      `json:"filters,omitempty"`
	Numeric     []NumericFilter `json:"numeric,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	RawTags     string          `json:"rawTags,omitempty"`
	Extra       map[string]any  `json:"extra,omitempty"`
}

// Hit is one matched document.
type Hit map[string]any

// Response carries the outcome of one Request. Facets maps a requested
// attribute to its value → count breakdown.
type Response struct {
	Hits        []Hit                     `json:"hits"`
	TotalHits   int                       `json:"totalHits"`
	Page        int                       `json:"page"`
	PageCount   int                       `json:"pageCount"`
	HitsPerPage int                       `json:"hitsPerPage"`
	Elapsed     time.Duration             `json:"elapsed"`
	Facets      map[string]map[string]int `json:"facets,omitempty"`
}

// Pages returns the number of result pages for a total.
func Pages(total, hitsPerPage int) int {
	if total <= 0 || hitsPerPage <= 0 {
		return 0
	}
	return (total + hitsPerPage - 1) / hitsPerPage
}
