package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/siftkit/sift/engine"
)

// ErrUnknownIndex signals a search against an index no document was added to.
var ErrUnknownIndex = errors.New("unknown index")

var _ engine.Searcher = (*Engine)(nil)

// Engine is a deterministic in-memory Searcher for demos and handler
// tests. Documents are flat maps with string, numeric and string-list
// values; text matching is a case-insensitive substring scan over string
// fields. The raw tag expression supports a comma-separated conjunction.
type Engine struct {
	mu   sync.RWMutex
	docs map[string][]engine.Hit
}

// New creates an empty Engine.
func New() *Engine {
	return &Engine{docs: make(map[string][]engine.Hit)}
}

// Add appends documents to an index, creating it on first use. Documents
// are kept in insertion order, which is the default result order.
func (e *Engine) Add(index string, docs ...engine.Hit) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs[index] = append(e.docs[index], docs...)
}

// Search executes the batch sequentially. Responses align with requests.
func (e *Engine) Search(ctx context.Context, reqs []engine.Request) ([]engine.Response, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]engine.Response, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := e.run(req)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (e *Engine) run(req engine.Request) (engine.Response, error) {
	start := time.Now()
	docs, ok := e.docs[req.Index]
	if !ok {
		return engine.Response{}, fmt.Errorf("memory: index %q: %w", req.Index, ErrUnknownIndex)
	}

	var matched []engine.Hit
	for _, doc := range docs {
		if matches(doc, req) {
			matched = append(matched, doc)
		}
	}
	if sortBy, ok := req.Extra["sortBy"].(string); ok && sortBy != "" {
		desc := false
		if order, ok := req.Extra["sortOrder"].(string); ok {
			desc = strings.EqualFold(order, "desc")
		}
		sortHits(matched, sortBy, desc)
	}

	resp := engine.Response{
		TotalHits:   len(matched),
		Page:        req.Page,
		PageCount:   engine.Pages(len(matched), req.HitsPerPage),
		HitsPerPage: req.HitsPerPage,
		Facets:      countFacets(matched, req.Facets),
	}
	if !req.FacetsOnly {
		from := req.Page * req.HitsPerPage
		if from < 0 {
			from = 0
		}
		if from < len(matched) {
			to := from + req.HitsPerPage
			if req.HitsPerPage <= 0 || to > len(matched) {
				to = len(matched)
			}
			resp.Hits = matched[from:to]
		}
	}
	resp.Elapsed = time.Since(start)
	return resp, nil
}

func matches(doc engine.Hit, req engine.Request) bool {
	if !matchesText(doc, req.Query) {
		return false
	}
	for _, group := range req.Filters {
		if !matchesGroup(doc, group) {
			return false
		}
	}
	for _, nf := range req.Numeric {
		if !matchesNumeric(doc, nf) {
			return false
		}
	}
	for _, tag := range req.Tags {
		if !hasValue(doc, engine.TagsField, tag) {
			return false
		}
	}
	if req.RawTags != "" {
		for _, tag := range strings.Split(req.RawTags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" && !hasValue(doc, engine.TagsField, tag) {
				return false
			}
		}
	}
	return true
}

func matchesText(doc engine.Hit, query string) bool {
	if query == "" || query == "*" {
		return true
	}
	needle := strings.ToLower(query)
	for _, v := range doc {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

// matchesGroup is an OR over the group's conditions.
func matchesGroup(doc engine.Hit, group []engine.Filter) bool {
	if len(group) == 0 {
		return true
	}
	for _, f := range group {
		hit := hasValue(doc, f.Attribute, f.Value)
		if f.Negate {
			hit = !hit
		}
		if hit {
			return true
		}
	}
	return false
}

func matchesNumeric(doc engine.Hit, nf engine.NumericFilter) bool {
	got, ok := numericValue(doc[nf.Attribute])
	if !ok {
		return false
	}
	switch nf.Operator {
	case engine.OpEqual:
		return got == nf.Value
	case engine.OpNotEqual:
		return got != nf.Value
	case engine.OpGreater:
		return got > nf.Value
	case engine.OpGreaterOrEqual:
		return got >= nf.Value
	case engine.OpLess:
		return got < nf.Value
	case engine.OpLessOrEqual:
		return got <= nf.Value
	}
	return false
}

func hasValue(doc engine.Hit, attr, value string) bool {
	switch v := doc[attr].(type) {
	case string:
		return v == value
	case []string:
		for _, s := range v {
			if s == value {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == value {
				return true
			}
		}
	case float64, int, int64:
		n, _ := numericValue(v)
		return formatNumber(n) == value
	}
	return false
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func countFacets(docs []engine.Hit, attrs []string) map[string]map[string]int {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]map[string]int, len(attrs))
	for _, attr := range attrs {
		counts := make(map[string]int)
		for _, doc := range docs {
			for _, value := range facetValues(doc[attr]) {
				counts[value]++
			}
		}
		out[attr] = counts
	}
	return out
}

func facetValues(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case float64, int, int64:
		n, _ := numericValue(val)
		return []string{formatNumber(n)}
	}
	return nil
}

func sortHits(hits []engine.Hit, field string, desc bool) {
	sort.SliceStable(hits, func(i, j int) bool {
		less := lessValue(hits[i][field], hits[j][field])
		if desc {
			return lessValue(hits[j][field], hits[i][field])
		}
		return less
	})
}

func lessValue(a, b any) bool {
	an, aok := numericValue(a)
	bn, bok := numericValue(b)
	if aok && bok {
		return an < bn
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return as < bs
}
