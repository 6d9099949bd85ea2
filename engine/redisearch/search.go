package redisearch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"
	"golang.org/x/sync/errgroup"

	"github.com/siftkit/sift/engine"
)

// maxFacetValues is the default cap on distinct values one FT.AGGREGATE
// reports per facet attribute.
const maxFacetValues = 100

// Search runs the batch concurrently, one goroutine per request.
// Responses align positionally with the requests.
func (e *Engine) Search(ctx context.Context, reqs []engine.Request) ([]engine.Response, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	responses := make([]engine.Response, len(reqs))
	g, gctx := errgroup.WithContext(ctx)

	for i := range reqs {
		i := i
		g.Go(func() error {
			resp, err := e.run(gctx, &reqs[i])
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

func (e *Engine) run(ctx context.Context, req *engine.Request) (engine.Response, error) {
	start := time.Now()

	query := buildQuery(req)

	cmd := e.b().Arbitrary("FT.SEARCH").Args(searchArgs(req, query)...).Build()
	raw, err := e.do(ctx, cmd).ToArray()
	if err != nil {
		if isIndexMissing(err) {
			return engine.Response{}, &Error{Op: OpSearch, Err: fmt.Errorf("index %q: %w", req.Index, ErrIndexNotFound)}
		}
		return engine.Response{}, &Error{Op: OpSearch, Err: err}
	}

	resp, err := parseSearchResult(raw, req)
	if err != nil {
		return engine.Response{}, err
	}

	if len(req.Facets) > 0 {
		resp.Facets = make(map[string]map[string]int, len(req.Facets))
		for _, attr := range req.Facets {
			counts, err := e.facetCounts(ctx, req.Index, query, attr)
			if err != nil {
				return engine.Response{}, err
			}
			resp.Facets[attr] = counts
		}
	}

	resp.Elapsed = time.Since(start)
	return resp, nil
}

// facetCounts groups the matching documents by one attribute via
// FT.AGGREGATE and returns value counts.
func (e *Engine) facetCounts(ctx context.Context, index, query, attr string) (map[string]int, error) {
	cmd := e.b().Arbitrary("FT.AGGREGATE").Args(
		index, query,
		"GROUPBY", "1", "@"+attr,
		"REDUCE", "COUNT", "0", "AS", "count",
		"SORTBY", "2", "@count", "DESC",
		"LIMIT", "0", strconv.Itoa(e.facetValues),
		"DIALECT", "2",
	).Build()

	raw, err := e.do(ctx, cmd).ToArray()
	if err != nil {
		if isIndexMissing(err) {
			return nil, &Error{Op: OpAggregate, Err: fmt.Errorf("index %q: %w", index, ErrIndexNotFound)}
		}
		return nil, &Error{Op: OpAggregate, Err: err}
	}

	counts := make(map[string]int)
	// [total, row1, row2, ...]; each row is a name/value pair list and
	// carries the grouped property without its @ prefix.
	for i := 1; i < len(raw); i++ {
		row, err := raw[i].ToArray()
		if err != nil {
			continue
		}
		pairs := parsePairs(row)
		value, ok := pairs[attr]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(pairs["count"])
		if err != nil {
			continue
		}
		counts[value] = n
	}
	return counts, nil
}

func parseSearchResult(raw []rueidis.RedisMessage, req *engine.Request) (engine.Response, error) {
	resp := engine.Response{
		Page:        req.Page,
		HitsPerPage: req.HitsPerPage,
	}
	if len(raw) == 0 {
		return resp, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return engine.Response{}, fmt.Errorf("redisearch: parse total: %w", err)
	}
	resp.TotalHits = int(total)
	resp.PageCount = engine.Pages(resp.TotalHits, req.HitsPerPage)

	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		pairs := parsePairs(fields)
		hit := make(engine.Hit, len(pairs)+1)
		for name, value := range pairs {
			hit[name] = value
		}
		if _, ok := hit["objectID"]; !ok {
			hit["objectID"] = key
		}
		resp.Hits = append(resp.Hits, hit)
	}
	return resp, nil
}

func parsePairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
