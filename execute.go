package sift

import (
	"context"
	"fmt"

	"github.com/siftkit/sift/engine"
	"github.com/siftkit/sift/params"
)

// Execute runs one derive, search, merge round trip against eng: the
// state is expanded into the physical request batch, the batch is sent
// as a whole and the positional responses are folded into one Result.
// A nil state searches with defaults.
//
// Client.Search wraps this with sequencing and observability; servers
// that hold no client can call it directly.
func Execute(ctx context.Context, eng engine.Searcher, index string, st *params.State) (*Result, error) {
	if st == nil {
		st = params.New()
	}

	reqs := buildRequests(index, st)
	resps, err := eng.Search(ctx, reqs)
	if err != nil {
		return nil, fmt.Errorf("sift: search: %w", err)
	}
	if len(resps) != len(reqs) {
		return nil, fmt.Errorf("sift: engine returned %d responses for %d requests", len(resps), len(reqs))
	}
	return mergeResults(index, st, resps), nil
}
