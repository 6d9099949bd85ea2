package sift

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/siftkit/sift/engine"
	"github.com/siftkit/sift/internal/sequence"
	"github.com/siftkit/sift/params"
)

// Client drives faceted search over one index. It owns the current
// immutable parameter state, derives the physical request batch from
// it and merges the engine responses back into a single Result.
//
// Asynchronous searches are sequenced: an outcome that finishes after
// a newer one has been delivered is dropped without invoking any
// handler. Handlers run serialized.
type Client struct {
	index string
	eng   engine.Searcher
	obs   *observer
	seq   *sequence.Tracker

	onResult func(*Result)
	onError  func(error)

	mu    sync.Mutex
	state *params.State
}

// New creates a search client for index backed by eng.
func New(index string, eng engine.Searcher, opts ...Option) (*Client, error) {
	if index == "" {
		return nil, errors.New("sift: index required")
	}
	if eng == nil {
		return nil, errors.New("sift: engine required (use engine/redisearch, engine/remote or engine/memory)")
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.state == nil {
		cfg.state = params.New()
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		index:    index,
		eng:      eng,
		obs:      obs,
		seq:      sequence.New(),
		onResult: cfg.onResult,
		onError:  cfg.onError,
		state:    cfg.state,
	}, nil
}

// Index returns the index the client searches.
func (c *Client) Index() string { return c.index }

// State returns the current immutable parameter state.
func (c *Client) State() *params.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState replaces the parameter state wholesale. A nil state resets
// to defaults.
func (c *Client) SetState(st *params.State) {
	if st == nil {
		st = params.New()
	}
	c.mu.Lock()
	c.state = st
	c.mu.Unlock()
}

// mutate swaps the state for fn's output under the lock.
func (c *Client) mutate(fn func(*params.State) (*params.State, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fn(c.state)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// SetQuery replaces the text query and resets the page.
func (c *Client) SetQuery(q string) {
	_ = c.mutate(func(st *params.State) (*params.State, error) {
		return st.WithQuery(q), nil
	})
}

// SetPage jumps to page n.
func (c *Client) SetPage(n int) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.WithPage(n)
	})
}

// NextPage advances one page.
func (c *Client) NextPage() error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.WithPage(st.Page() + 1)
	})
}

// PreviousPage goes back one page.
func (c *Client) PreviousPage() error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.WithPage(st.Page() - 1)
	})
}

// SetHitsPerPage changes the page size and resets the page.
func (c *Client) SetHitsPerPage(n int) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.WithHitsPerPage(n)
	})
}

// SetParameters applies a named-parameter patch atomically.
func (c *Client) SetParameters(values map[string]any) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.SetParameters(values)
	})
}

// DeclareFacets sets the conjunctive facet declarations.
func (c *Client) DeclareFacets(attrs ...string) {
	_ = c.mutate(func(st *params.State) (*params.State, error) {
		return st.WithFacets(attrs...), nil
	})
}

// DeclareDisjunctiveFacets sets the disjunctive facet declarations.
func (c *Client) DeclareDisjunctiveFacets(attrs ...string) {
	_ = c.mutate(func(st *params.State) (*params.State, error) {
		return st.WithDisjunctiveFacets(attrs...), nil
	})
}

// DeclareHierarchicalFacets sets the hierarchical facet declarations.
func (c *Client) DeclareHierarchicalFacets(facets ...params.HierarchicalFacet) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.WithHierarchicalFacets(facets...)
	})
}

// AddFacetRefinement adds a conjunctive value for a declared
// conjunctive attribute.
func (c *Client) AddFacetRefinement(attr, value string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		if !st.IsConjunctiveFacet(attr) {
			return nil, undeclared(attr, "facets")
		}
		return st.AddFacetRefinement(attr, value), nil
	})
}

// RemoveFacetRefinement removes conjunctive values; with no values the
// whole attribute is cleared.
func (c *Client) RemoveFacetRefinement(attr string, values ...string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		if !st.IsConjunctiveFacet(attr) {
			return nil, undeclared(attr, "facets")
		}
		return st.RemoveFacetRefinement(attr, values...), nil
	})
}

// AddExcludeRefinement excludes a value of a declared conjunctive
// attribute.
func (c *Client) AddExcludeRefinement(attr, value string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		if !st.IsConjunctiveFacet(attr) {
			return nil, undeclared(attr, "facets")
		}
		return st.AddExcludeRefinement(attr, value), nil
	})
}

// RemoveExcludeRefinement removes exclusions; with no values the whole
// attribute is cleared.
func (c *Client) RemoveExcludeRefinement(attr string, values ...string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		if !st.IsConjunctiveFacet(attr) {
			return nil, undeclared(attr, "facets")
		}
		return st.RemoveExcludeRefinement(attr, values...), nil
	})
}

// AddDisjunctiveFacetRefinement adds an OR value for a declared
// disjunctive attribute.
func (c *Client) AddDisjunctiveFacetRefinement(attr, value string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		if !st.IsDisjunctiveFacet(attr) {
			return nil, undeclared(attr, "disjunctiveFacets")
		}
		return st.AddDisjunctiveFacetRefinement(attr, value), nil
	})
}

// RemoveDisjunctiveFacetRefinement removes OR values; with no values
// the whole attribute is cleared.
func (c *Client) RemoveDisjunctiveFacetRefinement(attr string, values ...string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		if !st.IsDisjunctiveFacet(attr) {
			return nil, undeclared(attr, "disjunctiveFacets")
		}
		return st.RemoveDisjunctiveFacetRefinement(attr, values...), nil
	})
}

// AddHierarchicalFacetRefinement selects a path of a declared
// hierarchical facet.
func (c *Client) AddHierarchicalFacetRefinement(name, path string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.AddHierarchicalFacetRefinement(name, path)
	})
}

// RemoveHierarchicalFacetRefinement clears the facet's path.
func (c *Client) RemoveHierarchicalFacetRefinement(name string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.RemoveHierarchicalFacetRefinement(name)
	})
}

// ToggleRefinement toggles a value on whichever side attr is declared,
// trying hierarchical, then conjunctive, then disjunctive.
func (c *Client) ToggleRefinement(attr, value string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		switch {
		case st.IsHierarchicalFacet(attr):
			return st.ToggleHierarchicalFacetRefinement(attr, value)
		case st.IsConjunctiveFacet(attr):
			return st.ToggleFacetRefinement(attr, value), nil
		case st.IsDisjunctiveFacet(attr):
			return st.ToggleDisjunctiveFacetRefinement(attr, value), nil
		default:
			return nil, undeclared(attr, "any facet list")
		}
	})
}

// AddNumericRefinement sets attr op value, replacing a previous value
// under the same operator.
func (c *Client) AddNumericRefinement(attr string, op params.Operator, value float64) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.AddNumericRefinement(attr, op, value)
	})
}

// RemoveNumericRefinement removes the listed operators; with none the
// whole attribute is cleared.
func (c *Client) RemoveNumericRefinement(attr string, ops ...params.Operator) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.RemoveNumericRefinement(attr, ops...), nil
	})
}

// AddTag adds a managed tag refinement.
func (c *Client) AddTag(tag string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.AddTagRefinement(tag)
	})
}

// RemoveTag removes a managed tag refinement.
func (c *Client) RemoveTag(tag string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.RemoveTagRefinement(tag)
	})
}

// ToggleTag flips a managed tag refinement.
func (c *Client) ToggleTag(tag string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.ToggleTagRefinement(tag)
	})
}

// SetTagFilters sets the raw tag expression.
func (c *Client) SetTagFilters(raw string) error {
	return c.mutate(func(st *params.State) (*params.State, error) {
		return st.WithTagFilters(raw)
	})
}

// ClearRefinements drops the refinements matched by sel.
func (c *Client) ClearRefinements(sel params.ClearSelector) {
	_ = c.mutate(func(st *params.State) (*params.State, error) {
		return st.ClearRefinements(sel), nil
	})
}

// ClearTags drops managed tags and the raw tag expression.
func (c *Client) ClearTags() {
	_ = c.mutate(func(st *params.State) (*params.State, error) {
		return st.ClearTags(), nil
	})
}

// Search runs the derived batch synchronously and merges the
// responses. The sequencer is not involved.
func (c *Client) Search(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	return Execute(ctx, c.eng, c.index, c.State())
}

// SearchAsync snapshots the state, runs the search in the background
// and returns its sequence id immediately. The outcome reaches the
// result or error handler only if no later search has finished first;
// stale outcomes are dropped without a callback.
func (c *Client) SearchAsync(ctx context.Context) int64 {
	id := c.seq.Next()
	st := c.State()

	go func() {
		start := time.Now()
		res, err := Execute(ctx, c.eng, c.index, st)

		accepted := c.seq.Accept(id, func() {
			if err != nil {
				if c.onError != nil {
					c.onError(err)
				}
				return
			}
			if c.onResult != nil {
				c.onResult(res)
			}
		})

		if accepted {
			c.obs.observe("search.async", start, err)
		} else {
			c.obs.discard("search.async", id)
		}
	}()

	return id
}

// LastAccepted returns the sequence id of the latest delivered
// asynchronous outcome.
func (c *Client) LastAccepted() int64 { return c.seq.LastAccepted() }

func undeclared(attr, list string) error {
	return fmt.Errorf("%w: %q is not declared in %s", params.ErrUndeclaredFacet, attr, list)
}
