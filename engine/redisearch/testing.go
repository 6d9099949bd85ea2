package redisearch

import "github.com/redis/rueidis"

// NewForTest creates an Engine with the provided rueidis client (test-only).
func NewForTest(c rueidis.Client) *Engine {
	return &Engine{client: c, facetValues: maxFacetValues}
}
