package redisearch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/siftkit/sift/engine"
)

// Compile-time check: Engine implements engine.Searcher.
var _ engine.Searcher = (*Engine)(nil)

// Config holds connection parameters for a RediSearch engine.
// FacetValues caps the distinct values returned per facet attribute;
// zero keeps the default of 100.
type Config struct {
	Addrs       []string
	Username    string
	Password    string
	DB          int
	FacetValues int
}

// Engine runs search batches against Redis with the RediSearch module
// (Redis 8+). Hits come from FT.SEARCH, facet counts from one
// FT.AGGREGATE per requested facet attribute.
type Engine struct {
	client      rueidis.Client
	facetValues int
}

// New creates a RediSearch engine via rueidis.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	facetValues := cfg.FacetValues
	if facetValues <= 0 {
		facetValues = maxFacetValues
	}
	return &Engine{client: client, facetValues: facetValues}, nil
}

// Ping checks connectivity.
func (e *Engine) Ping(ctx context.Context) error {
	cmd := e.client.B().Ping().Build()
	if err := e.client.Do(ctx, cmd).Error(); err != nil {
		return &Error{Op: OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (e *Engine) Close() {
	e.client.Close()
}

// WaitForReady polls Ping until the server responds or timeout expires.
func (e *Engine) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search engine: %w", ctx.Err())
		case <-ticker.C:
			if err := e.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (e *Engine) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return e.client.Do(ctx, cmd)
}

func (e *Engine) b() rueidis.Builder {
	return e.client.B()
}

// isIndexMissing checks whether err is the server complaining about a
// non-existent index. The wording differs across RediSearch versions.
func isIndexMissing(err error) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	msg := strings.ToLower(re.Error())
	return strings.Contains(msg, "no such index") || strings.Contains(msg, "unknown index")
}
