package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/siftkit/sift/engine"
)

// Sentinel errors mapped from HTTP statuses of the query endpoint.
var (
	ErrUnauthorized = errors.New("remote: unauthorized")
	ErrBadRequest   = errors.New("remote: bad request")
	ErrRemote       = errors.New("remote: request failed")
)

// Compile-time check: Engine implements engine.Searcher.
var _ engine.Searcher = (*Engine)(nil)

// Engine executes search batches against a remote sift service over
// its batch query endpoint.
type Engine struct {
	base   string
	apiKey string
	client *http.Client
	log    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// WithAPIKey sends key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(e *Engine) { e.apiKey = key }
}

// WithLogger sets the logger. Silent without one.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates a remote engine for the service at base.
func New(base string, opts ...Option) (*Engine, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	e := &Engine{
		base:   strings.TrimRight(base, "/"),
		client: http.DefaultClient,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type queryPayload struct {
	Requests []engine.Request `json:"requests"`
}

type queryResult struct {
	Responses []engine.Response `json:"responses"`
}

// Search posts the batch to /api/v1/queries and returns the responses
// in request order.
func (e *Engine) Search(ctx context.Context, reqs []engine.Request) ([]engine.Response, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(queryPayload{Requests: reqs})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.base+"/api/v1/queries", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrBadRequest, errorDetail(resp.Body))
	default:
		return nil, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}

	var result queryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(result.Responses) != len(reqs) {
		return nil, fmt.Errorf("%w: got %d responses for %d requests", ErrRemote, len(result.Responses), len(reqs))
	}

	e.log.DebugContext(ctx, "remote search done", "requests", len(reqs))
	return result.Responses, nil
}

func errorDetail(r io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil || payload.Error == "" {
		return "no detail"
	}
	return payload.Error
}
