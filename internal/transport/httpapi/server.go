// Package httpapi exposes the search pipeline over HTTP: a state-based
// search endpoint, the raw batch endpoint the remote engine client
// speaks, and the health and metrics routes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/siftkit/sift"
	"github.com/siftkit/sift/engine"
	"github.com/siftkit/sift/internal/metrics"
	"github.com/siftkit/sift/internal/version"
	"github.com/siftkit/sift/params"
)

const defaultMaxHitsPerPage = 100

// errorHandler tries to handle a request error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Pinger reports engine connectivity for the health endpoint. Engines
// without a connection to check (memory) just stay unwired.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server handles the HTTP API on top of a search engine.
type Server struct {
	eng           engine.Searcher
	pinger        Pinger
	logger        *zap.Logger
	defaultHits   int
	maxHits       int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server executing searches on eng.
func NewServer(eng engine.Searcher, logger *zap.Logger) *Server {
	s := &Server{
		eng:         eng,
		logger:      logger,
		defaultHits: params.DefaultHitsPerPage,
		maxHits:     defaultMaxHitsPerPage,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(params.ErrUnknownParameter, http.StatusBadRequest),
		sentinelHandler(params.ErrTagModeConflict, http.StatusBadRequest),
		sentinelHandler(params.ErrInvalidOperator, http.StatusBadRequest),
		sentinelHandler(params.ErrUndeclaredFacet, http.StatusBadRequest),
		sentinelHandler(params.ErrAlreadyRefined, http.StatusBadRequest),
	}
	return s
}

// WithLimits configures page size bounds applied to incoming requests.
func (s *Server) WithLimits(defaultHitsPerPage, maxHitsPerPage int) *Server {
	if defaultHitsPerPage > 0 {
		s.defaultHits = defaultHitsPerPage
	}
	if maxHitsPerPage > 0 {
		s.maxHits = maxHitsPerPage
	}
	return s
}

// WithPinger wires an engine connectivity check into /health.
func (s *Server) WithPinger(p Pinger) *Server {
	s.pinger = p
	return s
}

// Routes mounts all endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.Health)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/queries", s.Queries)
		r.Post("/indexes/{index}/search", s.Search)
	})
}

// searchRequest describes the search state for one request: facet
// declarations, refinements, tags and paging knobs. Field names follow
// the parameter schema.
type searchRequest struct {
	Query       string `json:"query"`
	Page        int    `json:"page"`
	HitsPerPage int    `json:"hitsPerPage"`

	Facets             []string                `json:"facets"`
	DisjunctiveFacets  []string                `json:"disjunctiveFacets"`
	HierarchicalFacets []hierarchicalFacetSpec `json:"hierarchicalFacets"`

	FacetRefinements        map[string][]string           `json:"facetRefinements"`
	ExcludeRefinements      map[string][]string           `json:"excludeRefinements"`
	DisjunctiveRefinements  map[string][]string           `json:"disjunctiveFacetRefinements"`
	HierarchicalRefinements map[string]string             `json:"hierarchicalFacetRefinements"`
	NumericRefinements      map[string]map[string]float64 `json:"numericRefinements"`

	TagRefinements []string       `json:"tagRefinements"`
	TagFilters     string         `json:"tagFilters"`
	Params         map[string]any `json:"params"`
}

type hierarchicalFacetSpec struct {
	Name            string   `json:"name"`
	Attributes      []string `json:"attributes"`
	Separator       string   `json:"separator,omitempty"`
	RootPath        string   `json:"rootPath,omitempty"`
	ShowParentLevel *bool    `json:"showParentLevel,omitempty"`
}

// toState builds an immutable search state from the request, clamping
// the page size into [1, maxHits]. Explicit fields win over the same
// keys in Params.
func (req *searchRequest) toState(defaultHits, maxHits int) (*params.State, error) {
	st := params.New()

	var err error
	if len(req.Params) > 0 {
		if st, err = st.SetParameters(req.Params); err != nil {
			return nil, err
		}
	}

	if len(req.Facets) > 0 {
		st = st.WithFacets(req.Facets...)
	}
	if len(req.DisjunctiveFacets) > 0 {
		st = st.WithDisjunctiveFacets(req.DisjunctiveFacets...)
	}
	if len(req.HierarchicalFacets) > 0 {
		facets := make([]params.HierarchicalFacet, len(req.HierarchicalFacets))
		for i, spec := range req.HierarchicalFacets {
			var opts []params.HierarchicalFacetOption
			if spec.Separator != "" {
				opts = append(opts, params.WithSeparator(spec.Separator))
			}
			if spec.RootPath != "" {
				opts = append(opts, params.WithRootPath(spec.RootPath))
			}
			if spec.ShowParentLevel != nil && !*spec.ShowParentLevel {
				opts = append(opts, params.WithoutParentLevel())
			}
			f, ferr := params.NewHierarchicalFacet(spec.Name, spec.Attributes, opts...)
			if ferr != nil {
				return nil, fmt.Errorf("hierarchical facet %q: %w", spec.Name, ferr)
			}
			facets[i] = f
		}
		if st, err = st.WithHierarchicalFacets(facets...); err != nil {
			return nil, err
		}
	}

	if req.Query != "" {
		st = st.WithQuery(req.Query)
	}

	for attr, values := range req.FacetRefinements {
		for _, v := range values {
			st = st.AddFacetRefinement(attr, v)
		}
	}
	for attr, values := range req.ExcludeRefinements {
		for _, v := range values {
			st = st.AddExcludeRefinement(attr, v)
		}
	}
	for attr, values := range req.DisjunctiveRefinements {
		for _, v := range values {
			st = st.AddDisjunctiveFacetRefinement(attr, v)
		}
	}
	for name, path := range req.HierarchicalRefinements {
		if st, err = st.AddHierarchicalFacetRefinement(name, path); err != nil {
			return nil, err
		}
	}
	for attr, ops := range req.NumericRefinements {
		for op, value := range ops {
			if st, err = st.AddNumericRefinement(attr, params.Operator(op), value); err != nil {
				return nil, err
			}
		}
	}

	for _, tag := range req.TagRefinements {
		if st, err = st.AddTagRefinement(tag); err != nil {
			return nil, err
		}
	}
	if req.TagFilters != "" {
		if st, err = st.WithTagFilters(req.TagFilters); err != nil {
			return nil, err
		}
	}

	// Paging last: refinements and the query reset the page.
	hits := req.HitsPerPage
	if hits <= 0 {
		hits = defaultHits
	}
	if hits > maxHits {
		hits = maxHits
	}
	if st, err = st.WithHitsPerPage(hits); err != nil {
		return nil, err
	}
	if st, err = st.WithPage(req.Page); err != nil {
		return nil, err
	}

	return st, nil
}

// Search handles POST /api/v1/indexes/{index}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	if index == "" {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := req.toState(s.defaultHits, s.maxHits)
	if err != nil {
		s.handleSearchError(w, err, http.StatusBadRequest)
		return
	}

	res, err := sift.Execute(r.Context(), s.eng, index, st)
	if err != nil {
		metrics.SearchBatchesTotal.WithLabelValues("search", "error").Inc()
		s.handleSearchError(w, err, http.StatusBadGateway)
		return
	}
	metrics.SearchBatchesTotal.WithLabelValues("search", "ok").Inc()

	writeJSON(w, http.StatusOK, res)
}

type queryPayload struct {
	Requests []engine.Request `json:"requests"`
}

type queryResult struct {
	Responses []engine.Response `json:"responses"`
}

// Queries handles POST /api/v1/queries: a raw positional batch, the
// wire surface the remote engine client speaks.
func (s *Server) Queries(w http.ResponseWriter, r *http.Request) {
	var payload queryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(payload.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "at least one request is required")
		return
	}

	for i := range payload.Requests {
		q := &payload.Requests[i]
		if q.Index == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("request %d: index is required", i))
			return
		}
		if q.HitsPerPage <= 0 {
			q.HitsPerPage = s.defaultHits
		}
		if q.HitsPerPage > s.maxHits {
			q.HitsPerPage = s.maxHits
		}
	}

	resps, err := s.eng.Search(r.Context(), payload.Requests)
	if err != nil {
		metrics.SearchBatchesTotal.WithLabelValues("queries", "error").Inc()
		s.handleSearchError(w, err, http.StatusBadGateway)
		return
	}
	metrics.SearchBatchesTotal.WithLabelValues("queries", "ok").Inc()
	metrics.SearchBatchRequests.WithLabelValues("queries").Observe(float64(len(payload.Requests)))

	writeJSON(w, http.StatusOK, queryResult{Responses: resps})
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health. With a pinger wired it degrades to 503
// when the engine is unreachable.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	status, httpStatus := "ok", http.StatusOK
	checks := make(map[string]string)
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.logger.Warn("engine ping failed", zap.Error(err))
			checks["engine"] = "down"
			status, httpStatus = "degraded", http.StatusServiceUnavailable
		} else {
			checks["engine"] = "up"
		}
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  status,
		Version: version.Version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the flat {"error": ...} envelope the remote engine
// client parses for detail.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, err.Error())
		return true
	}
}

// handleSearchError writes err with a status from the sentinel table.
// Parameter sentinels are the caller's fault; anything else is reported
// with fallback.
func (s *Server) handleSearchError(w http.ResponseWriter, err error, fallback int) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			s.logger.Warn("search rejected", zap.Error(err))
			return
		}
	}
	if fallback == http.StatusBadRequest {
		s.logger.Warn("search rejected", zap.Error(err))
	} else {
		s.logger.Error("search failed", zap.Error(err))
	}
	writeError(w, fallback, err.Error())
}
