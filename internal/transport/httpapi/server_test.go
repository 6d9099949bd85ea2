package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/siftkit/sift/engine"
	"github.com/siftkit/sift/engine/memory"
)

// --- Fixtures ---

func catalogEngine() *memory.Engine {
	eng := memory.New()
	eng.Add("products",
		engine.Hit{"name": "alpha sneaker", "brand": "acme", "color": "red", "price": 90,
			"categories.lvl0": "Shoes", "categories.lvl1": "Shoes > Sneakers"},
		engine.Hit{"name": "bravo boot", "brand": "acme", "color": "blue", "price": 120,
			"categories.lvl0": "Shoes", "categories.lvl1": "Shoes > Boots"},
		engine.Hit{"name": "charlie cap", "brand": "globex", "color": "red", "price": 25,
			"categories.lvl0": "Accessories"},
		engine.Hit{"name": "delta sneaker", "brand": "globex", "color": "green", "price": 60,
			"categories.lvl0": "Shoes", "categories.lvl1": "Shoes > Sneakers"},
	)
	return eng
}

func testRouter(eng engine.Searcher) chi.Router {
	r := chi.NewRouter()
	NewServer(eng, zap.NewNop()).WithLimits(10, 50).Routes(r)
	return r
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return postRaw(h, path, bytes.NewReader(raw))
}

func postRaw(h http.Handler, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

type failingEngine struct{ err error }

func (f failingEngine) Search(context.Context, []engine.Request) ([]engine.Response, error) {
	return nil, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// searchResult mirrors the JSON shape of a merged search response.
type searchResult struct {
	Index             string                    `json:"index"`
	TotalHits         int                       `json:"totalHits"`
	Page              int                       `json:"page"`
	HitsPerPage       int                       `json:"hitsPerPage"`
	Hits              []map[string]any          `json:"hits"`
	Facets            map[string]map[string]int `json:"facets"`
	DisjunctiveFacets map[string]map[string]int `json:"disjunctiveFacets"`
	HierarchicalTrees []treeDTO                 `json:"hierarchicalFacets"`
}

type treeDTO struct {
	Name      string    `json:"name"`
	Count     *int      `json:"count"`
	Path      *string   `json:"path"`
	IsRefined bool      `json:"isRefined"`
	Data      []nodeDTO `json:"data"`
}

type nodeDTO struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Count     int       `json:"count"`
	IsRefined bool      `json:"isRefined"`
	Data      []nodeDTO `json:"data"`
}

// --- Search endpoint ---

func TestSearch_MergedResult(t *testing.T) {
	r := testRouter(catalogEngine())

	rr := postJSON(t, r, "/api/v1/indexes/products/search", map[string]any{
		"facets":                      []string{"brand"},
		"disjunctiveFacets":           []string{"color"},
		"disjunctiveFacetRefinements": map[string][]string{"color": {"red"}},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	var res searchResult
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if res.Index != "products" {
		t.Errorf("index: got %q", res.Index)
	}
	if res.TotalHits != 2 || len(res.Hits) != 2 {
		t.Errorf("hits: got total %d, page of %d, want 2 red products", res.TotalHits, len(res.Hits))
	}
	if res.HitsPerPage != 10 {
		t.Errorf("hitsPerPage: got %d, want server default 10", res.HitsPerPage)
	}
	if got := res.Facets["brand"]; got["acme"] != 1 || got["globex"] != 1 {
		t.Errorf("brand counts: got %v", got)
	}
	// Colors are counted without the color filter applied.
	if got := res.DisjunctiveFacets["color"]; got["red"] != 2 || got["blue"] != 1 || got["green"] != 1 {
		t.Errorf("color counts: got %v", got)
	}
}

func TestSearch_HierarchicalTree(t *testing.T) {
	r := testRouter(catalogEngine())

	rr := postJSON(t, r, "/api/v1/indexes/products/search", map[string]any{
		"hierarchicalFacets": []map[string]any{
			{"name": "categories", "attributes": []string{"categories.lvl0", "categories.lvl1"}},
		},
		"hierarchicalFacetRefinements": map[string]string{"categories": "Shoes"},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	var res searchResult
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if res.TotalHits != 3 {
		t.Errorf("totalHits: got %d, want the 3 shoes", res.TotalHits)
	}
	if len(res.HierarchicalTrees) != 1 {
		t.Fatalf("trees: got %d, want 1", len(res.HierarchicalTrees))
	}

	tree := res.HierarchicalTrees[0]
	if tree.Name != "categories" || !tree.IsRefined {
		t.Errorf("envelope: got name %q refined %v", tree.Name, tree.IsRefined)
	}
	if tree.Count != nil || tree.Path != nil {
		t.Errorf("envelope count/path must stay null, got %v %v", tree.Count, tree.Path)
	}
	if len(tree.Data) != 2 {
		t.Fatalf("roots: got %d, want Shoes and Accessories", len(tree.Data))
	}

	shoes := tree.Data[0]
	if shoes.Name != "Shoes" || shoes.Count != 3 || !shoes.IsRefined {
		t.Errorf("shoes root: got %+v", shoes)
	}
	if len(shoes.Data) != 2 || shoes.Data[0].Name != "Sneakers" || shoes.Data[0].Count != 2 {
		t.Errorf("shoes children: got %+v", shoes.Data)
	}
	if shoes.Data[0].Path != "Shoes > Sneakers" {
		t.Errorf("child path: got %q", shoes.Data[0].Path)
	}
	if shoes.Data[0].IsRefined {
		t.Errorf("unselected child must not be refined")
	}
	if other := tree.Data[1]; other.Name != "Accessories" || other.Count != 1 || other.IsRefined {
		t.Errorf("accessories root: got %+v", other)
	}
}

func TestSearch_ClampsHitsPerPage(t *testing.T) {
	r := testRouter(catalogEngine())

	rr := postJSON(t, r, "/api/v1/indexes/products/search", map[string]any{
		"hitsPerPage": 500,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	var res searchResult
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.HitsPerPage != 50 {
		t.Errorf("hitsPerPage: got %d, want clamped 50", res.HitsPerPage)
	}
}

func TestSearch_UnknownParameter_400(t *testing.T) {
	r := testRouter(catalogEngine())

	rr := postJSON(t, r, "/api/v1/indexes/products/search", map[string]any{
		"params": map[string]any{"noSuchKnob": true},
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if msg := errorBody(t, rr); !strings.Contains(msg, "unknown parameter") {
		t.Errorf("error message: got %q", msg)
	}
}

func TestSearch_TagConflict_400(t *testing.T) {
	r := testRouter(catalogEngine())

	rr := postJSON(t, r, "/api/v1/indexes/products/search", map[string]any{
		"tagRefinements": []string{"sale"},
		"tagFilters":     "sale,featured",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestSearch_InvalidOperator_400(t *testing.T) {
	r := testRouter(catalogEngine())

	rr := postJSON(t, r, "/api/v1/indexes/products/search", map[string]any{
		"numericRefinements": map[string]map[string]float64{"price": {"~": 10}},
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestSearch_NegativePage_400(t *testing.T) {
	r := testRouter(catalogEngine())

	rr := postJSON(t, r, "/api/v1/indexes/products/search", map[string]any{
		"page": -1,
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestSearch_BadBody_400(t *testing.T) {
	r := testRouter(catalogEngine())

	rr := postRaw(r, "/api/v1/indexes/products/search", strings.NewReader("{"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if msg := errorBody(t, rr); !strings.Contains(msg, "invalid request body") {
		t.Errorf("error message: got %q", msg)
	}
}

func TestSearch_EngineFailure_502(t *testing.T) {
	r := testRouter(failingEngine{err: errors.New("redis down")})

	rr := postJSON(t, r, "/api/v1/indexes/products/search", map[string]any{})

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", rr.Code)
	}
	if msg := errorBody(t, rr); !strings.Contains(msg, "redis down") {
		t.Errorf("error message: got %q", msg)
	}
}

// --- Batch endpoint ---

func TestQueries_PositionalBatch(t *testing.T) {
	r := testRouter(catalogEngine())

	rr := postJSON(t, r, "/api/v1/queries", map[string]any{
		"requests": []map[string]any{
			{"index": "products", "query": "sneaker", "hitsPerPage": 5},
			{"index": "products", "facetsOnly": true, "facets": []string{"brand"}},
		},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	var res queryResult
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Responses) != 2 {
		t.Fatalf("responses: got %d, want 2", len(res.Responses))
	}

	first := res.Responses[0]
	if first.TotalHits != 2 || first.HitsPerPage != 5 {
		t.Errorf("first response: got total %d hitsPerPage %d", first.TotalHits, first.HitsPerPage)
	}

	second := res.Responses[1]
	if len(second.Hits) != 0 {
		t.Errorf("facets-only response carries hits: %v", second.Hits)
	}
	if got := second.Facets["brand"]; got["acme"] != 2 || got["globex"] != 2 {
		t.Errorf("brand counts: got %v", got)
	}
	// Запрос без hitsPerPage получает серверный default.
	if second.HitsPerPage != 10 {
		t.Errorf("defaulted hitsPerPage: got %d, want 10", second.HitsPerPage)
	}
}

func TestQueries_EmptyBatch_400(t *testing.T) {
	r := testRouter(catalogEngine())

	rr := postJSON(t, r, "/api/v1/queries", map[string]any{"requests": []map[string]any{}})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if msg := errorBody(t, rr); !strings.Contains(msg, "at least one request") {
		t.Errorf("error message: got %q", msg)
	}
}

func TestQueries_MissingIndex_400(t *testing.T) {
	r := testRouter(catalogEngine())

	rr := postJSON(t, r, "/api/v1/queries", map[string]any{
		"requests": []map[string]any{{"query": "sneaker"}},
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if msg := errorBody(t, rr); !strings.Contains(msg, "request 0: index is required") {
		t.Errorf("error message: got %q", msg)
	}
}

func TestQueries_EngineFailure_502(t *testing.T) {
	r := testRouter(failingEngine{err: errors.New("boom")})

	rr := postJSON(t, r, "/api/v1/queries", map[string]any{
		"requests": []map[string]any{{"index": "products"}},
	})

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", rr.Code)
	}
}

// --- Health and metrics ---

func TestHealth_NoPinger(t *testing.T) {
	r := testRouter(catalogEngine())

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var health healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&health); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if health.Status != "ok" || health.Version == "" {
		t.Errorf("health: got %+v", health)
	}
}

func TestHealth_PingerStates(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantCode   int
		wantStatus string
		wantEngine string
	}{
		{name: "up", pingErr: nil, wantCode: http.StatusOK, wantStatus: "ok", wantEngine: "up"},
		{name: "down", pingErr: errors.New("no route"), wantCode: http.StatusServiceUnavailable,
			wantStatus: "degraded", wantEngine: "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewServer(catalogEngine(), zap.NewNop()).
				WithPinger(fakePinger{err: tt.pingErr}).
				Routes(r)

			req := httptest.NewRequest("GET", "/health", http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
			var health healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&health); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if health.Status != tt.wantStatus || health.Checks["engine"] != tt.wantEngine {
				t.Errorf("health: got %+v", health)
			}
		})
	}
}

func TestMetrics_Exposition(t *testing.T) {
	r := testRouter(catalogEngine())

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "# HELP") {
		t.Errorf("exposition format missing")
	}
}
