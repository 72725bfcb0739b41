package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/iwvelando/saas-metrics/internal/cache"
	"github.com/iwvelando/saas-metrics/internal/metrics"
	"github.com/iwvelando/saas-metrics/pkg/constants"
	"go.uber.org/zap"
)

const typicalPayload = `{"monthlyRevenue": 10000, "l12mExpenses": "60000", "customerCount": 50, "churnRate": "2", "expansionRevenue": 500}`

const scenarioFile = `scenarios:
  - name: current
    active: true
    inputs:
      monthlyRevenue: 10000
      l12mExpenses: 60000
      customerCount: 50
      churnRate: 2
      expansionRevenue: 500
  - name: lean
    active: true
    inputs:
      monthlyRevenue: 1000
      l12mExpenses: 36000
      customerCount: 10
      churnRate: 10
      seats: 4
  - name: parked
    active: false
    inputs:
      monthlyRevenue: 1
`

func newTestHandler(store cache.Cache) http.Handler {
	return NewHandler(zap.NewNop(), constants.DefaultMaxBodySizeBytes, "test", store)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeMetrics(t *testing.T, rr *httptest.ResponseRecorder) metricsResponse {
	t.Helper()
	var resp metricsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandleMetricsPost(t *testing.T) {
	handler := newTestHandler(nil)

	rr := postJSON(t, handler, "/api/metrics", typicalPayload)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Errorf("expected a generated request ID header")
	}

	resp := decodeMetrics(t, rr)
	if resp.Cached {
		t.Errorf("expected uncached response without a cache backend")
	}
	if resp.Inputs.L12MExpenses != 60000 || resp.Inputs.ChurnRate != 2 {
		t.Errorf("string inputs were not coerced: %+v", resp.Inputs)
	}
	if mrr := resp.Metrics["mrr"]; mrr == nil || *mrr != 10000 {
		t.Errorf("metrics.mrr = %v, expected 10000", mrr)
	}
	if resp.Assessment.Tier != "Excellent" {
		t.Errorf("tier = %q, expected Excellent", resp.Assessment.Tier)
	}
	if resp.Valuation == nil || resp.Valuation.Value != 300000 {
		t.Errorf("valuation = %+v, expected 300000", resp.Valuation)
	}
}

func TestHandleMetricsWrappedInputs(t *testing.T) {
	handler := newTestHandler(nil)

	rr := postJSON(t, handler, "/api/metrics", `{"inputs": {"monthlyRevenue": "1,500"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	// parseFloat semantics stop at the comma.
	if resp := decodeMetrics(t, rr); resp.Inputs.MonthlyRevenue != 1 {
		t.Errorf("monthlyRevenue = %v, expected 1", resp.Inputs.MonthlyRevenue)
	}
}

func TestHandleMetricsEmptyBody(t *testing.T) {
	handler := newTestHandler(nil)

	rr := postJSON(t, handler, "/api/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assessment := raw["assessment"].(map[string]interface{})
	if assessment["profitMargin"] != nil {
		t.Errorf("expected null profit margin, got %v", assessment["profitMargin"])
	}
	if assessment["tier"] != "Needs Improvement" {
		t.Errorf("tier = %v", assessment["tier"])
	}
	if raw["valuation"] != nil {
		t.Errorf("expected null valuation, got %v", raw["valuation"])
	}
	// All-zero inputs still carry a full analysis for the UI to render.
	if s, _ := assessment["summary"].(string); !strings.Contains(s, "$0.00 in monthly recurring revenue") {
		t.Errorf("summary = %v", assessment["summary"])
	}
	if opportunities, _ := assessment["opportunities"].([]interface{}); len(opportunities) == 0 {
		t.Errorf("expected opportunities for all-zero inputs, got %v", assessment["opportunities"])
	}
}

func TestStaticAnalysisShownAfterFirstResponse(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "const hasData = result !== null;") {
		t.Errorf("expected the analysis panel to depend only on a received result")
	}
	if strings.Contains(body, "result.inputs") {
		t.Errorf("analysis panel must not be hidden for all-zero inputs")
	}
}

func TestHandleMetricsGet(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics?monthlyRevenue=2000&customerCount=4", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeMetrics(t, rr)
	if arpc := resp.Metrics["arpc"]; arpc == nil || *arpc != 500 {
		t.Errorf("metrics.arpc = %v, expected 500", arpc)
	}
}

func TestHandleMetricsErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"Invalid JSON", http.MethodPost, `{"monthlyRevenue": `, http.StatusBadRequest},
		{"Array payload", http.MethodPost, `[1, 2]`, http.StatusBadRequest},
		{"Wrapped inputs not an object", http.MethodPost, `{"inputs": 5}`, http.StatusBadRequest},
		{"Wrong method", http.MethodDelete, "", http.StatusMethodNotAllowed},
	}

	handler := newTestHandler(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/metrics", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if tt.status == http.StatusBadRequest {
				var payload map[string]string
				if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil || payload["error"] == "" {
					t.Errorf("expected JSON error payload, got %q", rr.Body.String())
				}
			}
		})
	}
}

func TestHandleMetricsBodyTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 16, "test", nil)

	rr := postJSON(t, handler, "/api/metrics", typicalPayload)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleMetricsCached(t *testing.T) {
	store := cache.NewMemory(time.Minute, 100)
	handler := newTestHandler(store)

	first := decodeMetrics(t, postJSON(t, handler, "/api/metrics", typicalPayload))
	if first.Cached {
		t.Fatalf("first request should not be served from cache")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one cache entry, got %d", store.Len())
	}

	// Same coerced inputs with a different spelling hit the same entry.
	second := decodeMetrics(t, postJSON(t, handler, "/api/metrics",
		`{"monthlyRevenue": "10000", "l12mExpenses": 60000, "customerCount": "50", "churnRate": 2, "expansionRevenue": "500"}`))
	if !second.Cached {
		t.Errorf("second request should be served from cache")
	}
	if second.Assessment.Summary != first.Assessment.Summary {
		t.Errorf("cached summary differs: %q vs %q", second.Assessment.Summary, first.Assessment.Summary)
	}
}

func TestHandleMetricsRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := cache.New(context.Background(), cache.Config{Backend: "redis", Address: mr.Addr(), TTL: "1m"})
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	handler := newTestHandler(store)
	postJSON(t, handler, "/api/metrics", typicalPayload)

	if !mr.Exists(cache.KeyPrefix + "v1:10000:60000:50:2:500") {
		t.Errorf("expected result stored in redis, keys: %v", mr.Keys())
	}
	if resp := decodeMetrics(t, postJSON(t, handler, "/api/metrics", typicalPayload)); !resp.Cached {
		t.Errorf("expected second request to be served from redis")
	}
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (failingCache) Set(context.Context, string, []byte) error { return errors.New("down") }
func (failingCache) Close() error { return nil }

func TestHandleMetricsCacheFailure(t *testing.T) {
	handler := newTestHandler(failingCache{})

	rr := postJSON(t, handler, "/api/metrics", typicalPayload)
	if rr.Code != http.StatusOK {
		t.Fatalf("cache failures should not fail the request, got %d", rr.Code)
	}
	if decodeMetrics(t, rr).Cached {
		t.Errorf("response should not be marked cached")
	}
}

func uploadScenarios(t *testing.T, handler http.Handler, contents string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "config.yaml")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(contents)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/scenarios", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHandleScenariosSuccess(t *testing.T) {
	rr := uploadScenarios(t, newTestHandler(nil), scenarioFile)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp scenariosResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Scenarios) != 2 {
		t.Fatalf("expected 2 active scenarios, got %d", len(resp.Scenarios))
	}
	if resp.Scenarios[0].Name != "current" || resp.Scenarios[1].Name != "lean" {
		t.Errorf("unexpected scenario order: %q, %q", resp.Scenarios[0].Name, resp.Scenarios[1].Name)
	}
	if resp.Scenarios[1].Assessment.Runway.Display != "8.0 months" {
		t.Errorf("lean runway = %q", resp.Scenarios[1].Assessment.Runway.Display)
	}
	if !strings.HasPrefix(resp.CSV, "metric,current,lean") {
		t.Errorf("unexpected CSV header: %q", resp.CSV)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "seats") {
		t.Errorf("expected unknown input warning, got %v", resp.Warnings)
	}
	if resp.Duration == "" {
		t.Errorf("expected duration in response")
	}
}

func TestHandleScenariosNoActive(t *testing.T) {
	rr := uploadScenarios(t, newTestHandler(nil), "scenarios:\n  - name: off\n    active: false\n")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp scenariosResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Scenarios) != 0 || resp.CSV != "" {
		t.Errorf("expected no results, got %+v", resp)
	}
	if len(resp.Warnings) == 0 {
		t.Errorf("expected a warning about inactive scenarios")
	}
}

func TestHandleScenariosErrors(t *testing.T) {
	handler := newTestHandler(nil)

	rr := uploadScenarios(t, handler, "scenarios: [unclosed")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid YAML: expected 400, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/scenarios", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("non-multipart body: expected 400, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/scenarios", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: expected 405, got %d", rr.Code)
	}

	small := NewHandler(zap.NewNop(), 64, "test", nil)
	rr = uploadScenarios(t, small, scenarioFile)
	if rr.Code != http.StatusRequestEntityTooLarge && rr.Code != http.StatusBadRequest {
		t.Errorf("oversized upload: expected 413 or 400, got %d", rr.Code)
	}
}

func TestHandleExport(t *testing.T) {
	handler := newTestHandler(nil)

	rr := postJSON(t, handler, "/api/export?scenario=plan", typicalPayload)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, expected text/plain", ct)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"# TYPE saas_mrr gauge",
		`saas_mrr{scenario="plan"} 10000`,
		`saas_estimated_valuation{scenario="plan"} 300000`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("export missing %q:\n%s", want, body)
		}
	}

	rr = postJSON(t, handler, "/api/export", `{}`)
	if !strings.Contains(rr.Body.String(), `saas_mrr{scenario="default"} 0`) {
		t.Errorf("expected default scenario label:\n%s", rr.Body.String())
	}
}

func TestReferenceEndpoints(t *testing.T) {
	handler := newTestHandler(nil)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s: expected status 200, got %d", path, rr.Code)
		}
		return rr
	}

	var glossaryResp glossaryResponse
	if err := json.Unmarshal(get("/api/glossary").Body.Bytes(), &glossaryResp); err != nil {
		t.Fatalf("failed to decode glossary: %v", err)
	}
	if len(glossaryResp.Guide) != 3 || len(glossaryResp.Tooltips) != 8 {
		t.Errorf("unexpected glossary sizes: %d categories, %d tooltips", len(glossaryResp.Guide), len(glossaryResp.Tooltips))
	}

	var entries []catalogEntry
	if err := json.Unmarshal(get("/api/catalog").Body.Bytes(), &entries); err != nil {
		t.Fatalf("failed to decode catalog: %v", err)
	}
	if len(entries) != 8 || entries[0].Label != "L12M REVENUE" || entries[7].Kind != "percent" {
		t.Errorf("unexpected catalog: %+v", entries)
	}

	var version map[string]string
	if err := json.Unmarshal(get("/api/version").Body.Bytes(), &version); err != nil || version["version"] != "test" {
		t.Errorf("unexpected version response: %v (%v)", version, err)
	}

	if !strings.Contains(get("/healthz").Body.String(), `"ok"`) {
		t.Errorf("unexpected health response")
	}

	if !strings.Contains(get("/").Body.String(), "SaaS Metrics Hub") {
		t.Errorf("expected embedded UI at /")
	}
}

func TestDefaultVersion(t *testing.T) {
	handler := NewHandler(nil, 0, "  ", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !strings.Contains(rr.Body.String(), `"dev"`) {
		t.Errorf("expected dev version, got %s", rr.Body.String())
	}
}

func TestRequestIDPropagation(t *testing.T) {
	handler := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("request ID = %q, expected req-123", got)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	handler := newTestHandler(cache.NewMemory(time.Minute, 100))

	postJSON(t, handler, "/api/metrics", typicalPayload)
	postJSON(t, handler, "/api/metrics", typicalPayload)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	body, _ := io.ReadAll(rr.Body)
	for _, want := range []string{
		`saas_metrics_http_requests_total{code="200",method="POST",route="/api/metrics"} 2`,
		`saas_metrics_cache_requests_total{result="hit"} 1`,
		`saas_metrics_cache_requests_total{result="miss"} 1`,
		"saas_metrics_calculations_total 1",
		"saas_metrics_http_request_duration_seconds_bucket",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("/metrics missing %q", want)
		}
	}
}

func TestCacheKey(t *testing.T) {
	h := &handler{maxBodySize: constants.DefaultMaxBodySizeBytes}
	req := httptest.NewRequest(http.MethodPost, "/api/metrics", strings.NewReader(typicalPayload))
	decoded, err := h.decodeInputs(httptest.NewRecorder(), req)
	if err != nil {
		t.Fatalf("decodeInputs() error = %v", err)
	}

	if got := cacheKey(decoded); got != "v1:10000:60000:50:2:500" {
		t.Errorf("cacheKey() = %q, expected v1:10000:60000:50:2:500", got)
	}
	if cacheKey(metrics.RawInputs{ChurnRate: 2.5}) == cacheKey(metrics.RawInputs{ChurnRate: 2}) {
		t.Errorf("cacheKey() should distinguish different inputs")
	}
}
