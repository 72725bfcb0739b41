package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/saas-metrics/internal/cache"
	"github.com/iwvelando/saas-metrics/internal/calculator"
	"github.com/iwvelando/saas-metrics/internal/config"
	"github.com/iwvelando/saas-metrics/internal/glossary"
	"github.com/iwvelando/saas-metrics/internal/metrics"
	"github.com/iwvelando/saas-metrics/pkg/adapters"
	"github.com/iwvelando/saas-metrics/pkg/constants"
	"github.com/iwvelando/saas-metrics/pkg/output"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	cache       cache.Cache
	instr       *instrumentation
}

// NewHandler constructs the HTTP handler that serves the web UI and metrics
// API. A nil store disables result caching.
func NewHandler(logger *zap.Logger, maxBodySize int64, version string, store cache.Cache) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	if store == nil {
		store = cache.Nop{}
	}

	registry := prometheus.NewRegistry()
	h := &handler{
		logger:      logger,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		cache:       store,
		instr:       newInstrumentation(registry),
	}

	mux := http.NewServeMux()

	// Single input snapshot, JSON body or query string
	mux.Handle("/api/metrics", h.wrap("/api/metrics", http.HandlerFunc(h.handleMetrics)))

	// Scenario file upload
	mux.Handle("/api/scenarios", h.wrap("/api/scenarios", http.HandlerFunc(h.handleScenarios)))

	// Prometheus text export of a single snapshot
	mux.Handle("/api/export", h.wrap("/api/export", http.HandlerFunc(h.handleExport)))

	// Reference data for the UI
	mux.Handle("/api/glossary", h.wrap("/api/glossary", http.HandlerFunc(h.handleGlossary)))
	mux.Handle("/api/catalog", h.wrap("/api/catalog", http.HandlerFunc(h.handleCatalog)))

	// Version endpoint for UI metadata
	mux.Handle("/api/version", h.wrap("/api/version", http.HandlerFunc(h.handleVersion)))

	mux.HandleFunc("/healthz", h.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	fileServer := http.FileServer(http.FS(sub))
	mux.Handle("/", h.wrap("/", fileServer))

	return mux
}

// metricsResponse is returned for a single input snapshot.
type metricsResponse struct {
	output.ResultDocument
	Cached bool `json:"cached"`
}

type scenariosResponse struct {
	Scenarios []output.ResultDocument `json:"scenarios"`
	CSV       string                  `json:"csv"`
	Warnings  []string                `json:"warnings,omitempty"`
	Duration  string                  `json:"duration"`
}

type glossaryResponse struct {
	Tooltips map[metrics.Key]string `json:"tooltips"`
	Guide    []glossary.Category    `json:"guide"`
}

type catalogEntry struct {
	Key     metrics.Key   `json:"key"`
	Label   string        `json:"label"`
	Kind    string        `json:"kind"`
	Group   metrics.Group `json:"group"`
	Tooltip string        `json:"tooltip"`
}

func (h *handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMetrics"

	var inputs metrics.RawInputs
	switch r.Method {
	case http.MethodGet:
		inputs = adapters.QueryToRawInputs(r.URL.Query())
	case http.MethodPost:
		decoded, err := h.decodeInputs(w, r)
		if err != nil {
			h.respondDecodeError(w, err, op)
			return
		}
		inputs = decoded
	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	doc, cached := h.calculate(r.Context(), inputs)
	h.writeJSON(w, http.StatusOK, metricsResponse{ResultDocument: doc, Cached: cached})
}

// calculate returns the document for inputs, served from the cache when
// possible. Cache failures are logged and fall through to a recomputation.
func (h *handler) calculate(ctx context.Context, inputs metrics.RawInputs) (output.ResultDocument, bool) {
	const op = "server.calculate"
	key := cacheKey(inputs)

	data, err := h.cache.Get(ctx, key)
	switch {
	case err == nil:
		var doc output.ResultDocument
		jsonErr := json.Unmarshal(data, &doc)
		if jsonErr == nil {
			h.instr.cacheRequests.WithLabelValues("hit").Inc()
			return doc, true
		}
		h.instr.cacheRequests.WithLabelValues("error").Inc()
		h.logger.Warn("discarding undecodable cache entry",
			zap.String("op", op),
			zap.String("requestId", RequestID(ctx)),
			zap.Error(jsonErr),
		)
	case errors.Is(err, cache.ErrMiss):
		h.instr.cacheRequests.WithLabelValues("miss").Inc()
	default:
		h.instr.cacheRequests.WithLabelValues("error").Inc()
		h.logger.Warn("cache lookup failed",
			zap.String("op", op),
			zap.String("requestId", RequestID(ctx)),
			zap.Error(err),
		)
	}

	h.instr.calculations.Inc()
	doc := output.NewResultDocument(calculator.Calculate("", inputs))

	if encoded, err := json.Marshal(doc); err == nil {
		if err := h.cache.Set(ctx, key, encoded); err != nil {
			h.logger.Warn("cache store failed",
				zap.String("op", op),
				zap.String("requestId", RequestID(ctx)),
				zap.Error(err),
			)
		}
	}
	return doc, false
}

// cacheKey identifies a snapshot by its coerced inputs.
func cacheKey(in metrics.RawInputs) string {
	parts := []float64{in.MonthlyRevenue, in.L12MExpenses, in.CustomerCount, in.ChurnRate, in.ExpansionRevenue}
	formatted := make([]string, len(parts))
	for i, p := range parts {
		formatted[i] = strconv.FormatFloat(p, 'g', -1, 64)
	}
	return "v1:" + strings.Join(formatted, ":")
}

func (h *handler) handleScenarios(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleScenarios"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := r.ParseMultipartForm(h.maxBodySize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxBodySize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing scenario file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read scenario file: %v", err), op)
		return
	}

	conf, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := conf.ValidateConfiguration()

	results, err := calculator.Evaluate(h.logger, *conf)
	if err != nil && !errors.Is(err, calculator.ErrNoActiveScenarios) {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to evaluate scenarios: %v", err), op)
		return
	}
	h.instr.calculations.Add(float64(len(results)))

	docs := make([]output.ResultDocument, 0, len(results))
	for _, result := range results {
		docs = append(docs, output.NewResultDocument(result))
	}

	var csvBuf bytes.Buffer
	if len(results) > 0 {
		if err := output.CsvFormat(&csvBuf, results); err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
			return
		}
	}

	elapsed := time.Since(start)
	h.logger.Info("scenarios computed",
		zap.String("op", op),
		zap.String("requestId", RequestID(r.Context())),
		zap.Int("scenarios", len(docs)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, scenariosResponse{
		Scenarios: docs,
		CSV:       csvBuf.String(),
		Warnings:  warnings,
		Duration:  elapsed.String(),
	})
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	inputs, err := h.decodeInputs(w, r)
	if err != nil {
		h.respondDecodeError(w, err, op)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("scenario"))
	if name == "" {
		name = constants.DefaultScenarioName
	}

	h.instr.calculations.Inc()
	result := calculator.Calculate(name, inputs)

	var buf bytes.Buffer
	if err := output.PrometheusFormat(&buf, []calculator.Result{result}); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode metrics: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write export response",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) handleGlossary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, glossaryResponse{
		Tooltips: glossary.Tooltips(),
		Guide:    glossary.Guide(),
	})
}

func (h *handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	descriptors := metrics.Catalog()
	entries := make([]catalogEntry, 0, len(descriptors))
	for _, d := range descriptors {
		tooltip, _ := glossary.Tooltip(d.Key)
		entries = append(entries, catalogEntry{
			Key:     d.Key,
			Label:   d.Label,
			Kind:    d.Kind.String(),
			Group:   d.Group,
			Tooltip: tooltip,
		})
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeInputs reads a JSON object of raw inputs, optionally wrapped as
// {"inputs": {...}}. Values may be numbers or strings and are coerced. An
// empty body means every input is zero.
func (h *handler) decodeInputs(w http.ResponseWriter, r *http.Request) (metrics.RawInputs, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return metrics.RawInputs{}, nil
		}
		return metrics.RawInputs{}, err
	}

	if wrapped, ok := payload["inputs"]; ok {
		inner, ok := wrapped.(map[string]interface{})
		if !ok {
			return metrics.RawInputs{}, errors.New("invalid inputs payload: expected object")
		}
		payload = inner
	}
	return adapters.MapToRawInputs(payload), nil
}

func (h *handler) respondDecodeError(w http.ResponseWriter, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode inputs: %v", err), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
