// Package server exposes the scoring engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/linklens-ai/linklens/internal/audit"
	"github.com/linklens-ai/linklens/internal/config"
	"github.com/linklens-ai/linklens/internal/demo"
	"github.com/linklens-ai/linklens/internal/history"
	"github.com/linklens-ai/linklens/internal/redact"
	"github.com/linklens-ai/linklens/internal/scoring"
	"github.com/linklens-ai/linklens/internal/telemetry"
)

const maxRequestBody = 64 * 1024

// Server wraps the HTTP components for LinkLens.
type Server struct {
	mux           *http.ServeMux
	cfg           *config.Config
	engine        *scoring.Engine
	emitter       *audit.Emitter
	store         *history.Store
	telemetry     *telemetry.Provider
	bundleVersion string
	modelLoaded   bool
}

// Options carries the wired components. Emitter, store, and telemetry may be
// nil; the corresponding behavior is simply skipped.
type Options struct {
	Config        *config.Config
	Engine        *scoring.Engine
	Emitter       *audit.Emitter
	Store         *history.Store
	Telemetry     *telemetry.Provider
	BundleVersion string
	ModelLoaded   bool
}

// New creates a server with all routes registered.
func New(opts Options) *Server {
	mux := http.NewServeMux()
	s := &Server{
		mux:           mux,
		cfg:           opts.Config,
		engine:        opts.Engine,
		emitter:       opts.Emitter,
		store:         opts.Store,
		telemetry:     opts.Telemetry,
		bundleVersion: opts.BundleVersion,
		modelLoaded:   opts.ModelLoaded,
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/demo", s.handleDemo)
	mux.HandleFunc("/history", s.handleHistory)

	return s
}

// Handler returns the full handler chain, CORS included.
func (s *Server) Handler() http.Handler {
	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.Server.CORSOrigins) > 0 {
		origins = s.cfg.Server.CORSOrigins
	}
	return corsMiddleware(origins, s.mux)
}

// Start runs the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	log.Printf("LinkLens API running on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Service     string `json:"service"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		ModelLoaded: s.modelLoaded,
		Service:     "linklens",
	})
}

type predictRequest struct {
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req predictRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}

	started := time.Now()
	result := s.engine.Analyze(req.URL)
	elapsed := time.Since(started)

	s.recordScan(r.Context(), req.URL, result, elapsed)

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"demo_urls": demo.Sets()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}

	q := history.Query{Label: r.URL.Query().Get("label")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		q.Limit = limit
	}

	records, err := s.store.ListRecent(r.Context(), q)
	if err != nil {
		redact.Logf("history list failed: %v", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scans": records})
}

// recordScan fans a completed scan out to audit, history, and telemetry.
// None of these may fail the request.
func (s *Server) recordScan(ctx context.Context, url string, result scoring.Result, elapsed time.Duration) {
	level := audit.LevelMetadata
	stdout := false
	if s.cfg != nil {
		level = s.cfg.Logging.URLLevel
		stdout = s.cfg.Audit.Stdout
	}

	ev := audit.BuildEvent(audit.BuildParams{
		URL:           url,
		Result:        result,
		LoggingLevel:  level,
		BundleVersion: s.bundleVersion,
		Latency:       elapsed,
	})

	if stdout {
		redact.Logf("scan %s label=%s score=%.3f status=%s url=%s", ev.ScanID, ev.Label, ev.Score, ev.Status, ev.URL)
	}
	if s.emitter != nil {
		s.emitter.Emit(ctx, ev)
	}
	if s.store != nil {
		rec := history.Record{
			ScanID:     ev.ScanID,
			Timestamp:  ev.Timestamp,
			URL:        ev.URL,
			Label:      ev.Label,
			Score:      ev.Score,
			Confidence: ev.Confidence,
			Status:     ev.Status,
			LatencyMs:  ev.LatencyMs,
		}
		if _, err := s.store.Insert(ctx, rec); err != nil {
			redact.Logf("history insert failed: %v", err)
		}
	}
	if s.telemetry != nil {
		extractMs := float64(result.ExtractDuration.Microseconds()) / 1000
		inferenceMs := float64(result.InferenceDuration.Microseconds()) / 1000
		s.telemetry.RecordScanMetrics(ev.Label, ev.Status, ev.Score, ev.LatencyMs, extractMs, inferenceMs)
	}
}

func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAny = true
			continue
		}
		allowed[o] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if allowAny {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
