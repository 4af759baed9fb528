package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/linklens-ai/linklens/internal/config"
	"github.com/linklens-ai/linklens/internal/explain"
	"github.com/linklens-ai/linklens/internal/features"
	"github.com/linklens-ai/linklens/internal/history"
	"github.com/linklens-ai/linklens/internal/phishguard"
	"github.com/linklens-ai/linklens/internal/scoring"
)

func newTestServer(t *testing.T, store *history.Store) *Server {
	t.Helper()
	bundle := phishguard.StubBundle()
	engine := scoring.NewEngine(
		features.NewExtractor(features.DefaultWordlists()),
		bundle.Model,
		explain.NewGenerator(bundle.Baselines, bundle.Importance),
	)
	cfg := &config.Config{
		Server:  config.ServerConfig{Addr: ":0", CORSOrigins: []string{"*"}},
		Logging: config.LoggingConfig{URLLevel: "metadata"},
	}
	return New(Options{
		Config:        cfg,
		Engine:        engine,
		Store:         store,
		BundleVersion: bundle.Version,
		ModelLoaded:   bundle.Loaded(),
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Service != "linklens" {
		t.Fatalf("unexpected health payload: %+v", resp)
	}
	if resp.ModelLoaded {
		t.Fatalf("stub bundle should report model_loaded=false")
	}
}

func TestPredictEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"url": "https://paypal-secure-login-verify.com/signin/?session=12345"})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result scoring.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Label != scoring.LabelPhish {
		t.Fatalf("expected phish verdict, got %+v", result)
	}
	if len(result.Reasons) == 0 || len(result.Explainability) == 0 {
		t.Fatalf("expected reasons and explainability, got %+v", result)
	}
}

func TestPredictRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader([]byte("not json"))))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON: status = %d", rec.Code)
	}

	body, _ := json.Marshal(map[string]string{"url": "  "})
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty url: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predict", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /predict: status = %d", rec.Code)
	}
}

func TestDemoEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/demo", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		DemoURLs map[string][]string `json:"demo_urls"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"benign", "phishing", "synthetic", "local_demo"} {
		if len(resp.DemoURLs[key]) == 0 {
			t.Fatalf("demo set %q is empty", key)
		}
	}
}

func TestHistoryEndpoint(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "scans.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	srv := newTestServer(t, store)

	// Scans land in history via /predict.
	for _, url := range []string{"https://github.com/user/repo", "http://192.168.1.100/login/verify.php"} {
		body, _ := json.Marshal(map[string]string{"url": url})
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body)))
		if rec.Code != http.StatusOK {
			t.Fatalf("predict %s: status = %d", url, rec.Code)
		}
	}

	total, err := store.Count(context.Background())
	if err != nil || total != 2 {
		t.Fatalf("expected 2 stored scans, got %d (err=%v)", total, err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history?label=phish&limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status = %d", rec.Code)
	}
	var resp struct {
		Scans []history.Record `json:"scans"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Scans) != 1 || resp.Scans[0].Label != "phish" {
		t.Fatalf("expected one phish record, got %+v", resp.Scans)
	}
	if time.Since(resp.Scans[0].Timestamp) > time.Minute {
		t.Fatalf("timestamp not recent: %v", resp.Scans[0].Timestamp)
	}
}

func TestHistoryDisabled(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://console.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS allow-origin header")
	}
}
