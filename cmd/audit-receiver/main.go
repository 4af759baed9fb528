// audit-receiver is a local endpoint for exercising the webhook audit sink:
// it decodes each scan event, prints a one-line summary, and acknowledges.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/linklens-ai/linklens/internal/audit"
)

func main() {
	addr := flag.String("addr", ":8099", "listen address for the audit receiver")
	flag.Parse()

	var received atomic.Uint64

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"status": "healthy", "received": received.Load()})
	})
	handle := func(w http.ResponseWriter, r *http.Request) {
		handleScanEvent(w, r, &received)
	}
	mux.HandleFunc("/scans", handle)
	mux.HandleFunc("/", handle)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("audit receiver listening on %s (POST scan events to /scans)...", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("receiver error: %v", err)
	}
}

func handleScanEvent(w http.ResponseWriter, r *http.Request, received *atomic.Uint64) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var ev audit.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&ev); err != nil {
		log.Printf("rejected event: %v", err)
		http.Error(w, "bad event", http.StatusBadRequest)
		return
	}

	n := received.Add(1)
	log.Printf("scan #%d id=%s label=%s score=%.3f confidence=%.3f status=%s latency=%.1fms url=%s",
		n, ev.ScanID, ev.Label, ev.Score, ev.Confidence, ev.Status, ev.LatencyMs, ev.URL)

	writeJSON(w, map[string]any{"status": "ok", "received": n})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
