// Package audit records one event per scan and fans it out to configured
// sinks. Delivery happens off the request path; a slow or broken sink must
// never slow down scoring.
package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linklens-ai/linklens/internal/redact"
	"github.com/linklens-ai/linklens/internal/scoring"
)

// URL logging levels. The level decides how much of the scanned URL each
// event carries; scan targets are attacker-controlled input and often embed
// captured credentials.
const (
	LevelMetadata = "metadata"
	LevelRedacted = "redacted"
	LevelFull     = "full"
)

// Event is the canonical scan audit payload.
type Event struct {
	Version       string    `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
	ScanID        string    `json:"scan_id"`
	URL           string    `json:"url"`
	Label         string    `json:"label"`
	Score         float64   `json:"score"`
	Confidence    float64   `json:"confidence"`
	Status        string    `json:"status"`
	BundleVersion string    `json:"bundle_version,omitempty"`
	LatencyMs     float64   `json:"latency_ms"`
}

// BuildParams collects inputs needed to assemble a scan event.
type BuildParams struct {
	URL           string
	Result        scoring.Result
	LoggingLevel  string
	BundleVersion string
	Latency       time.Duration
}

// BuildEvent creates an audit event from one scan. The URL is reduced
// according to the configured logging level before it ever enters the event.
func BuildEvent(params BuildParams) *Event {
	return &Event{
		Version:       "1",
		Timestamp:     time.Now().UTC(),
		ScanID:        uuid.NewString(),
		URL:           urlForLevel(params.URL, params.LoggingLevel),
		Label:         params.Result.Label,
		Score:         params.Result.Score,
		Confidence:    params.Result.Confidence,
		Status:        string(params.Result.Status),
		BundleVersion: params.BundleVersion,
		LatencyMs:     float64(params.Latency.Microseconds()) / 1000.0,
	}
}

func urlForLevel(raw, level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelFull:
		return raw
	case LevelRedacted:
		return redact.QueryMasked(raw)
	default:
		return redact.URLPreview(raw)
	}
}
