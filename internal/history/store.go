// Package history persists completed scans to SQLite so operators can review
// recent verdicts without scraping audit sinks.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one persisted scan.
type Record struct {
	ID         int64     `json:"id"`
	ScanID     string    `json:"scan_id"`
	Timestamp  time.Time `json:"timestamp"`
	URL        string    `json:"url"`
	Label      string    `json:"label"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	Status     string    `json:"status"`
	LatencyMs  float64   `json:"latency_ms"`
}

// Query filters ListRecent.
type Query struct {
	Label string // "" for all, else exact match
	Limit int
}

// Store wraps a SQLite database holding the scans table.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes the database file and schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			url TEXT NOT NULL,
			label TEXT NOT NULL,
			score REAL NOT NULL,
			confidence REAL NOT NULL,
			status TEXT NOT NULL,
			latency_ms REAL NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scans_ts_id ON scans(ts DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_scans_label_ts ON scans(label, ts DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Insert writes one scan record and returns its row id.
func (s *Store) Insert(ctx context.Context, rec Record) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("history store not initialized")
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (scan_id, ts, url, label, score, confidence, status, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ScanID,
		ts.UnixMilli(),
		rec.URL,
		rec.Label,
		rec.Score,
		rec.Confidence,
		rec.Status,
		rec.LatencyMs,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// ListRecent returns the newest scans, optionally filtered by label.
func (s *Store) ListRecent(ctx context.Context, q Query) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("history store not initialized")
	}
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var sb strings.Builder
	var args []interface{}
	sb.WriteString(`SELECT id, scan_id, ts, url, label, score, confidence, status, latency_ms FROM scans`)
	if label := strings.TrimSpace(q.Label); label != "" {
		sb.WriteString(" WHERE label = ?")
		args = append(args, label)
	}
	sb.WriteString(" ORDER BY ts DESC, id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Record
	for rows.Next() {
		var rec Record
		var ts int64
		if err := rows.Scan(&rec.ID, &rec.ScanID, &ts, &rec.URL, &rec.Label, &rec.Score, &rec.Confidence, &rec.Status, &rec.LatencyMs); err != nil {
			return nil, err
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Count returns the total number of stored scans.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("history store not initialized")
	}
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
