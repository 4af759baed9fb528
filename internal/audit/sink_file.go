package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink appends one JSON object per scan to a log file. Each event is
// written as a single O_APPEND write so lines from concurrent workers never
// interleave, and the handle is reopened after a write error so external log
// rotation cannot wedge the sink for the rest of the process lifetime.
type FileSink struct {
	path string

	mu     sync.Mutex
	file   *os.File
	writes uint64
}

func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("scan log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !os.IsExist(err) {
		return nil, fmt.Errorf("create scan log dir: %w", err)
	}
	s := &FileSink{path: path}
	if err := s.reopen(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSink) Name() string { return "file_jsonl:" + s.path }

func (s *FileSink) Deliver(_ context.Context, ev *Event) error {
	if ev == nil {
		return nil
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode scan %s: %w", ev.ScanID, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		if err := s.reopen(); err != nil {
			return err
		}
	}
	if _, err := s.file.Write(line); err != nil {
		// One retry on a fresh handle covers a rotated or deleted file.
		if reopenErr := s.reopen(); reopenErr != nil {
			return fmt.Errorf("write scan %s: %w", ev.ScanID, err)
		}
		if _, err := s.file.Write(line); err != nil {
			return fmt.Errorf("write scan %s after reopen: %w", ev.ScanID, err)
		}
	}
	s.writes++
	return nil
}

func (s *FileSink) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	_ = s.file.Sync()
	err := s.file.Close()
	s.file = nil
	return err
}

// Writes reports how many events reached the file, for tests and the
// emitter's metrics snapshot logging.
func (s *FileSink) Writes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *FileSink) reopen() error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open scan log: %w", err)
	}
	s.file = f
	return nil
}
