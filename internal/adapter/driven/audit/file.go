// Package audit implements the AuditSink port. The file sink appends one
// line per entry to a local log; the memory sink backs tests.
//
// Sinks never redact: callers must hash identifiers with
// model.SensitiveHash before passing them as detail.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crfernandes/persondir/internal/domain/model"
	"github.com/crfernandes/persondir/internal/domain/port/driven"
)

// DefaultActor is recorded when the caller does not identify itself.
const DefaultActor = "system"

// Compile-time interface satisfaction check.
var _ driven.AuditSink = (*FileSink)(nil)

// FileSink appends entries to a text log, one line per entry:
//
//	2026-03-01T12:00:00Z | exact-lookup | system | 3f2a9c1b7e4d5a60
//
// The file is opened with O_APPEND so single-line writes are atomic and the
// log is safe for multiple independent writers. Retention is external (log
// rotation); the sink only appends.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens (creating if needed) the audit log at path. The parent
// directory is created with owner-only permissions.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create audit log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	return &FileSink{file: f}, nil
}

// Record appends one entry stamped with the current UTC time.
func (s *FileSink) Record(op model.Operation, actor, detail string) error {
	if actor == "" {
		actor = DefaultActor
	}

	line := FormatLine(model.AuditEntry{
		Time:      time.Now().UTC(),
		Operation: op,
		Actor:     actor,
		Detail:    detail,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Close releases the underlying log file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// FormatLine renders one entry in the sink's line format: timestamp,
// operation, actor, detail.
func FormatLine(e model.AuditEntry) string {
	return fmt.Sprintf("%s | %s | %s | %s",
		e.Time.UTC().Format(time.RFC3339), e.Operation, e.Actor, e.Detail)
}
