package audit

import (
	"sync"
	"time"

	"github.com/crfernandes/persondir/internal/domain/model"
	"github.com/crfernandes/persondir/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuditSink = (*MemorySink)(nil)

// MemorySink collects entries in memory. Intended for tests, including the
// conformance check that no raw sensitive value ever reaches a sink.
type MemorySink struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends one entry stamped with the current UTC time.
func (s *MemorySink) Record(op model.Operation, actor, detail string) error {
	if actor == "" {
		actor = DefaultActor
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, model.AuditEntry{
		Time:      time.Now().UTC(),
		Operation: op,
		Actor:     actor,
		Detail:    detail,
	})
	return nil
}

// Entries returns a copy of everything recorded so far.
func (s *MemorySink) Entries() []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// ByOperation returns the recorded entries with the given operation kind.
func (s *MemorySink) ByOperation(op model.Operation) []model.AuditEntry {
	var out []model.AuditEntry
	for _, e := range s.Entries() {
		if e.Operation == op {
			out = append(out, e)
		}
	}
	return out
}
