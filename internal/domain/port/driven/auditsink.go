package driven

import "github.com/crfernandes/persondir/internal/domain/model"

// AuditSink defines the driven port for the append-only access trail.
//
// Sinks perform no redaction: callers must pass identifiers only as
// model.SensitiveHash output. Single-entry appends must be atomic so
// independent writers never interleave within a line.
type AuditSink interface {
	// Record appends one entry. The sink stamps the entry time if zero.
	Record(op model.Operation, actor, detail string) error
}
