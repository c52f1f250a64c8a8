package model

import "time"

// Operation is the kind of access being audited.
type Operation string

const (
	OpLoad        Operation = "load"
	OpSearch      Operation = "search"
	OpExactLookup Operation = "exact-lookup"
	OpRemoteFetch Operation = "remote-fetch"
	OpFetchMiss   Operation = "fetch-miss"
	OpFetchError  Operation = "fetch-error"
)

// AuditEntry is one line of the append-only access trail. Detail must already
// be a non-reversible form (a SensitiveHash, a count, a source name) before it
// reaches a sink; sinks perform no redaction of their own.
type AuditEntry struct {
	Time      time.Time
	Operation Operation
	Actor     string
	Detail    string
}
