package driven

import (
	"context"

	"github.com/crfernandes/persondir/internal/domain/model"
)

// RosterStore defines the driven port for the local person-record cache
// sourced from a tabular file. A store instance is owned by one caller
// context; it is not safe for concurrent mutation without external
// synchronization.
type RosterStore interface {
	// Load reads the backing table once per process unless the cache has
	// been cleared, normalizes headers to canonical names, sanitizes every
	// cell, and (when decrypt is true) decrypts the sensitive columns,
	// tolerating legacy plaintext. Returns ErrSourceNotFound or
	// ErrSourceUnreadable on local I/O problems; local reads are never
	// retried.
	Load(ctx context.Context, useCache, decrypt bool) ([]model.PersonRecord, error)

	// ClearCache drops the in-memory collection; the next Load re-reads the
	// source.
	ClearCache()
}
