package driven

import (
	"context"

	"github.com/crfernandes/persondir/internal/domain/model"
)

// Directory defines the driven port for the external read-only directory
// service. Fetches on one client are strictly serialized by its rate limiter;
// callers needing concurrency construct one client per session.
type Directory interface {
	// Connect establishes an authenticated read-only session. The error
	// never contains credential content.
	Connect(ctx context.Context) error

	// FetchByIdentifier returns the person for a registration identifier, or
	// (nil, nil) when the directory has no matching row. The identifier is
	// sanitized and allow-list checked before any network activity;
	// violations fail with ErrSecurity. Transient remote failures are
	// retried with exponential backoff and surface as ErrFetch only after
	// exhaustion.
	FetchByIdentifier(ctx context.Context, rawID string) (*model.PersonRecord, error)
}
