package driven

import "errors"

// Error taxonomy for the access layer. Callers classify failures with
// errors.Is; the wrapped text carries the admin-facing detail.
var (
	// ErrInvalidInput marks a malformed or empty search key.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAmbiguousMatch marks more than one local record for one identity.
	// Duplicate names are a data-quality error surfaced to the caller, never
	// silently resolved.
	ErrAmbiguousMatch = errors.New("ambiguous match")

	// ErrSecurity marks a credential, configuration, or allow-list violation.
	// It always fails closed: never retried, never swallowed.
	ErrSecurity = errors.New("security violation")

	// ErrSourceNotFound marks an absent local backing table.
	ErrSourceNotFound = errors.New("roster source not found")

	// ErrSourceUnreadable marks a local backing table that cannot be parsed.
	ErrSourceUnreadable = errors.New("roster source unreadable")

	// ErrFetch marks a remote read that exhausted its retries.
	ErrFetch = errors.New("remote fetch failed")
)

// UserMessage maps an error to a short message safe for any user. The full
// error text is the admin-only detail; it never contains sensitive plaintext.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "The search term is empty or contains unsupported characters."
	case errors.Is(err, ErrAmbiguousMatch):
		return "More than one record matches that name. Fix the duplicate in the roster."
	case errors.Is(err, ErrSecurity):
		return "The request was blocked by a security rule."
	case errors.Is(err, ErrSourceNotFound):
		return "The personnel roster file is missing."
	case errors.Is(err, ErrSourceUnreadable):
		return "The personnel roster file could not be read."
	case errors.Is(err, ErrFetch):
		return "The remote directory did not respond. Try again later."
	default:
		return "An internal error occurred."
	}
}
