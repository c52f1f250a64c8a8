package driven

import "context"

// SecretStore defines the driven port for the managed secret store that
// supplies the directory client's credential bundle and target identifier.
// Loading credentials from a local file path is rejected at a higher layer;
// implementations of this port are expected to front an environment- or
// vault-backed source, never the filesystem.
type SecretStore interface {
	// Get returns the named secret. A missing secret is an error; secrets
	// have no meaningful empty value.
	Get(ctx context.Context, name string) (string, error)
}
