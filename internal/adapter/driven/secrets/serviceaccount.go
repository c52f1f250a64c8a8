package secrets

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crfernandes/persondir/internal/domain/port/driven"
)

// serviceAccountType is the required marker in the credential bundle.
const serviceAccountType = "service_account"

// ServiceAccount is the parsed directory credential bundle.
type ServiceAccount struct {
	Type       string `json:"type"`
	ProjectID  string `json:"project_id"`
	PrivateKey string `json:"private_key"`
	ClientID   string `json:"client_id"`

	key *rsa.PrivateKey
}

// Key returns the parsed RSA signing key.
func (sa *ServiceAccount) Key() *rsa.PrivateKey {
	return sa.key
}

// LoadServiceAccount reads and validates the credential bundle from the
// managed secret store. The bundle must be inline JSON; a path-shaped value
// means someone is pointing the client at a local credentials file, which is
// exactly the sprawl this component exists to eliminate, so it fails with
// ErrSecurity before anything else happens.
func LoadServiceAccount(ctx context.Context, store driven.SecretStore) (*ServiceAccount, error) {
	raw, err := store.Get(ctx, NameServiceAccount)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("%w: service-account credentials must be an inline JSON bundle, not a file path", driven.ErrSecurity)
	}

	var sa ServiceAccount
	if err := json.Unmarshal([]byte(trimmed), &sa); err != nil {
		return nil, fmt.Errorf("%w: service-account bundle is not valid JSON", driven.ErrSecurity)
	}

	if sa.Type != serviceAccountType {
		return nil, fmt.Errorf("%w: credential type must be %q", driven.ErrSecurity, serviceAccountType)
	}
	for name, v := range map[string]string{
		"project_id":  sa.ProjectID,
		"private_key": sa.PrivateKey,
		"client_id":   sa.ClientID,
	} {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: service-account bundle is missing %s", driven.ErrSecurity, name)
		}
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("%w: service-account private key is not a valid PEM RSA key", driven.ErrSecurity)
	}
	sa.key = key

	return &sa, nil
}
