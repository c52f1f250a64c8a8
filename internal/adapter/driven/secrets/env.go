// Package secrets implements the SecretStore port over the process
// environment and validates the directory service-account bundle. Credential
// material never touches the local filesystem: path-shaped values are
// rejected outright.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/crfernandes/persondir/internal/domain/port/driven"
)

// envPrefix namespaces the secret names in the environment, so the bundle
// lands in PERSONDIR_SECRET_SERVICE_ACCOUNT and friends.
const envPrefix = "PERSONDIR_SECRET_"

// Well-known secret names.
const (
	NameServiceAccount = "SERVICE_ACCOUNT"
	NameDirectoryID    = "DIRECTORY_ID"
)

// Compile-time interface satisfaction check.
var _ driven.SecretStore = (*Env)(nil)

// Env reads secrets from the environment, where the hosting platform's
// managed secret facility injects them.
type Env struct{}

// NewEnv creates an environment-backed secret store.
func NewEnv() *Env {
	return &Env{}
}

// Get implements driven.SecretStore. A missing or empty secret is an
// ErrSecurity: secrets have no meaningful empty value.
func (e *Env) Get(_ context.Context, name string) (string, error) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: secret %s is not configured", driven.ErrSecurity, name)
	}
	return v, nil
}

// Static serves a fixed secret map. Intended for tests.
type Static map[string]string

var _ driven.SecretStore = (Static)(nil)

// Get implements driven.SecretStore.
func (s Static) Get(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: secret %s is not configured", driven.ErrSecurity, name)
	}
	return v, nil
}
