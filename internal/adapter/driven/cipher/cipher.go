// Package cipher implements the FieldCipher port with AES-256-GCM and a
// file-persisted process-lifetime key.
package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/crfernandes/persondir/internal/domain/port/driven"
)

// tokenPrefix marks ciphertext tokens produced by this scheme, so loaders can
// tell migrated values from legacy plaintext without a schema-version column.
const tokenPrefix = "ENC1."

// minTokenLen is the length floor for a well-formed token: prefix plus the
// base64 of a 12-byte nonce and a 16-byte GCM tag around an empty payload.
const minTokenLen = len(tokenPrefix) + 40

const keySize = 32 // AES-256

// Compile-time interface satisfaction check.
var _ driven.FieldCipher = (*Cipher)(nil)

// Cipher encrypts and decrypts single field values. The key is read once at
// construction and held read-only for the process lifetime; there is no
// rotation.
type Cipher struct {
	aead   gocipher.AEAD
	logger *slog.Logger
}

// New loads the symmetric key from keyPath, generating and persisting a new
// random key with owner-only permissions if the file does not exist.
func New(keyPath string, logger *slog.Logger) (*Cipher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	key, err := loadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := gocipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &Cipher{aead: aead, logger: logger}, nil
}

func loadOrCreateKey(keyPath string) ([]byte, error) {
	key, err := os.ReadFile(keyPath)
	if err == nil {
		if len(key) != keySize {
			return nil, fmt.Errorf("key file %s: expected %d bytes, got %d", keyPath, keySize, len(key))
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	key = make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(keyPath, key, 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}

	return key, nil
}

// Encrypt returns a ciphertext token for plaintext: the prefix plus the
// base64 of nonce||ciphertext||tag. Empty or whitespace-only input yields an
// empty token so emptiness is never encrypted ambiguously.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return tokenPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// LooksEncrypted reports whether token has the shape of an Encrypt output:
// the scheme prefix and at least the minimum sealed length.
func (c *Cipher) LooksEncrypted(token string) bool {
	return len(token) >= minTokenLen && strings.HasPrefix(token, tokenPrefix)
}

// Decrypt returns the plaintext for a token produced by Encrypt. Values that
// do not look encrypted are returned unchanged, so read-only consumers
// tolerate mixed legacy/migrated corpora. Integrity or key failures log one
// warning (no sensitive content) and degrade the same way.
func (c *Cipher) Decrypt(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if !c.LooksEncrypted(token) {
		return token
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, tokenPrefix))
	if err != nil {
		c.logger.Warn("field token is not valid base64, returning value unchanged")
		return token
	}

	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize {
		c.logger.Warn("field token too short, returning value unchanged")
		return token
	}

	plaintext, err := c.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		c.logger.Warn("field token failed authenticated decryption, returning value unchanged")
		return token
	}

	return string(plaintext)
}
