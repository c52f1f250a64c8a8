package driven

// FieldCipher defines the driven port for at-rest protection of single field
// values. Implementations hold one symmetric key for the process lifetime;
// there is no rotation.
type FieldCipher interface {
	// Encrypt returns a self-describing ciphertext token for plaintext.
	// Empty input yields an empty token, never an encrypted empty string.
	Encrypt(plaintext string) (string, error)

	// Decrypt returns the plaintext for a token produced by Encrypt. A value
	// not recognized as ciphertext is returned unchanged, so mixed
	// legacy-plaintext corpora read without failing. Integrity or key
	// failures degrade the same way: the token comes back as-is.
	Decrypt(token string) string

	// LooksEncrypted reports whether token has the shape of a ciphertext
	// token produced by this scheme.
	LooksEncrypted(token string) bool
}
