// Package model holds the domain types shared across ports and adapters.
package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// PersonRecord is one individual known to the system, normalized to canonical
// field names regardless of which source (local roster or remote directory)
// produced it.
//
// The sensitive fields (NationalID, Registration, InternalEmail, Email, Phone)
// are plaintext only for the lifetime of the operation that produced the
// record. They must never be written to a log, cache file, or external store
// unencrypted; callers that are done with a record should call Wipe.
type PersonRecord struct {
	Sequence      string
	FullName      string
	WarName       string
	RankGrade     string
	Specialty     string
	Unit          string
	Qualification string
	BirthDate     string
	EnlistDate    string
	LastPromoDate string
	InternalID    string

	// Sensitive attributes.
	NationalID    string
	Registration  string
	InternalEmail string
	Email         string
	Phone         string

	// One-way hashes of the sensitive identifiers, for audit correlation
	// only. Never reversible to the source value.
	NationalIDHash   string
	RegistrationHash string
}

// DisplayName returns "RankGrade FullName" when a rank is present, otherwise
// the full name alone.
func (p *PersonRecord) DisplayName() string {
	if p.RankGrade != "" && p.FullName != "" {
		return p.RankGrade + " " + p.FullName
	}
	return p.FullName
}

// StampHashes computes the audit-correlation hashes from the current
// sensitive identifiers. Empty identifiers produce empty hashes.
func (p *PersonRecord) StampHashes() {
	p.NationalIDHash = SensitiveHash(p.NationalID)
	p.RegistrationHash = SensitiveHash(p.Registration)
}

// Wipe zeroes every sensitive field so the plaintext does not outlive the
// request that produced the record. The audit hashes are kept.
func (p *PersonRecord) Wipe() {
	p.NationalID = ""
	p.Registration = ""
	p.InternalEmail = ""
	p.Email = ""
	p.Phone = ""
}

// SensitiveHash returns the first 16 hex characters of the SHA-256 digest of
// v. It is the only form of a sensitive identifier that may appear in audit
// output. Returns "" for empty input.
func SensitiveHash(v string) string {
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])[:16]
}
