package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// Credential pairs a user identity with the SHA-256 hex digest of
// their password. The raw password is consumed by the constructor
// and never retained; the digest is what gets stored and compared
// in the accounts table.
type Credential struct {
	email  string
	digest string
}

// NewCredential hashes the raw password immediately and returns a
// credential holding only the email and the digest. Hashing is
// deterministic and never fails.
func NewCredential(email, password string) Credential {
	sum := sha256.Sum256([]byte(password))
	return Credential{email: email, digest: hex.EncodeToString(sum[:])}
}

// Email returns the identity string.
func (c Credential) Email() string { return c.email }

// Digest returns the hex-encoded password hash.
func (c Credential) Digest() string { return c.digest }
