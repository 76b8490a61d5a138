package idhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash derives the profile key from an identity id: lowercase hex SHA-256
// of the id string. Deterministic and one-way; the profile tables and the
// ephemeral-store keys only ever see this derived form.
func Hash(identityID string) string {
	sum := sha256.Sum256([]byte(identityID))
	return hex.EncodeToString(sum[:])
}
