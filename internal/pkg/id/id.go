package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string, used as the opaque server-generated
// identity id. Only the SHA-256 of this value ever leaves the identity
// table.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
