package domain

// SessionData is the payload stored behind an opaque session token.
// The token itself is random and carries no information; every protected
// operation resolves its caller by reading the session, never by trusting
// a client-supplied user id.
type SessionData struct {
	UserID string `json:"user_id"`
}
