package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-accounts-api/internal/domain"
	"github.com/go-accounts-api/internal/pkg/token"
	goredis "github.com/redis/go-redis/v9"
)

// sessionTTL is the session lifetime; Refresh resets it in full.
const sessionTTL = 3600 * time.Second

// SessionStore issues and resolves opaque session tokens. A token is
// random, never derived from the payload, and is the sole authorization
// artifact for protected operations.
type SessionStore struct {
	rdb goredis.UniversalClient
}

func NewSessionStore(rdb goredis.UniversalClient) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(tok string) string {
	return "session:" + tok
}

// Create serializes the payload under a fresh random token and returns
// the token. A storage failure here must fail the surrounding login.
func (s *SessionStore) Create(ctx context.Context, data domain.SessionData) (string, error) {
	tok, err := token.NewSessionToken()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(tok), payload, sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("create session: %v: %w", err, domain.ErrStorageUnavailable)
	}
	return tok, nil
}

// Get resolves a token to its payload. Reading never extends the expiry.
func (s *SessionStore) Get(ctx context.Context, tok string) (*domain.SessionData, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(tok)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("session: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %v: %w", err, domain.ErrStorageUnavailable)
	}
	var data domain.SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &data, nil
}

// Refresh overwrites the payload and resets the expiry to a full TTL.
func (s *SessionStore) Refresh(ctx context.Context, tok string, data domain.SessionData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(tok), payload, sessionTTL).Err(); err != nil {
		return fmt.Errorf("refresh session: %v: %w", err, domain.ErrStorageUnavailable)
	}
	return nil
}

// Destroy deletes the session. Idempotent; destroying an absent token is
// not an error.
func (s *SessionStore) Destroy(ctx context.Context, tok string) error {
	if err := s.rdb.Del(ctx, sessionKey(tok)).Err(); err != nil {
		return fmt.Errorf("destroy session: %v: %w", err, domain.ErrStorageUnavailable)
	}
	return nil
}
