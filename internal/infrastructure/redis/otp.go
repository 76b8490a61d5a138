package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-accounts-api/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// otpTTL is how long an issued passcode stays valid.
const otpTTL = 300 * time.Second

var otpKeyReplacer = strings.NewReplacer("@", "_", ".", "_")

// OTPStore holds pending one-time passcodes, one per email. Issuing a new
// code overwrites any prior pending one; a correct match consumes the
// entry, so a code is usable exactly once.
type OTPStore struct {
	rdb goredis.UniversalClient
}

func NewOTPStore(rdb goredis.UniversalClient) *OTPStore {
	return &OTPStore{rdb: rdb}
}

func otpKey(email string) string {
	return "otp:" + otpKeyReplacer.Replace(strings.ToLower(email))
}

// Store saves the code with a fresh TTL, replacing any pending code for
// the same email.
func (s *OTPStore) Store(ctx context.Context, email, code string) error {
	if err := s.rdb.Set(ctx, otpKey(email), code, otpTTL).Err(); err != nil {
		return fmt.Errorf("store otp: %v: %w", err, domain.ErrStorageUnavailable)
	}
	return nil
}

// Verify consumes the pending code: false when no entry exists (expired
// or never issued) or the candidate differs; on an exact match the entry
// is deleted and Verify returns true.
func (s *OTPStore) Verify(ctx context.Context, email, candidate string) bool {
	key := otpKey(email)
	stored, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.Warn("otp lookup failed", "err", err)
		}
		return false
	}
	if stored != candidate {
		return false
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		slog.Warn("otp delete after match failed", "err", err)
	}
	return true
}

// Clear discards any pending code. Idempotent.
func (s *OTPStore) Clear(ctx context.Context, email string) error {
	if err := s.rdb.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("clear otp: %v: %w", err, domain.ErrStorageUnavailable)
	}
	return nil
}
