package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-accounts-api/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const cacheTTL = 3600 * time.Second

const (
	cacheFieldUsername = "username"
	cacheFieldAvatar   = "avatarLink"
	cacheFieldBio      = "bio"
)

// ProfileCache mirrors active profile fields as a Redis hash keyed by the
// derived user id. Only populated for profiles that are neither
// soft-deleted nor past their reactivation window; every write path
// invalidates before writing.
type ProfileCache struct {
	rdb goredis.UniversalClient
}

func NewProfileCache(rdb goredis.UniversalClient) *ProfileCache {
	return &ProfileCache{rdb: rdb}
}

func cacheKey(userID string) string {
	return "user:" + userID
}

// Cache stores the profile fields with a fresh TTL. Nil avatar and bio
// are stored as empty strings so the hash shape stays fixed.
func (c *ProfileCache) Cache(ctx context.Context, p *domain.Profile) error {
	fields := map[string]string{
		cacheFieldUsername: p.Username,
		cacheFieldAvatar:   strOrEmpty(p.AvatarLink),
		cacheFieldBio:      strOrEmpty(p.Bio),
	}
	key := cacheKey(p.UserID)
	if err := c.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("cache profile: %v: %w", err, domain.ErrStorageUnavailable)
	}
	if err := c.rdb.Expire(ctx, key, cacheTTL).Err(); err != nil {
		return fmt.Errorf("cache profile expire: %v: %w", err, domain.ErrStorageUnavailable)
	}
	return nil
}

// Get returns the cached profile, or nil on a miss.
func (c *ProfileCache) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	fields, err := c.rdb.HGetAll(ctx, cacheKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get cached profile: %v: %w", err, domain.ErrStorageUnavailable)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return &domain.Profile{
		UserID:     userID,
		Username:   fields[cacheFieldUsername],
		AvatarLink: ptrOrNil(fields[cacheFieldAvatar]),
		Bio:        ptrOrNil(fields[cacheFieldBio]),
	}, nil
}

// Clear invalidates the cache entry. Idempotent.
func (c *ProfileCache) Clear(ctx context.Context, userID string) error {
	if err := c.rdb.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear cached profile: %v: %w", err, domain.ErrStorageUnavailable)
	}
	return nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
