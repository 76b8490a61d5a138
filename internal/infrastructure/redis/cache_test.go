package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-accounts-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestProfileCache_RoundTrip(t *testing.T) {
	_, rdb := newTestClient(t)
	cache := NewProfileCache(rdb)
	ctx := context.Background()

	p := &domain.Profile{
		UserID:     "uid-1",
		Username:   "alice",
		AvatarLink: strPtr("https://cdn.example.com/a.png"),
		Bio:        strPtr("hello"),
	}
	require.NoError(t, cache.Cache(ctx, p))

	got, err := cache.Get(ctx, "uid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p, got)
}

func TestProfileCache_NilFieldsRoundTripAsNil(t *testing.T) {
	_, rdb := newTestClient(t)
	cache := NewProfileCache(rdb)
	ctx := context.Background()

	require.NoError(t, cache.Cache(ctx, &domain.Profile{UserID: "uid-1", Username: "alice"}))

	got, err := cache.Get(ctx, "uid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.AvatarLink)
	assert.Nil(t, got.Bio)
}

func TestProfileCache_MissReturnsNil(t *testing.T) {
	_, rdb := newTestClient(t)
	cache := NewProfileCache(rdb)

	got, err := cache.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProfileCache_EntryExpires(t *testing.T) {
	mr, rdb := newTestClient(t)
	cache := NewProfileCache(rdb)
	ctx := context.Background()

	require.NoError(t, cache.Cache(ctx, &domain.Profile{UserID: "uid-1", Username: "alice"}))
	mr.FastForward(3601 * time.Second)

	got, err := cache.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProfileCache_ClearIdempotent(t *testing.T) {
	_, rdb := newTestClient(t)
	cache := NewProfileCache(rdb)
	ctx := context.Background()

	require.NoError(t, cache.Cache(ctx, &domain.Profile{UserID: "uid-1", Username: "alice"}))
	require.NoError(t, cache.Clear(ctx, "uid-1"))
	require.NoError(t, cache.Clear(ctx, "uid-1"))

	got, err := cache.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProfileCache_RewriteRefreshesFields(t *testing.T) {
	_, rdb := newTestClient(t)
	cache := NewProfileCache(rdb)
	ctx := context.Background()

	require.NoError(t, cache.Cache(ctx, &domain.Profile{UserID: "uid-1", Username: "alice", Bio: strPtr("old")}))
	require.NoError(t, cache.Cache(ctx, &domain.Profile{UserID: "uid-1", Username: "alice2", Bio: strPtr("new")}))

	got, err := cache.Get(ctx, "uid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice2", got.Username)
	assert.Equal(t, "new", *got.Bio)
}
