package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, goredis.UniversalClient) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestOTPStore_VerifyConsumesCode(t *testing.T) {
	_, rdb := newTestClient(t)
	store := NewOTPStore(rdb)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "alice@example.com", "123456"))

	assert.True(t, store.Verify(ctx, "alice@example.com", "123456"))
	// Consumed by the first match.
	assert.False(t, store.Verify(ctx, "alice@example.com", "123456"))
}

func TestOTPStore_VerifyWrongCodeKeepsEntry(t *testing.T) {
	_, rdb := newTestClient(t)
	store := NewOTPStore(rdb)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "alice@example.com", "123456"))

	assert.False(t, store.Verify(ctx, "alice@example.com", "654321"))
	// A mismatch does not consume the pending code.
	assert.True(t, store.Verify(ctx, "alice@example.com", "123456"))
}

func TestOTPStore_VerifyAbsent(t *testing.T) {
	_, rdb := newTestClient(t)
	store := NewOTPStore(rdb)

	assert.False(t, store.Verify(context.Background(), "nobody@example.com", "123456"))
}

func TestOTPStore_NewCodeReplacesPending(t *testing.T) {
	_, rdb := newTestClient(t)
	store := NewOTPStore(rdb)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "alice@example.com", "111111"))
	require.NoError(t, store.Store(ctx, "alice@example.com", "222222"))

	assert.False(t, store.Verify(ctx, "alice@example.com", "111111"))
	assert.True(t, store.Verify(ctx, "alice@example.com", "222222"))
}

func TestOTPStore_CodeExpires(t *testing.T) {
	mr, rdb := newTestClient(t)
	store := NewOTPStore(rdb)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "alice@example.com", "123456"))
	mr.FastForward(301 * time.Second)

	assert.False(t, store.Verify(ctx, "alice@example.com", "123456"))
}

func TestOTPStore_KeyNormalization(t *testing.T) {
	mr, rdb := newTestClient(t)
	store := NewOTPStore(rdb)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "Alice@Example.com", "123456"))
	assert.True(t, mr.Exists("otp:alice_example_com"))
	assert.True(t, store.Verify(ctx, "alice@example.com", "123456"))
}

func TestOTPStore_ClearIdempotent(t *testing.T) {
	_, rdb := newTestClient(t)
	store := NewOTPStore(rdb)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "alice@example.com", "123456"))
	require.NoError(t, store.Clear(ctx, "alice@example.com"))
	require.NoError(t, store.Clear(ctx, "alice@example.com"))

	assert.False(t, store.Verify(ctx, "alice@example.com", "123456"))
}
