package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClientSetGet(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryClientMiss(t *testing.T) {
	c := NewMemoryClient(10)

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClientExpiry(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), -time.Second))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClientDelete(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClientDeleteByPrefix(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "sre:resolve:a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "sre:resolve:b", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "sre:names", []byte("3"), time.Minute))

	require.NoError(t, c.DeleteByPrefix(ctx, "sre:resolve:"))

	_, err := c.Get(ctx, "sre:resolve:a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "sre:names")
	assert.NoError(t, err)
}

func TestMemoryClientEviction(t *testing.T) {
	c := NewMemoryClient(2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Hour))

	// "a" had the earliest expiry, so it was evicted to make room.
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "b")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "resolve:abc", Key("resolve", "abc"))
	assert.Equal(t, "single", Key("single"))
}
