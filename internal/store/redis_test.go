package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	b, err := NewRedisBackend(context.Background(), "redis://"+s.Addr(), "")
	if err != nil {
		t.Fatalf("failed to create redis backend: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b, s
}

func TestRedisBackend(t *testing.T) {
	b, _ := setupTestRedis(t)
	backendContract(t, b)
}

func TestRedisBackendPrefix(t *testing.T) {
	b, s := setupTestRedis(t)
	require.NoError(t, b.Set(context.Background(), "design-document", []byte("{}")))

	assert.True(t, s.Exists("themeforge:design-document"))
	assert.Equal(t, 0, int(s.TTL("themeforge:design-document")), "documents never expire")
}

func TestRedisBackendUnreachable(t *testing.T) {
	_, err := NewRedisBackend(context.Background(), "redis://127.0.0.1:1", "")
	assert.Error(t, err)
}

func TestRedisBackendBadURL(t *testing.T) {
	_, err := NewRedisBackend(context.Background(), "not-a-url", "")
	assert.Error(t, err)

	_, err = NewRedisBackend(context.Background(), "", "")
	assert.Error(t, err)
}
