package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	// Create a miniredis server
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)

	return mr, client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{
			name:        "Invalid URL",
			url:         "invalid://url",
			expectError: true,
		},
		{
			name:        "Empty URL",
			url:         "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", zap.NewNop())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, client)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

func TestClient_GetSet(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:key1", "value1", time.Minute))

	value, err := client.Get(ctx, "test:key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", value)

	// TTL was applied.
	assert.Greater(t, mr.TTL("test:key1"), time.Duration(0))

	// Missing keys surface the redis.Nil sentinel.
	_, err = client.Get(ctx, "test:missing")
	assert.Equal(t, Nil, err)
}

func TestClient_SetNX(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	ok, err := client.SetNX(ctx, "auth:otp:1234567890", "482913", TTLOTP)
	require.NoError(t, err)
	assert.True(t, ok, "first write wins")

	ok, err = client.SetNX(ctx, "auth:otp:1234567890", "111111", TTLOTP)
	require.NoError(t, err)
	assert.False(t, ok, "an in-flight OTP must not be overwritten")

	value, err := client.Get(ctx, "auth:otp:1234567890")
	require.NoError(t, err)
	assert.Equal(t, "482913", value)
}

func TestClient_DeleteAndExists(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	mr.Set("test:key1", "value1")
	mr.Set("test:key2", "value2")

	n, err := client.Exists(ctx, "test:key1", "test:key2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, client.Delete(ctx, "test:key1", "test:key2"))

	n, err = client.Exists(ctx, "test:key1", "test:key2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestClient_IncrAndExpire(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	v, err := client.Incr(ctx, "auth:otp:1234:attempts")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = client.Incr(ctx, "auth:otp:1234:attempts")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	require.NoError(t, client.Expire(ctx, "auth:otp:1234:attempts", TTLOTPAttempts))
	assert.Greater(t, mr.TTL("auth:otp:1234:attempts"), time.Duration(0))
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)

	assert.NoError(t, client.Health(context.Background()))

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}
