package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/config"
	"gatepass/pkg/logger"
)

func TestNew_RequiresJWTSecret(t *testing.T) {
	cfg := &config.Config{
		Environment: "test",
		DatabaseURL: "postgres://localhost:5432/gatepass",
		RedisURL:    "redis://localhost:6379/0",
	}

	c, err := New(context.Background(), cfg, logger.NewNop())
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestNew_InvalidDatabaseURL(t *testing.T) {
	cfg := &config.Config{
		Environment: "test",
		JWTSecret:   "secret",
		DatabaseURL: "not-a-database-url://",
		RedisURL:    "redis://localhost:6379/0",
	}

	c, err := New(context.Background(), cfg, logger.NewNop())
	require.Error(t, err)
	assert.Nil(t, c)
}
