package repository

import (
	"context"
	"testing"
	"time"

	"toolhub/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuth2StateIsSingleUse(t *testing.T) {
	redisClient, server := newTestRedisClient(t)
	repository := NewOAuth2StateRepository(&telemetry.Trace{}, redisClient)
	ctx := context.Background()

	require.NoError(t, repository.SaveVerifier(ctx, "jti-1", "verifier", time.Minute))
	assert.Error(t, repository.SaveVerifier(ctx, "jti-1", "other", time.Minute))

	value, err := repository.ConsumeVerifier(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "verifier", value)

	value, err = repository.ConsumeVerifier(ctx, "jti-1")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, repository.SaveVerifier(ctx, "jti-2", "verifier", time.Minute))
	server.FastForward(2 * time.Minute)
	value, err = repository.ConsumeVerifier(ctx, "jti-2")
	require.NoError(t, err)
	assert.Empty(t, value)
}
