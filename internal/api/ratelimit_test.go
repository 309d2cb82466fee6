package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qpcr/pkg/config"
	"github.com/wonny/qpcr/pkg/redis"
)

func TestLocalLimiter(t *testing.T) {
	l := newLocalLimiter(1, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d within burst", i)
	}
	ok, _ := l.Allow(ctx, "10.0.0.1")
	assert.False(t, ok, "burst exhausted")

	// 클라이언트별 버킷
	ok, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, ok)
}

func TestNewLimiter(t *testing.T) {
	cfg := &config.Config{API: config.APIConfig{RateLimit: 0}}
	assert.Nil(t, NewLimiter(cfg, nil))

	cfg.API.RateLimit = 5
	cfg.API.RateBurst = 10
	_, isLocal := NewLimiter(cfg, nil).(*localLimiter)
	assert.True(t, isLocal)

	disabled, err := redis.New(context.Background(), &config.Config{})
	require.NoError(t, err)
	_, isLocal = NewLimiter(cfg, disabled).(*localLimiter)
	assert.True(t, isLocal, "disabled redis falls back to local buckets")
}
