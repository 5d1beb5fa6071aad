package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentteam/internal/domain"
	"agentteam/internal/infra/logger"
)

func TestBreakerPassesThroughSuccess(t *testing.T) {
	inner := &stubProvider{name: "up", reply: "hi"}
	b := NewBreakerProvider(inner, BreakerConfig{}, logger.Discard())

	res, err := b.GenerateText(context.Background(), "hello", domain.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Content)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &stubProvider{name: "down", err: errors.New("boom")}
	b := NewBreakerProvider(inner, BreakerConfig{MaxFailures: 2, Timeout: time.Hour}, logger.Discard())
	ctx := context.Background()

	_, err := b.GenerateText(ctx, "x", domain.GenerateOptions{})
	require.Error(t, err)
	_, err = b.GenerateText(ctx, "x", domain.GenerateOptions{})
	require.Error(t, err)

	require.Equal(t, gobreaker.StateOpen, b.State())
	callsBefore := inner.calls

	_, err = b.GenerateText(ctx, "x", domain.GenerateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderError)
	assert.Equal(t, callsBefore, inner.calls, "open circuit must fail fast")
}

func TestBreakerImageUnsupported(t *testing.T) {
	b := NewBreakerProvider(&stubProvider{name: "text-only"}, BreakerConfig{}, logger.Discard())

	_, err := b.GenerateImage(context.Background(), "a cat", domain.ImageOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
