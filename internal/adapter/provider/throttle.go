package provider

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"agentteam/internal/domain"
)

// ThrottledProvider smooths the call rate to an upstream provider with a
// token bucket. Concurrent fan-out across agents can otherwise burst several
// calls into the same provider in the same instant; the bucket spaces them
// out. This complements the windowed admission limiter, which answers a
// different question (per-caller quota over minute/hour/day windows).
type ThrottledProvider struct {
	inner   domain.ModelProvider
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewThrottledProvider wraps inner with a token bucket of rps requests per
// second and the given burst. A non-positive rps disables the throttle.
func NewThrottledProvider(inner domain.ModelProvider, rps float64, burst int, logger *slog.Logger) *ThrottledProvider {
	var limiter *rate.Limiter
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &ThrottledProvider{inner: inner, limiter: limiter, logger: logger}
}

// GenerateText implements domain.ModelProvider, waiting for a bucket token
// before delegating. Waiting respects ctx cancellation.
func (p *ThrottledProvider) GenerateText(ctx context.Context, prompt string, opts domain.GenerateOptions) (*domain.TextResult, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, domain.WrapOp("throttle", err)
		}
	}
	return p.inner.GenerateText(ctx, prompt, opts)
}

// GenerateImage implements domain.ImageGenerator if the inner provider
// supports it, sharing the same bucket as text calls.
func (p *ThrottledProvider) GenerateImage(ctx context.Context, prompt string, opts domain.ImageOptions) (*domain.ImageResult, error) {
	gen, ok := p.inner.(domain.ImageGenerator)
	if !ok {
		return nil, domain.NewDomainError("Throttle.GenerateImage", domain.ErrInvalidInput, "provider does not support images")
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, domain.WrapOp("throttle", err)
		}
	}
	return gen.GenerateImage(ctx, prompt, opts)
}

// Name implements domain.ModelProvider.
func (p *ThrottledProvider) Name() string { return p.inner.Name() }

var _ domain.ModelProvider = (*ThrottledProvider)(nil)
