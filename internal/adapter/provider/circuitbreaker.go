package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"agentteam/internal/domain"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breaker behavior.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32 `yaml:"max_failures"`
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration `yaml:"timeout"`
	// Interval is the cyclic period of the closed state for clearing failure counts.
	// If 0, failures never reset until the circuit opens.
	Interval time.Duration `yaml:"interval"`
}

// BreakerProvider wraps a ModelProvider with circuit breaker protection.
// When the wrapped provider fails repeatedly the circuit opens and subsequent
// calls fail fast without reaching the provider, so a fan-out across agents
// does not hammer a dead upstream.
type BreakerProvider struct {
	inner   domain.ModelProvider
	breaker *gobreaker.CircuitBreaker[*domain.TextResult]
	logger  *slog.Logger
}

// NewBreakerProvider wraps inner with a circuit breaker.
// Zero-valued cfg fields fall back to defaults.
func NewBreakerProvider(inner domain.ModelProvider, cfg BreakerConfig, logger *slog.Logger) *BreakerProvider {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	name := inner.Name()
	cb := gobreaker.NewCircuitBreaker[*domain.TextResult](gobreaker.Settings{
		Name:        "provider:" + name,
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &BreakerProvider{
		inner:   inner,
		breaker: cb,
		logger:  logger,
	}
}

// GenerateText implements domain.ModelProvider. Calls are routed through
// the circuit breaker.
func (p *BreakerProvider) GenerateText(ctx context.Context, prompt string, opts domain.GenerateOptions) (*domain.TextResult, error) {
	res, err := p.breaker.Execute(func() (*domain.TextResult, error) {
		return p.inner.GenerateText(ctx, prompt, opts)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("provider %q circuit open: %w", p.inner.Name(), domain.ErrProviderError)
		}
		return nil, err
	}
	return res, nil
}

// GenerateImage implements domain.ImageGenerator if the inner provider
// supports it. Image calls bypass the text breaker but share its open state:
// while the circuit is open, image calls also fail fast.
func (p *BreakerProvider) GenerateImage(ctx context.Context, prompt string, opts domain.ImageOptions) (*domain.ImageResult, error) {
	gen, ok := p.inner.(domain.ImageGenerator)
	if !ok {
		return nil, fmt.Errorf("provider %q does not support images: %w", p.inner.Name(), domain.ErrInvalidInput)
	}
	if p.breaker.State() == gobreaker.StateOpen {
		return nil, fmt.Errorf("provider %q circuit open: %w", p.inner.Name(), domain.ErrProviderError)
	}
	return gen.GenerateImage(ctx, prompt, opts)
}

// Name implements domain.ModelProvider.
func (p *BreakerProvider) Name() string { return p.inner.Name() }

// State returns the current circuit breaker state for monitoring.
func (p *BreakerProvider) State() gobreaker.State {
	return p.breaker.State()
}

// Compile-time interface checks.
var (
	_ domain.ModelProvider  = (*BreakerProvider)(nil)
	_ domain.ImageGenerator = (*BreakerProvider)(nil)
)
