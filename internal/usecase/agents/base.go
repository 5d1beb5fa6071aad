package agents

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"agentteam/internal/adapter/provider"
	"agentteam/internal/domain"
	"agentteam/internal/usecase/ratelimit"
)

// Typing simulation bounds.
const (
	typingBase    = time.Second
	typingPerChar = 20 * time.Millisecond
	typingMax     = 10 * time.Second
)

// Deps bundles the collaborators every agent needs. Logger is required;
// the rest may be nil (nil Limiter = no admission control, nil LongTerm =
// short-term memory only, nil Rand/Now = time-seeded/wall clock).
type Deps struct {
	Providers *provider.Registry
	Limiter   *ratelimit.Limiter
	LongTerm  LongTermStore
	Logger    *slog.Logger
	Rand      *rand.Rand
	Now       func() time.Time
}

// BaseAgent carries the identity, memory and shared behavior common to all
// specialists. Concrete specialists embed it and supply CanHandle/Process.
type BaseAgent struct {
	identity  domain.AgentIdentity
	keywords  []string
	providers *provider.Registry
	limiter   *ratelimit.Limiter
	memory    *Memory
	logger    *slog.Logger
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func newBaseAgent(identity domain.AgentIdentity, keywords []string, deps Deps) *BaseAgent {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	// Each agent gets its own source: concurrent fan-out would otherwise
	// race agents on a shared Rand.
	seed := now().UnixNano()
	if deps.Rand != nil {
		seed = deps.Rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	return &BaseAgent{
		identity:  identity,
		keywords:  keywords,
		providers: deps.Providers,
		limiter:   deps.Limiter,
		memory:    newMemory(identity.ID, deps.LongTerm, deps.Logger),
		logger:    deps.Logger,
		now:       now,
		rng:       rng,
	}
}

// Identity returns the agent's immutable identity.
func (b *BaseAgent) Identity() domain.AgentIdentity { return b.identity }

// Memory returns the agent's two-tier memory.
func (b *BaseAgent) Memory() *Memory { return b.memory }

// ShouldInterrupt reports whether the agent should volunteer unprompted:
// the most recent message contains one of its keywords, or contains "?" or
// "help" while the agent declares text capability.
func (b *BaseAgent) ShouldInterrupt(conv *domain.Conversation) bool {
	text := conv.LastMessage()
	lower := strings.ToLower(text)
	for _, kw := range b.keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	if strings.Contains(text, "?") || strings.Contains(lower, "help") {
		return b.identity.Capabilities.Text
	}
	return false
}

// TypingDuration bounds a simulated thinking delay:
// min(1s + responseLength*20ms + verbosity*2s, 10s).
func (b *BaseAgent) TypingDuration(responseLength int) time.Duration {
	thinking := time.Duration(b.identity.Personality.Traits.Verbosity * float64(2*time.Second))
	d := typingBase + time.Duration(responseLength)*typingPerChar + thinking
	if d > typingMax {
		return typingMax
	}
	return d
}

// generate performs the agent's single model call: admission check first,
// then provider lookup and text generation.
func (b *BaseAgent) generate(ctx context.Context, prompt string) (*domain.TextResult, error) {
	cfg := b.identity.ModelConfig
	if b.limiter != nil {
		caller := domain.CallerFromContext(ctx)
		if !b.limiter.Allow(caller, cfg.Provider) {
			return nil, domain.NewDomainError(b.identity.ID+".generate", domain.ErrRateLimited, cfg.Provider)
		}
	}
	p, err := b.providers.Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return p.GenerateText(ctx, prompt, domain.GenerateOptions{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
}

// failureReply converts a model-call failure into a low-confidence
// in-character response. Rate-limit rejections include the remaining budget
// so the caller can inform the user; everything else gets the agent's
// apology line. Failures are absorbed here, never propagated.
func (b *BaseAgent) failureReply(ctx context.Context, err error, apology string) *domain.AgentResponse {
	b.logger.Warn("agent model call failed",
		"agent", b.identity.ID, "error", err)

	content := apology
	if domain.IsRateLimited(err) && b.limiter != nil {
		rem := b.limiter.Peek(domain.CallerFromContext(ctx), b.identity.ModelConfig.Provider)
		content = fmt.Sprintf("%s I'm getting too many requests right now. %s",
			b.identity.Personality.Emoji, budgetLine(rem))
	}
	return &domain.AgentResponse{
		AgentID:    b.identity.ID,
		Content:    content,
		Confidence: 0.3,
		Reactions: []domain.Reaction{
			{Emoji: b.pickReaction(domain.ReactError), Reason: "Processing failed", Confidence: 0.3},
		},
		Metadata: domain.ResponseMetadata{
			Model:     b.identity.ModelConfig.Model,
			Timestamp: b.now(),
		},
	}
}

// budgetLine renders the remaining budget, skipping unlimited windows.
func budgetLine(rem ratelimit.Remaining) string {
	var parts []string
	if rem.Minute != ratelimit.Unlimited {
		parts = append(parts, fmt.Sprintf("%d requests left this minute", rem.Minute))
	}
	if rem.Hour != ratelimit.Unlimited {
		parts = append(parts, fmt.Sprintf("%d this hour", rem.Hour))
	}
	if len(parts) == 0 {
		return "Please try again shortly."
	}
	return "You have " + strings.Join(parts, " and ") + "."
}

// newResponse assembles a successful response with metadata filled in.
// When the provider reported no usage, tokens are estimated locally.
func (b *BaseAgent) newResponse(content string, confidence float64, reasoning string, usage domain.Usage, reactions ...domain.Reaction) *domain.AgentResponse {
	tokens := usage.TotalTokens
	if tokens == 0 {
		tokens = estimateTokens(content)
	}
	return &domain.AgentResponse{
		AgentID:    b.identity.ID,
		Content:    content,
		Confidence: confidence,
		Reasoning:  reasoning,
		Reactions:  reactions,
		Metadata: domain.ResponseMetadata{
			Model:     b.identity.ModelConfig.Model,
			Tokens:    tokens,
			Timestamp: b.now(),
		},
	}
}

// scoreKeywords sums weight per keyword hit, clamped to 1.
func (b *BaseAgent) scoreKeywords(text string, weight float64) float64 {
	lower := strings.ToLower(text)
	var confidence float64
	for _, kw := range b.keywords {
		if strings.Contains(lower, strings.ToLower(kw)) || strings.Contains(text, kw) {
			confidence += weight
		}
	}
	return clamp01(confidence)
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// Token estimation for providers that do not report usage.
var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
)

func estimateTokens(text string) int {
	tokenizerOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tokenizer = enc
		}
	})
	if tokenizer == nil {
		// Rough heuristic when the encoding is unavailable.
		return len(text) / 4
	}
	return len(tokenizer.Encode(text, nil, nil))
}
