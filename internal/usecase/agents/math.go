package agents

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"agentteam/internal/domain"
)

var mathIdentity = domain.AgentIdentity{
	ID:   "math",
	Name: "Newton",
	Role: "Mathematics Expert",
	Personality: domain.Personality{
		Emoji: "🔢",
		Traits: domain.Traits{
			Formality: 0.8,
			Humor:     0.2,
			Verbosity: 0.7,
			Empathy:   0.3,
		},
		CatchPhrases: []string{
			"The numbers speak for themselves.",
			"Mathematics is the language of the universe.",
			"Quod erat demonstrandum.",
		},
		Specialties: []string{"mathematics", "statistics", "calculus", "logic"},
	},
	Capabilities: domain.Capabilities{
		Text:     true,
		Math:     true,
		Analysis: true,
	},
}

var mathKeywords = []string{
	"math", "calculate", "equation", "solve", "integral",
	"derivative", "statistics", "probability", "algebra",
	"geometry", "percentage", "sum", "average",
}

// MathAgent solves mathematical problems with labeled step-by-step working.
type MathAgent struct {
	*BaseAgent
}

func NewMathAgent(providerName string, deps Deps) *MathAgent {
	identity := mathIdentity
	identity.ModelConfig = domain.ModelConfig{
		Provider:    providerName,
		Model:       "default",
		Temperature: 0.1,
		MaxTokens:   1536,
	}
	return &MathAgent{newBaseAgent(identity, mathKeywords, deps)}
}

// CanHandle scores keyword hits at 0.3 each with a +0.5 bonus when the text
// contains both a digit and a mathematical operator.
func (a *MathAgent) CanHandle(text string, _ *domain.Conversation) float64 {
	confidence := a.scoreKeywords(text, 0.3)
	if hasDigit(text) && hasMathSymbol(text) {
		confidence += 0.5
	}
	return clamp01(confidence)
}

func hasDigit(text string) bool {
	for _, r := range text {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func hasMathSymbol(text string) bool {
	return strings.ContainsAny(text, "+-*/=^()")
}

func (a *MathAgent) Process(ctx context.Context, text string, conv *domain.Conversation) (*domain.AgentResponse, error) {
	prompt := fmt.Sprintf(`You are %s, a rigorous mathematics expert.
Solve the following problem step by step. Number each step on its own line
starting with "Step N:". State the final answer clearly at the end.

Problem: %s`, a.identity.Name, text)

	result, err := a.generate(ctx, prompt)
	if err != nil {
		return a.failureReply(ctx, err,
			"🔢 My calculations were interrupted. Even Newton needed a quiet moment under the apple tree."), nil
	}

	content := a.decorate(formatMath(result.Content))
	return a.newResponse(content, 0.95,
		"Matched mathematical keywords or expression structure",
		result.Usage,
		domain.Reaction{
			Emoji:      a.pickReaction(domain.ReactCalculating),
			Reason:     "Mathematical solution computed",
			Confidence: 0.95,
		},
	), nil
}

// formatMath bolds "Step N:" labels and wraps the solution in the math
// presentation envelope.
func formatMath(solution string) string {
	lines := strings.Split(solution, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Step ") && strings.Contains(trimmed, ":") {
			lines[i] = "**" + trimmed[:strings.Index(trimmed, ":")+1] + "**" +
				trimmed[strings.Index(trimmed, ":")+1:]
		}
	}
	var b strings.Builder
	b.WriteString("🔢 **Mathematical Solution**\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(strings.Repeat("═", 40))
	b.WriteString("\n✅ *Solution verified mathematically*")
	return b.String()
}

var _ domain.Specialist = (*MathAgent)(nil)
