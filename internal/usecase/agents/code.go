package agents

import (
	"context"
	"fmt"
	"strings"

	"agentteam/internal/domain"
)

var codeIdentity = domain.AgentIdentity{
	ID:   "code",
	Name: "Dev",
	Role: "Software Engineer",
	Personality: domain.Personality{
		Emoji: "💻",
		Traits: domain.Traits{
			Formality: 0.4,
			Humor:     0.6,
			Verbosity: 0.6,
			Empathy:   0.4,
		},
		CatchPhrases: []string{
			"Have you tried turning it off and on again?",
			"It works on my machine!",
			"Ship it! 🚀",
		},
		Specialties: []string{"programming", "debugging", "architecture", "code review"},
	},
	Capabilities: domain.Capabilities{
		Text:     true,
		Code:     true,
		Analysis: true,
	},
}

var codeKeywords = []string{
	"code", "program", "function", "bug", "debug", "error",
	"compile", "syntax", "algorithm", "api", "refactor",
	"python", "javascript", "typescript", "golang", "java", "rust",
}

// CodeAgent handles programming questions: writing, explaining and
// debugging code.
type CodeAgent struct {
	*BaseAgent
}

func NewCodeAgent(providerName string, deps Deps) *CodeAgent {
	identity := codeIdentity
	identity.ModelConfig = domain.ModelConfig{
		Provider:    providerName,
		Model:       "default",
		Temperature: 0.2,
		MaxTokens:   2048,
	}
	return &CodeAgent{newBaseAgent(identity, codeKeywords, deps)}
}

// CanHandle scores keyword hits at 0.25 each with a +0.4 bonus for
// structural code markers (fenced blocks, call parens, braces).
func (a *CodeAgent) CanHandle(text string, _ *domain.Conversation) float64 {
	confidence := a.scoreKeywords(text, 0.25)
	if hasCodeStructure(text) {
		confidence += 0.4
	}
	return clamp01(confidence)
}

func hasCodeStructure(text string) bool {
	return strings.Contains(text, "```") ||
		strings.Contains(text, "()") ||
		strings.Contains(text, "{}") ||
		(strings.Contains(text, "{") && strings.Contains(text, "}"))
}

func (a *CodeAgent) Process(ctx context.Context, text string, conv *domain.Conversation) (*domain.AgentResponse, error) {
	prompt := fmt.Sprintf(`You are %s, an experienced software engineer.
Answer the following programming request. Include working code in fenced
blocks with the language tag, and briefly explain the approach.

Request: %s`, a.identity.Name, text)
	if conv != nil && conv.Topic != "" {
		prompt += fmt.Sprintf("\n\nConversation topic: %s", conv.Topic)
	}

	result, err := a.generate(ctx, prompt)
	if err != nil {
		return a.failureReply(ctx, err,
			"💻 Looks like I hit a runtime error of my own. Let me reboot and try again later."), nil
	}

	content := a.decorate(formatCode(result.Content))
	return a.newResponse(content, 0.9,
		"Matched programming keywords or code structure",
		result.Usage,
		domain.Reaction{
			Emoji:      a.pickReaction(domain.ReactCode),
			Reason:     "Code assistance provided",
			Confidence: 0.9,
		},
	), nil
}

func formatCode(answer string) string {
	var b strings.Builder
	b.WriteString("💻 **Code Solution**\n\n")
	b.WriteString(answer)
	b.WriteString("\n\n⚡ *Pro tip: always test your code before shipping!*")
	return b.String()
}

var _ domain.Specialist = (*CodeAgent)(nil)
