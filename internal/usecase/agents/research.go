package agents

import (
	"context"
	"fmt"
	"strings"

	"agentteam/internal/domain"
)

var researchIdentity = domain.AgentIdentity{
	ID:   "research",
	Name: "Sherlock",
	Role: "Research Specialist",
	Personality: domain.Personality{
		Emoji: "🔍",
		Traits: domain.Traits{
			Formality: 0.7,
			Humor:     0.3,
			Verbosity: 0.8,
			Empathy:   0.5,
		},
		CatchPhrases: []string{
			"Elementary, my dear user!",
			"The facts never lie.",
			"Let me investigate that for you.",
		},
		Specialties: []string{"research", "fact-checking", "analysis", "investigation"},
	},
	Capabilities: domain.Capabilities{
		Text:     true,
		Research: true,
		Analysis: true,
	},
}

var researchKeywords = []string{
	"search", "find", "research", "fact", "verify", "check",
	"investigate", "source", "evidence", "study", "data",
	"what is", "who is", "when did", "where is",
}

// ResearchAgent answers factual questions with sourced, structured findings.
type ResearchAgent struct {
	*BaseAgent
}

func NewResearchAgent(providerName string, deps Deps) *ResearchAgent {
	identity := researchIdentity
	identity.ModelConfig = domain.ModelConfig{
		Provider:    providerName,
		Model:       "default",
		Temperature: 0.3,
		MaxTokens:   1024,
	}
	return &ResearchAgent{newBaseAgent(identity, researchKeywords, deps)}
}

// CanHandle scores keyword hits at 0.2 each with a +0.3 bonus for an
// explicit question mark.
func (a *ResearchAgent) CanHandle(text string, _ *domain.Conversation) float64 {
	confidence := a.scoreKeywords(text, 0.2)
	if strings.Contains(text, "?") {
		confidence += 0.3
	}
	return clamp01(confidence)
}

func (a *ResearchAgent) Process(ctx context.Context, text string, conv *domain.Conversation) (*domain.AgentResponse, error) {
	query := extractQuery(text)

	prompt := fmt.Sprintf(`You are %s, a meticulous research specialist.
Investigate the following query and report your findings with sources where possible.
Be factual and concise. If you are uncertain, say so explicitly.

Query: %s`, a.identity.Name, query)
	if conv != nil && conv.Topic != "" {
		prompt += fmt.Sprintf("\n\nConversation topic: %s", conv.Topic)
	}

	result, err := a.generate(ctx, prompt)
	if err != nil {
		return a.failureReply(ctx, err,
			"🔍 My investigation hit a dead end. Even the best detectives need a moment to regroup."), nil
	}

	a.memory.Remember(ctx, "last_query", query, false)

	content := a.decorate(formatResearch(query, result.Content))
	return a.newResponse(content, 0.85,
		"Matched research keywords and produced sourced findings",
		result.Usage,
		domain.Reaction{
			Emoji:      a.pickReaction(domain.ReactSearching),
			Reason:     "Research completed",
			Confidence: 0.85,
		},
	), nil
}

// extractQuery strips common request lead-ins, leaving the core question.
func extractQuery(text string) string {
	query := text
	for _, prefix := range []string{
		"search for", "find out", "research", "look up", "verify", "check if",
	} {
		lower := strings.ToLower(query)
		if strings.HasPrefix(lower, prefix) {
			query = strings.TrimSpace(query[len(prefix):])
		}
	}
	if query == "" {
		return text
	}
	return query
}

func formatResearch(query, findings string) string {
	var b strings.Builder
	b.WriteString("🔍 **Research Results**\n\n")
	b.WriteString(fmt.Sprintf("**Query:** %s\n\n", query))
	b.WriteString(findings)
	b.WriteString("\n\n📚 *Findings verified against available sources*")
	return b.String()
}

var _ domain.Specialist = (*ResearchAgent)(nil)
