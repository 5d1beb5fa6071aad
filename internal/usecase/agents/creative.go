package agents

import (
	"context"
	"fmt"
	"strings"

	"agentteam/internal/domain"
)

var creativeIdentity = domain.AgentIdentity{
	ID:   "creative",
	Name: "Artista",
	Role: "Creative Writer",
	Personality: domain.Personality{
		Emoji: "🎨",
		Traits: domain.Traits{
			Formality: 0.2,
			Humor:     0.8,
			Verbosity: 0.9,
			Empathy:   0.8,
		},
		CatchPhrases: []string{
			"Let the imagination flow! ✨",
			"Every blank page is a new world.",
			"Art is never finished, only abandoned.",
		},
		Specialties: []string{"storytelling", "poetry", "brainstorming", "worldbuilding"},
	},
	Capabilities: domain.Capabilities{
		Text:     true,
		Creative: true,
	},
}

var creativeKeywords = []string{
	"story", "poem", "creative", "imagine", "invent",
	"write a", "fiction", "character", "plot", "lyrics",
	"brainstorm", "idea",
}

// CreativeAgent produces stories, poems and other imaginative writing.
type CreativeAgent struct {
	*BaseAgent
}

func NewCreativeAgent(providerName string, deps Deps) *CreativeAgent {
	identity := creativeIdentity
	identity.ModelConfig = domain.ModelConfig{
		Provider:    providerName,
		Model:       "default",
		Temperature: 0.9,
		MaxTokens:   2048,
	}
	return &CreativeAgent{newBaseAgent(identity, creativeKeywords, deps)}
}

// CanHandle scores keyword hits at 0.3 each with a +0.5 bonus for the
// classic storytelling opener.
func (a *CreativeAgent) CanHandle(text string, _ *domain.Conversation) float64 {
	confidence := a.scoreKeywords(text, 0.3)
	if strings.Contains(strings.ToLower(text), "once upon") {
		confidence += 0.5
	}
	return clamp01(confidence)
}

func (a *CreativeAgent) Process(ctx context.Context, text string, conv *domain.Conversation) (*domain.AgentResponse, error) {
	prompt := fmt.Sprintf(`You are %s, a vivid and playful creative writer.
Fulfill the following creative request with originality and flair. Match the
tone the request implies.

Request: %s`, a.identity.Name, text)
	if conv != nil && conv.Mood == domain.MoodNegative {
		prompt += "\n\nThe conversation mood is down; keep the tone gentle and uplifting."
	}

	result, err := a.generate(ctx, prompt)
	if err != nil {
		return a.failureReply(ctx, err,
			"🎨 The muse has gone quiet for a moment. Inspiration will strike again soon!"), nil
	}

	content := a.decorate(formatCreative(result.Content))
	return a.newResponse(content, 0.88,
		"Matched creative-writing keywords",
		result.Usage,
		domain.Reaction{
			Emoji:      a.pickReaction(domain.ReactCreative),
			Reason:     "Creative piece composed",
			Confidence: 0.88,
		},
	), nil
}

func formatCreative(piece string) string {
	var b strings.Builder
	b.WriteString("🎨 **Creative Corner**\n\n")
	b.WriteString(piece)
	b.WriteString("\n\n✨ *Crafted with imagination*")
	return b.String()
}

var _ domain.Specialist = (*CreativeAgent)(nil)
