package agents

import (
	"context"
	"fmt"
	"strings"

	"agentteam/internal/domain"
)

var visualIdentity = domain.AgentIdentity{
	ID:   "visual",
	Name: "Picasso",
	Role: "Visual Artist",
	Personality: domain.Personality{
		Emoji: "🖼️",
		Traits: domain.Traits{
			Formality: 0.3,
			Humor:     0.7,
			Verbosity: 0.5,
			Empathy:   0.6,
		},
		CatchPhrases: []string{
			"A picture is worth a thousand words.",
			"I paint objects as I think them.",
			"Every image tells a story.",
		},
		Specialties: []string{"image generation", "image description", "visual composition"},
	},
	Capabilities: domain.Capabilities{
		Text:  true,
		Image: true,
	},
}

var visualKeywords = []string{
	"image", "picture", "draw", "illustration", "photo",
	"painting", "sketch", "render", "visualize", "logo", "design",
}

// generationVerbs distinguish "make me an image" from "what is in this image".
var generationVerbs = []string{"generate", "create", "draw", "make", "paint", "render"}

// VisualAgent generates images when the provider supports it and describes
// visual requests in text otherwise.
type VisualAgent struct {
	*BaseAgent
}

func NewVisualAgent(providerName string, deps Deps) *VisualAgent {
	identity := visualIdentity
	identity.ModelConfig = domain.ModelConfig{
		Provider:    providerName,
		Model:       "default",
		Temperature: 0.8,
		MaxTokens:   1024,
	}
	return &VisualAgent{newBaseAgent(identity, visualKeywords, deps)}
}

// CanHandle scores visual keyword hits at 0.35 each.
func (a *VisualAgent) CanHandle(text string, _ *domain.Conversation) float64 {
	return a.scoreKeywords(text, 0.35)
}

func (a *VisualAgent) Process(ctx context.Context, text string, conv *domain.Conversation) (*domain.AgentResponse, error) {
	if wantsGeneration(text) {
		return a.processGenerate(ctx, text)
	}
	return a.processDescribe(ctx, text)
}

func wantsGeneration(text string) bool {
	lower := strings.ToLower(text)
	for _, v := range generationVerbs {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}

func (a *VisualAgent) processGenerate(ctx context.Context, text string) (*domain.AgentResponse, error) {
	imagePrompt := extractImagePrompt(text)

	gen, err := a.imageGenerator(ctx)
	if err != nil {
		return a.failureReply(ctx, err,
			"🖼️ My canvas is unavailable right now. The gallery will reopen shortly."), nil
	}

	result, err := gen.GenerateImage(ctx, imagePrompt, domain.ImageOptions{})
	if err != nil {
		return a.failureReply(ctx, err,
			"🖼️ The brush slipped mid-stroke. Let me clean up and try that painting again later."), nil
	}

	a.memory.Remember(ctx, "last_image_prompt", imagePrompt, true)

	content := a.decorate(fmt.Sprintf(
		"🖼️ **Image Generated**\n\n**Prompt:** %s\n\n🎨 *Rendered with %s*",
		imagePrompt, result.Model))
	resp := a.newResponse(content, 0.95,
		"Image generation request detected",
		domain.Usage{},
		domain.Reaction{
			Emoji:      a.pickReaction(domain.ReactImage),
			Reason:     "Image generated",
			Confidence: 0.95,
		},
	)
	return resp, nil
}

func (a *VisualAgent) processDescribe(ctx context.Context, text string) (*domain.AgentResponse, error) {
	prompt := fmt.Sprintf(`You are %s, an expressive visual artist.
The user has a visual question or wants help thinking through imagery.
Respond with a rich, concrete visual description or guidance.

Request: %s`, a.identity.Name, text)

	result, err := a.generate(ctx, prompt)
	if err != nil {
		return a.failureReply(ctx, err,
			"🖼️ My artistic eye is resting. Check back when the light is better."), nil
	}

	content := a.decorate("🖼️ **Visual Analysis**\n\n" + result.Content)
	return a.newResponse(content, 0.85,
		"Visual description request detected",
		result.Usage,
		domain.Reaction{
			Emoji:      a.pickReaction(domain.ReactImage),
			Reason:     "Visual analysis provided",
			Confidence: 0.85,
		},
	), nil
}

// imageGenerator resolves the configured provider's image capability, with
// admission control applied before the call is handed out.
func (a *VisualAgent) imageGenerator(ctx context.Context) (domain.ImageGenerator, error) {
	cfg := a.identity.ModelConfig
	if a.limiter != nil {
		caller := domain.CallerFromContext(ctx)
		if !a.limiter.Allow(caller, cfg.Provider) {
			return nil, domain.NewDomainError(a.identity.ID+".image", domain.ErrRateLimited, cfg.Provider)
		}
	}
	p, err := a.providers.Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	gen, ok := p.(domain.ImageGenerator)
	if !ok {
		return nil, domain.NewDomainError(a.identity.ID+".image", domain.ErrProviderError,
			"provider "+cfg.Provider+" cannot generate images")
	}
	return gen, nil
}

// extractImagePrompt removes the request verb phrasing, keeping the scene.
func extractImagePrompt(text string) string {
	prompt := strings.TrimSpace(text)
	lower := strings.ToLower(prompt)
	for _, lead := range []string{
		"generate an image of", "generate image of", "create an image of",
		"draw me", "draw a", "draw", "make an image of", "paint",
	} {
		if strings.HasPrefix(lower, lead) {
			prompt = strings.TrimSpace(prompt[len(lead):])
			break
		}
	}
	if prompt == "" {
		return text
	}
	return prompt
}

var _ domain.Specialist = (*VisualAgent)(nil)
