package agents

import (
	"math/rand"
	"strings"

	"agentteam/internal/domain"
)

// catchphraseChance is the probability of appending a catchphrase to a
// decorated response.
const catchphraseChance = 0.2

// decorate applies persona randomization to content: an emoji with
// probability equal to the humor trait, and a catchphrase with a fixed
// small probability. Presentation only, no control flow depends on it.
func (b *BaseAgent) decorate(content string) string {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()

	if b.rng.Float64() < b.identity.Personality.Traits.Humor {
		content = content + " " + domain.ReactionFor(domain.ReactPositive, b.rng)
	}
	phrases := b.identity.Personality.CatchPhrases
	if len(phrases) > 0 && b.rng.Float64() < catchphraseChance {
		content = content + "\n\n" + phrases[b.rng.Intn(len(phrases))]
	}
	return content
}

// pickReaction selects an emoji for the kind using the agent's random source.
func (b *BaseAgent) pickReaction(kind domain.ReactionKind) string {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return domain.ReactionFor(kind, b.rng)
}

// React suggests an emoji reaction for a message, or nil when nothing fits:
// high CanHandle confidence wins, then sentiment.
func React(s domain.Specialist, text string, conv *domain.Conversation, rng *rand.Rand) *domain.Reaction {
	if confidence := s.CanHandle(text, conv); confidence > 0.8 {
		return &domain.Reaction{
			Emoji:      domain.ReactionFor(domain.ReactConfident, rng),
			Reason:     "High confidence in handling this request",
			Confidence: confidence,
		}
	}
	switch Sentiment(text) {
	case SentimentPositive:
		return &domain.Reaction{
			Emoji:      domain.ReactionFor(domain.ReactPositive, rng),
			Reason:     "Positive sentiment detected",
			Confidence: 0.7,
		}
	case SentimentQuestion:
		return &domain.Reaction{
			Emoji:      domain.ReactionFor(domain.ReactThinking, rng),
			Reason:     "Question detected",
			Confidence: 0.6,
		}
	}
	return nil
}

// Sentiment classification values.
const (
	SentimentQuestion = "question"
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Word lists are data, not logic; extend per deployment language.
var (
	questionWords = []string{"what", "how", "why", "when", "where", "who", "?"}
	positiveWords = []string{"good", "great", "awesome", "nice", "love", "thank", "happy"}
	negativeWords = []string{"bad", "terrible", "hate", "sad", "angry", "wrong", "error"}
)

// Sentiment runs a simple word-list classification of text.
func Sentiment(text string) string {
	lower := strings.ToLower(text)
	for _, w := range questionWords {
		if strings.Contains(lower, w) {
			return SentimentQuestion
		}
	}
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			return SentimentPositive
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			return SentimentNegative
		}
	}
	return SentimentNeutral
}

// naturalIntros open a proactive, unprompted agent comment.
var naturalIntros = []string{
	"Hey, I can help with that!",
	"Let me give you a tip...",
	"Interesting! About that...",
	"Ah, I know something about this!",
}

// FormatNaturalIntro prefixes content with a casual intro line in the
// agent's voice, for responses nobody explicitly asked for.
func FormatNaturalIntro(identity domain.AgentIdentity, content string, rng *rand.Rand) string {
	intro := naturalIntros[rng.Intn(len(naturalIntros))]
	return identity.Personality.Emoji + " " + intro + "\n\n" + content
}
