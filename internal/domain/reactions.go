package domain

import "math/rand"

// ReactionKind names a family of emoji reactions.
type ReactionKind string

const (
	ReactThinking    ReactionKind = "thinking"
	ReactConfident   ReactionKind = "confident"
	ReactPositive    ReactionKind = "positive"
	ReactNegative    ReactionKind = "negative"
	ReactConfused    ReactionKind = "confused"
	ReactWorking     ReactionKind = "working"
	ReactSuccess     ReactionKind = "success"
	ReactSearching   ReactionKind = "searching"
	ReactVerified    ReactionKind = "verified"
	ReactCalculating ReactionKind = "calculating"
	ReactCode        ReactionKind = "code"
	ReactImage       ReactionKind = "image"
	ReactSparkles    ReactionKind = "sparkles"
	ReactCreative    ReactionKind = "creative"
	ReactLeader      ReactionKind = "leader"
	ReactError       ReactionKind = "error"
)

// reactionEmojis maps each kind to its candidate emojis. Language- and
// persona-specific glyphs are data, not logic.
var reactionEmojis = map[ReactionKind][]string{
	ReactThinking:    {"🤔", "💭", "🧠"},
	ReactConfident:   {"💪", "✅", "🎯"},
	ReactPositive:    {"😊", "👍", "🎉"},
	ReactNegative:    {"😔", "😟", "😢"},
	ReactConfused:    {"❓", "🤷", "😕"},
	ReactWorking:     {"⚙️", "🔧", "🛠️"},
	ReactSuccess:     {"✅", "🎊", "🌟"},
	ReactSearching:   {"🔍", "🔎"},
	ReactVerified:    {"✅", "☑️"},
	ReactCalculating: {"🔢", "🧮"},
	ReactCode:        {"💻", "⌨️"},
	ReactImage:       {"🖼️", "📷"},
	ReactSparkles:    {"✨", "🌟"},
	ReactCreative:    {"🎨", "🖌️"},
	ReactLeader:      {"🎯", "🧭"},
	ReactError:       {"❌", "⚠️"},
}

// ReactionFor picks an emoji for the kind using the given random source.
// Unknown kinds fall back to a thumbs-up.
func ReactionFor(kind ReactionKind, rng *rand.Rand) string {
	emojis, ok := reactionEmojis[kind]
	if !ok || len(emojis) == 0 {
		return "👍"
	}
	return emojis[rng.Intn(len(emojis))]
}
