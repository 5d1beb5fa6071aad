package agents

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentimentClassification(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"what is this", SentimentQuestion},
		{"this is great, thank you", SentimentPositive},
		{"that went terrible and wrong", SentimentNegative},
		{"the sky exists", SentimentNeutral},
		{"", SentimentNeutral},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Sentiment(tc.text), tc.text)
	}
}

func TestReactHighConfidence(t *testing.T) {
	a := NewMathAgent("fake", testDeps(&fakeProvider{name: "fake"}))
	rng := rand.New(rand.NewSource(1))

	r := React(a, "solve this equation: 2 + 2 = ?", nil, rng)
	require.NotNil(t, r)
	assert.Greater(t, r.Confidence, 0.8)
	assert.NotEmpty(t, r.Emoji)
}

func TestReactSentimentFallback(t *testing.T) {
	a := NewMathAgent("fake", testDeps(&fakeProvider{name: "fake"}))
	rng := rand.New(rand.NewSource(1))

	r := React(a, "thank you, that was great", nil, rng)
	require.NotNil(t, r)
	assert.Equal(t, 0.7, r.Confidence)

	assert.Nil(t, React(a, "the sky exists", nil, rng))
}

func TestFormatNaturalIntroCarriesEmoji(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	out := FormatNaturalIntro(mathIdentity, "the answer", rng)
	assert.Contains(t, out, "🔢")
	assert.Contains(t, out, "the answer")
}

func TestDecorateIsDeterministicPerSeed(t *testing.T) {
	a1 := NewCreativeAgent("fake", testDeps(&fakeProvider{name: "fake"}))
	a2 := NewCreativeAgent("fake", testDeps(&fakeProvider{name: "fake"}))

	assert.Equal(t, a1.decorate("hello"), a2.decorate("hello"))
}
