package team

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentteam/internal/adapter/provider"
	"agentteam/internal/domain"
	"agentteam/internal/infra/logger"
	"agentteam/internal/usecase/agents"
)

// fakeModel is a scriptable model provider shared by all agents in a test.
type fakeModel struct {
	reply string
	err   error
}

func (f *fakeModel) GenerateText(context.Context, string, domain.GenerateOptions) (*domain.TextResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TextResult{
		Content: f.reply,
		Model:   "fake-model",
		Usage:   domain.Usage{TotalTokens: 42},
	}, nil
}

func (f *fakeModel) GenerateImage(context.Context, string, domain.ImageOptions) (*domain.ImageResult, error) {
	return &domain.ImageResult{Model: "fake-image-model"}, nil
}

func (f *fakeModel) Name() string { return "fake" }

// recordingTransport captures outbound delivery for assertions. Delivery is
// asynchronous; sent signals each completed SendText.
type recordingTransport struct {
	mu     sync.Mutex
	texts  []string
	typing []time.Duration
	emojis []string
	sent   chan struct{}
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{sent: make(chan struct{}, 16)}
}

func (r *recordingTransport) SendText(_ context.Context, _, text string) error {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
	r.sent <- struct{}{}
	return nil
}

func (r *recordingTransport) ShowTyping(_ context.Context, _ string, d time.Duration) error {
	r.mu.Lock()
	r.typing = append(r.typing, d)
	r.mu.Unlock()
	return nil
}

func (r *recordingTransport) React(_ context.Context, _, _, emoji string) error {
	r.mu.Lock()
	r.emojis = append(r.emojis, emoji)
	r.mu.Unlock()
	return nil
}

func (r *recordingTransport) waitSent(t *testing.T) string {
	t.Helper()
	select {
	case <-r.sent:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for transport delivery")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.texts[len(r.texts)-1]
}

// panicker is a roster member that explodes on contact.
type panicker struct{}

func (panicker) Identity() domain.AgentIdentity {
	return domain.AgentIdentity{ID: "boom", Name: "Boom"}
}
func (panicker) CanHandle(string, *domain.Conversation) float64 { return 0 }
func (panicker) Process(context.Context, string, *domain.Conversation) (*domain.AgentResponse, error) {
	panic("kaboom")
}
func (panicker) ShouldInterrupt(*domain.Conversation) bool { return false }
func (panicker) TypingDuration(int) time.Duration          { return time.Second }

func newTestTeam(t *testing.T, model *fakeModel, opts ...Option) *Team {
	t.Helper()
	reg := provider.NewRegistry()
	require.NoError(t, reg.Register(model))

	deps := agents.Deps{
		Providers: reg,
		Logger:    logger.Discard(),
		Rand:      rand.New(rand.NewSource(1)),
	}
	orch := agents.NewOrchestrator("fake", deps)
	for _, s := range agents.NewRoster("fake", deps) {
		require.NoError(t, orch.RegisterSpecialist(s))
	}
	require.NoError(t, orch.RegisterSpecialist(panicker{}))

	store := NewStore("en", 0, logger.Discard())
	return New(orch, store, logger.Discard(), opts...)
}

func TestHandleIncomingSingleTopicRoutesToMath(t *testing.T) {
	// Non-JSON model output forces deterministic keyword routing; the same
	// reply then becomes the specialist's answer.
	tm := newTestTeam(t, &fakeModel{reply: "Step 1: add\nThe answer is 4"})

	resp := tm.HandleIncoming(context.Background(), Request{
		ConversationID: "c1", SenderID: "alice", Text: "calculate 2 + 2",
	})

	require.NotNil(t, resp)
	assert.GreaterOrEqual(t, resp.Confidence, 0.9)
	assert.Contains(t, resp.Content, "Newton")
	assert.Contains(t, resp.Content, "**Step 1:**")
	assert.NotContains(t, resp.Content, "Team Response")
}

func TestHandleIncomingMultiTopicFansOut(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "some answer"})

	resp := tm.HandleIncoming(context.Background(), Request{
		ConversationID: "c1", SenderID: "alice",
		Text: "write code and calculate the complexity",
	})

	require.NotNil(t, resp)
	assert.Contains(t, resp.Content, "🎯 **Team Response** (2 agents collaborated)")
	assert.Contains(t, resp.Content, "Dev")
	assert.Contains(t, resp.Content, "Newton")
	assert.InDelta(t, (0.9+0.95)/2, resp.Confidence, 0.001)
}

func TestHandleIncomingRecordsConversationState(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "Step 1: trivial\n4"})

	tm.HandleIncoming(context.Background(), Request{
		ConversationID: "c1", SenderID: "alice",
		Text: "please calculate something simple",
	})

	conv := tm.store.Get("c1")
	require.NotNil(t, conv)
	assert.Len(t, conv.Messages, 1)
	assert.NotEmpty(t, conv.Messages[0].ID, "missing message ids are generated")
	assert.Equal(t, []string{"alice"}, conv.Participants)
	assert.Equal(t, "please calculate something", conv.Topic)
	assert.Equal(t, domain.MoodPositive, conv.Mood, "high-confidence reply lifts the mood")
}

func TestHandleIncomingLowConfidenceSinksMood(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{err: assert.AnError})

	tm.HandleIncoming(context.Background(), Request{
		ConversationID: "c1", SenderID: "alice", Text: "calculate 2 + 2",
	})

	assert.Equal(t, domain.MoodNegative, tm.store.Get("c1").Mood)
}

func TestHandleIncomingExplicitAgent(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "a short poem"})

	resp := tm.HandleIncoming(context.Background(), Request{
		ConversationID: "c1", SenderID: "alice", Text: "@creative a poem about rain",
	})

	require.NotNil(t, resp)
	assert.Equal(t, "creative", resp.AgentID)
	assert.Contains(t, resp.Content, "Creative Corner")
}

func TestHandleIncomingExplicitAgentField(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "a short poem"})

	resp := tm.HandleIncoming(context.Background(), Request{
		ConversationID: "c1", SenderID: "alice",
		Text: "a poem about rain", ExplicitAgent: "creative",
	})

	require.NotNil(t, resp)
	assert.Equal(t, "creative", resp.AgentID)
}

func TestSuggestReaction(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "unused"})

	assert.Nil(t, tm.SuggestReaction("missing", "m0"))

	tm.store.Record("c1", domain.ChatMessage{ID: "m1", Sender: "alice", Text: "solve this equation: 2x + 4 = 10", Timestamp: time.Now()})
	r := tm.SuggestReaction("c1", "m1")
	require.NotNil(t, r)
	assert.NotEmpty(t, r.Emoji)
	assert.Greater(t, r.Confidence, 0.8, "high CanHandle drives the reaction")
}

func TestHandleIncomingUnknownExplicitAgent(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "unused"})

	resp := tm.HandleIncoming(context.Background(), Request{
		ConversationID: "c1", SenderID: "alice", Text: "@astrologer my horoscope",
	})

	require.NotNil(t, resp)
	assert.Contains(t, resp.Content, `"astrologer" not found`)
	assert.Contains(t, resp.Content, "research")
	assert.Contains(t, resp.Content, "math")
	assert.Equal(t, 0.3, resp.Confidence)
}

func TestHandleIncomingPanicYieldsApology(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "unused"})

	resp := tm.HandleIncoming(context.Background(), Request{
		ConversationID: "c1", SenderID: "alice", Text: "@boom hello",
	})

	require.NotNil(t, resp)
	assert.Contains(t, resp.Content, "❌ Oops!")
	assert.Equal(t, 0.1, resp.Confidence)
}

func TestHandleIncomingDeliversOverTransport(t *testing.T) {
	transport := newRecordingTransport()
	tm := newTestTeam(t, &fakeModel{reply: "Step 1: done"}, WithTransport(transport))

	resp := tm.HandleIncoming(context.Background(), Request{
		ConversationID: "c1", SenderID: "alice", Text: "calculate 2 + 2",
	})

	sent := transport.waitSent(t)
	assert.Equal(t, resp.Content, sent)

	transport.mu.Lock()
	defer transport.mu.Unlock()
	require.Len(t, transport.typing, 1)
	assert.Greater(t, transport.typing[0], time.Duration(0))
	assert.LessOrEqual(t, transport.typing[0], 8*time.Second)
}

func TestTypingBoundedByCap(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: string(make([]byte, 4000))})

	resp := tm.HandleIncoming(context.Background(), Request{
		ConversationID: "c1", SenderID: "alice", Text: "calculate 2 + 2",
	})
	assert.Equal(t, 8*time.Second, resp.Typing)
}

func TestShouldIntervene(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "unused"})

	assert.False(t, tm.ShouldIntervene("missing"))

	tm.store.Record("c1", domain.ChatMessage{ID: "m1", Sender: "alice", Text: "lovely sunset tonight", Timestamp: time.Now()})
	assert.False(t, tm.ShouldIntervene("c1"))

	tm.store.Record("c1", domain.ChatMessage{ID: "m2", Sender: "alice", Text: "can someone debug this", Timestamp: time.Now()})
	assert.True(t, tm.ShouldIntervene("c1"), "agent keyword triggers intervention")

	tm.store.Record("c2", domain.ChatMessage{ID: "m3", Sender: "bob", Text: "não entendi nada disso", Timestamp: time.Now()})
	assert.True(t, tm.ShouldIntervene("c2"), "confusion phrase triggers intervention")
}

func TestSelectBestVolunteer(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "unused"})

	tm.store.Record("c1", domain.ChatMessage{ID: "m1", Sender: "alice", Text: "solve this equation: 2x + 4 = 10", Timestamp: time.Now()})

	best, score := tm.SelectBestVolunteer("c1")
	require.NotNil(t, best)
	assert.Equal(t, "math", best.Identity().ID)
	assert.Greater(t, score, 0.5)

	none, zero := tm.SelectBestVolunteer("missing")
	assert.Nil(t, none)
	assert.Zero(t, zero)
}

func TestComposeNaturalReply(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "Step 1: isolate x\nx = 3"})

	tm.store.Record("c1", domain.ChatMessage{ID: "m1", Sender: "alice", Text: "solve this equation: 2x + 4 = 10", Timestamp: time.Now()})

	resp := tm.ComposeNaturalReply(context.Background(), "c1")
	require.NotNil(t, resp)
	assert.Contains(t, resp.Content, "🔢", "intro carries the volunteer's emoji")

	tm.store.Record("c2", domain.ChatMessage{ID: "m2", Sender: "alice", Text: "mmm hmm", Timestamp: time.Now()})
	assert.Nil(t, tm.ComposeNaturalReply(context.Background(), "c2"), "no volunteer clears the bar")
}

// evictDuringScore empties the store while it is being scored, mimicking the
// idle sweeper firing between volunteer selection and reply composition.
type evictDuringScore struct {
	store *Store
}

func (e *evictDuringScore) Identity() domain.AgentIdentity {
	return domain.AgentIdentity{ID: "drifter", Name: "Drifter"}
}

func (e *evictDuringScore) CanHandle(string, *domain.Conversation) float64 {
	e.store.SetClock(func() time.Time { return time.Now().Add(48 * time.Hour) })
	e.store.EvictIdle(time.Hour)
	return 0.9
}

func (e *evictDuringScore) Process(context.Context, string, *domain.Conversation) (*domain.AgentResponse, error) {
	return &domain.AgentResponse{AgentID: "drifter", Content: "hi", Confidence: 0.9}, nil
}

func (e *evictDuringScore) ShouldInterrupt(*domain.Conversation) bool { return false }
func (e *evictDuringScore) TypingDuration(int) time.Duration          { return time.Second }

func TestComposeNaturalReplySurvivesMidflightEviction(t *testing.T) {
	reg := provider.NewRegistry()
	require.NoError(t, reg.Register(&fakeModel{reply: "unused"}))
	deps := agents.Deps{Providers: reg, Logger: logger.Discard(), Rand: rand.New(rand.NewSource(1))}
	orch := agents.NewOrchestrator("fake", deps)

	store := NewStore("en", 0, logger.Discard())
	require.NoError(t, orch.RegisterSpecialist(&evictDuringScore{store: store}))
	tm := New(orch, store, logger.Discard())

	store.Record("c1", domain.ChatMessage{ID: "m1", Sender: "alice", Text: "hello there", Timestamp: time.Now()})
	assert.Nil(t, tm.ComposeNaturalReply(context.Background(), "c1"),
		"a conversation evicted after selection yields no reply")
}

func TestListAgentsStable(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "unused"})

	first := tm.ListAgents()
	second := tm.ListAgents()
	assert.Equal(t, first, second)

	require.Len(t, first, 7)
	assert.Equal(t, "research", first[0].ID)
	assert.Equal(t, "visual", first[4].ID)
	assert.Equal(t, "orchestrator", first[len(first)-1].ID)
}

func TestEvictionLoopLifecycle(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "unused"}, WithIdleTTL(time.Hour))

	require.NoError(t, tm.StartEvictionLoop("@every 1h"))
	tm.Close()
}

func TestEvictionLoopRejectsBadSchedule(t *testing.T) {
	tm := newTestTeam(t, &fakeModel{reply: "unused"})
	assert.Error(t, tm.StartEvictionLoop("not a schedule"))
}
