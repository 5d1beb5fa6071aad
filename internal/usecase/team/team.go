package team

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"

	"agentteam/internal/domain"
	"agentteam/internal/infra/tracer"
	"agentteam/internal/usecase/agents"
)

// transport delivery waits at most this long for typing simulation.
const maxTypingDelay = 8 * time.Second

// confusionPhrases trigger team intervention independently of any single
// agent's keywords.
var confusionPhrases = []string{"?", "help", "ajuda", "não entendi", "confused"}

// Request is one inbound message for the team to handle. ExplicitAgent
// bypasses orchestration and dispatches straight to that specialist; the
// "@agentid text" message form does the same.
type Request struct {
	ConversationID string
	SenderID       string
	MessageID      string // generated when empty
	Text           string
	ExplicitAgent  string
}

// Team fronts the agent roster: it records conversation state, routes each
// request to an explicit agent or the orchestrator, and delivers the reply
// over the transport.
type Team struct {
	orch      *agents.Orchestrator
	roster    []domain.Specialist
	byID      map[string]domain.Specialist
	store     *Store
	transport domain.TransportSender
	cron      *cron.Cron
	idleTTL   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	rngMu   sync.Mutex
	rng     *rand.Rand
	entropy *ulid.MonotonicEntropy
}

// Option configures optional Team collaborators.
type Option func(*Team)

// WithTransport sets the outbound delivery channel. Without one, responses
// are only returned to the caller.
func WithTransport(t domain.TransportSender) Option {
	return func(tm *Team) { tm.transport = t }
}

// WithIdleTTL sets the idle-conversation eviction threshold.
func WithIdleTTL(ttl time.Duration) Option {
	return func(tm *Team) { tm.idleTTL = ttl }
}

// WithClock replaces the time source. For tests.
func WithClock(now func() time.Time) Option {
	return func(tm *Team) {
		tm.now = now
		tm.store.SetClock(now)
	}
}

// New assembles a team around an orchestrator and its registered roster.
func New(orch *agents.Orchestrator, store *Store, logger *slog.Logger, opts ...Option) *Team {
	roster := orch.Roster()
	byID := make(map[string]domain.Specialist, len(roster))
	for _, s := range roster {
		byID[s.Identity().ID] = s
	}
	now := time.Now
	rng := rand.New(rand.NewSource(now().UnixNano()))
	t := &Team{
		orch:    orch,
		roster:  roster,
		byID:    byID,
		store:   store,
		idleTTL: 24 * time.Hour,
		logger:  logger,
		now:     now,
		rng:     rng,
		entropy: ulid.Monotonic(rng, 0),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// HandleIncoming processes one message end to end: record it, route it,
// update mood and memory, deliver the reply. It never returns an error to
// the transport layer; every failure path produces an apologetic response.
func (t *Team) HandleIncoming(ctx context.Context, req Request) (resp *domain.AgentResponse) {
	ctx, span := tracer.StartSpan(ctx, "team.handle")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("conversation", req.ConversationID))

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("request handling panicked",
				"conversation", req.ConversationID, "panic", r)
			resp = t.apology()
		}
		if resp != nil {
			t.deliver(req, resp)
		}
	}()

	ctx = domain.WithCaller(ctx, req.SenderID)
	if req.MessageID == "" {
		req.MessageID = t.newMessageID()
	}

	conv := t.store.Record(req.ConversationID, domain.ChatMessage{
		ID:        req.MessageID,
		Sender:    req.SenderID,
		Text:      req.Text,
		Timestamp: t.now(),
	})

	text, explicitID := splitExplicitAgent(req.Text)
	if req.ExplicitAgent != "" {
		text, explicitID = req.Text, req.ExplicitAgent
	}
	if explicitID != "" {
		resp = t.dispatchExplicit(ctx, explicitID, text, conv)
	} else {
		var err error
		resp, err = t.orch.Process(ctx, req.Text, conv)
		if err != nil {
			t.logger.Error("orchestrator failed", "error", err)
			resp = t.apology()
		}
	}

	resp.Typing = t.typingFor(resp)
	t.store.UpdateMood(req.ConversationID, resp.Confidence)
	t.orch.Memory().Remember(ctx, "last_response_"+req.ConversationID, resp.Content, true)
	return resp
}

// newMessageID mints a ULID under the rng lock; monotonic entropy is not
// safe for concurrent readers.
func (t *Team) newMessageID() string {
	t.rngMu.Lock()
	defer t.rngMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t.now()), t.entropy).String()
}

// splitExplicitAgent recognizes the "@agentid rest of message" addressing
// form. It returns the remaining text and the agent id, or "" when the
// message is not explicitly addressed.
func splitExplicitAgent(text string) (string, string) {
	if !strings.HasPrefix(text, "@") {
		return text, ""
	}
	rest := text[1:]
	sep := strings.IndexAny(rest, " \t\n")
	if sep < 0 {
		return "", rest
	}
	return strings.TrimSpace(rest[sep:]), rest[:sep]
}

func (t *Team) dispatchExplicit(ctx context.Context, agentID, text string, conv *domain.Conversation) *domain.AgentResponse {
	s, ok := t.byID[agentID]
	if !ok {
		ids := make([]string, 0, len(t.roster))
		for _, sp := range t.roster {
			ids = append(ids, sp.Identity().ID)
		}
		return &domain.AgentResponse{
			AgentID:    t.orch.Identity().ID,
			Content:    fmt.Sprintf("🤷 Agent %q not found. Valid agents: %s", agentID, strings.Join(ids, ", ")),
			Confidence: 0.3,
			Metadata:   domain.ResponseMetadata{Timestamp: t.now()},
		}
	}
	resp, err := s.Process(ctx, text, conv)
	if err != nil {
		t.logger.Error("explicit dispatch failed", "agent", agentID, "error", err)
		return t.apology()
	}
	return resp
}

func (t *Team) typingFor(resp *domain.AgentResponse) time.Duration {
	responder, ok := t.byID[resp.AgentID]
	if !ok {
		responder = t.orch
	}
	d := responder.TypingDuration(len(resp.Content))
	if d > maxTypingDelay {
		return maxTypingDelay
	}
	return d
}

// deliver pushes the response out over the transport, typing first. Fire and
// forget: delivery runs in its own goroutine and transport errors are only
// logged.
func (t *Team) deliver(req Request, resp *domain.AgentResponse) {
	if t.transport == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), maxTypingDelay+30*time.Second)
		defer cancel()
		if err := t.transport.ShowTyping(ctx, req.ConversationID, resp.Typing); err != nil {
			t.logger.Warn("typing indicator failed", "conversation", req.ConversationID, "error", err)
		}
		if err := t.transport.SendText(ctx, req.ConversationID, resp.Content); err != nil {
			t.logger.Warn("send failed", "conversation", req.ConversationID, "error", err)
		}
		for _, r := range resp.Reactions {
			if err := t.transport.React(ctx, req.ConversationID, req.MessageID, r.Emoji); err != nil {
				t.logger.Warn("reaction failed", "conversation", req.ConversationID, "error", err)
			}
		}
	}()
}

func (t *Team) apology() *domain.AgentResponse {
	return &domain.AgentResponse{
		AgentID:    t.orch.Identity().ID,
		Content:    "❌ Oops! Something went wrong on our side. Please try again in a moment.",
		Confidence: 0.1,
		Metadata:   domain.ResponseMetadata{Timestamp: t.now()},
	}
}

// ShouldIntervene reports whether the team should volunteer a reply to a
// conversation nobody addressed it in: any roster agent wants to interrupt,
// or the last message reads confused.
func (t *Team) ShouldIntervene(conversationID string) bool {
	conv := t.store.Get(conversationID)
	if conv == nil || len(conv.Messages) == 0 {
		return false
	}
	for _, s := range t.roster {
		if s.ShouldInterrupt(conv) {
			return true
		}
	}
	last := strings.ToLower(conv.LastMessage())
	for _, phrase := range confusionPhrases {
		if strings.Contains(last, phrase) {
			return true
		}
	}
	return false
}

// SelectBestVolunteer returns the roster agent with the strictly highest
// CanHandle score for the conversation's last message. Ties resolve to the
// earlier roster position.
func (t *Team) SelectBestVolunteer(conversationID string) (domain.Specialist, float64) {
	conv := t.store.Get(conversationID)
	if conv == nil {
		return nil, 0
	}
	text := conv.LastMessage()
	var best domain.Specialist
	var bestScore float64
	for _, s := range t.roster {
		if score := s.CanHandle(text, conv); score > bestScore {
			best, bestScore = s, score
		}
	}
	return best, bestScore
}

// ComposeNaturalReply lets the best volunteer answer unprompted, prefixed
// with a casual intro. Returns nil when no agent clears the bar.
func (t *Team) ComposeNaturalReply(ctx context.Context, conversationID string) *domain.AgentResponse {
	best, score := t.SelectBestVolunteer(conversationID)
	if best == nil || score <= 0.5 {
		return nil
	}
	// The eviction sweeper may have removed the conversation since the
	// volunteer was selected.
	conv := t.store.Get(conversationID)
	if conv == nil {
		return nil
	}
	resp, err := best.Process(ctx, conv.LastMessage(), conv)
	if err != nil {
		t.logger.Warn("natural reply failed", "agent", best.Identity().ID, "error", err)
		return nil
	}
	t.rngMu.Lock()
	resp.Content = agents.FormatNaturalIntro(best.Identity(), resp.Content, t.rng)
	t.rngMu.Unlock()
	return resp
}

// SuggestReaction picks an ambient emoji reaction to the conversation's last
// message: the best volunteer's suggestion wins. When a transport is
// configured and messageID is set, the reaction is also delivered. Returns
// nil when no agent has anything to say.
func (t *Team) SuggestReaction(conversationID, messageID string) *domain.Reaction {
	conv := t.store.Get(conversationID)
	if conv == nil || len(conv.Messages) == 0 {
		return nil
	}
	text := conv.LastMessage()

	var best *domain.Reaction
	for _, s := range t.roster {
		t.rngMu.Lock()
		r := agents.React(s, text, conv, t.rng)
		t.rngMu.Unlock()
		if r != nil && (best == nil || r.Confidence > best.Confidence) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	if t.transport != nil && messageID != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := t.transport.React(ctx, conversationID, messageID, best.Emoji); err != nil {
				t.logger.Warn("ambient reaction failed", "conversation", conversationID, "error", err)
			}
		}()
	}
	return best
}

// ListAgents returns a stable snapshot of the roster, orchestrator last.
func (t *Team) ListAgents() []domain.AgentInfo {
	infos := make([]domain.AgentInfo, 0, len(t.roster)+1)
	for _, s := range t.roster {
		infos = append(infos, agentInfo(s.Identity()))
	}
	infos = append(infos, agentInfo(t.orch.Identity()))
	return infos
}

func agentInfo(id domain.AgentIdentity) domain.AgentInfo {
	return domain.AgentInfo{
		ID:           id.ID,
		Name:         id.Name,
		Role:         id.Role,
		Emoji:        id.Personality.Emoji,
		Capabilities: id.Capabilities,
		Specialties:  id.Personality.Specialties,
	}
}

// StartEvictionLoop schedules periodic idle-conversation eviction.
func (t *Team) StartEvictionLoop(schedule string) error {
	t.cron = cron.New()
	_, err := t.cron.AddFunc(schedule, func() {
		t.store.EvictIdle(t.idleTTL)
	})
	if err != nil {
		return fmt.Errorf("schedule eviction: %w", err)
	}
	t.cron.Start()
	return nil
}

// Close stops background work and waits for running jobs to finish.
func (t *Team) Close() {
	if t.cron != nil {
		<-t.cron.Stop().Done()
	}
}
