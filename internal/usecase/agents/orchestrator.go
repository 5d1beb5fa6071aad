package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"agentteam/internal/domain"
	"agentteam/internal/infra/tracer"
)

var orchestratorIdentity = domain.AgentIdentity{
	ID:   "orchestrator",
	Name: "Maestro",
	Role: "Team Coordinator",
	Personality: domain.Personality{
		Emoji: "🎯",
		Traits: domain.Traits{
			Formality: 0.8,
			Humor:     0.3,
			Verbosity: 0.6,
			Empathy:   0.7,
		},
		CatchPhrases: []string{
			"Let me coordinate the team on this.",
			"Together we are stronger.",
		},
		Specialties: []string{"coordination", "task delegation", "synthesis"},
	},
	Capabilities: domain.Capabilities{
		Text:     true,
		Analysis: true,
	},
}

var orchestratorKeywords = []string{
	"help", "team", "analyze", "multiple", "complex", "coordinate",
}

// Orchestrator decomposes incoming requests across registered specialists
// and aggregates their responses. Specialist registration happens at
// startup; the roster is read-only afterwards and safe for concurrent use.
type Orchestrator struct {
	*BaseAgent
	roster []domain.Specialist
	byID   map[string]domain.Specialist
}

func NewOrchestrator(providerName string, deps Deps) *Orchestrator {
	identity := orchestratorIdentity
	identity.ModelConfig = domain.ModelConfig{
		Provider:    providerName,
		Model:       "default",
		Temperature: 0.4,
		MaxTokens:   1024,
	}
	return &Orchestrator{
		BaseAgent: newBaseAgent(identity, orchestratorKeywords, deps),
		byID:      make(map[string]domain.Specialist),
	}
}

// RegisterSpecialist adds a specialist to the roster. Registration order is
// significant: it fixes delegation order and aggregation order.
func (o *Orchestrator) RegisterSpecialist(s domain.Specialist) error {
	id := s.Identity().ID
	if _, ok := o.byID[id]; ok {
		return domain.NewDomainError("Orchestrator.RegisterSpecialist", domain.ErrDuplicate, id)
	}
	o.byID[id] = s
	o.roster = append(o.roster, s)
	o.logger.Info("specialist registered", "agent", id, "roster_size", len(o.roster))
	return nil
}

// Roster returns the registered specialists in registration order.
func (o *Orchestrator) Roster() []domain.Specialist {
	out := make([]domain.Specialist, len(o.roster))
	copy(out, o.roster)
	return out
}

// CanHandle returns high confidence for multi-topic or coordination-flavored
// requests and a low floor otherwise, so the orchestrator handles anything
// no specialist claims.
func (o *Orchestrator) CanHandle(text string, conv *domain.Conversation) float64 {
	lower := strings.ToLower(text)
	for _, kw := range []string{"help", "team", "analyze", "multiple"} {
		if strings.Contains(lower, kw) {
			return 0.9
		}
	}
	if strings.Contains(lower, " and ") || strings.Contains(text, "&") {
		return 0.9
	}
	if conv != nil && len(conv.Messages) > 5 {
		return 0.9
	}
	return 0.3
}

func (o *Orchestrator) Process(ctx context.Context, text string, conv *domain.Conversation) (*domain.AgentResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "orchestrator.process")
	defer span.End()
	span.SetAttributes(tracer.IntAttr("roster.size", len(o.roster)))

	analysis := o.analyzeTask(ctx, text, conv)
	span.SetAttributes(tracer.IntAttr("delegates", len(analysis.AgentIDs)))

	if len(analysis.AgentIDs) == 1 {
		return o.delegateSingle(ctx, analysis.AgentIDs[0], text, conv), nil
	}

	targets := analysis.AgentIDs
	if len(targets) == 0 {
		// Broad request with no clear owner: the whole roster weighs in.
		for _, s := range o.roster {
			targets = append(targets, s.Identity().ID)
		}
	}
	return o.delegateConcurrent(ctx, targets, text, conv, analysis.Reasoning), nil
}

// analyzeTask asks the model to decompose the request, falling back to
// keyword routing when the call or the parse fails.
func (o *Orchestrator) analyzeTask(ctx context.Context, text string, conv *domain.Conversation) *domain.TaskAnalysis {
	ctx, span := tracer.StartSpan(ctx, "orchestrator.analyze")
	defer span.End()

	known := make(map[string]bool, len(o.byID))
	for id := range o.byID {
		known[id] = true
	}

	result, err := o.generate(ctx, o.decomposePrompt(text, conv))
	if err != nil {
		tracer.RecordError(span, err)
		o.logger.Warn("task analysis model call failed, using keyword routing", "error", err)
		return keywordRoute(text, known)
	}

	analysis, err := parseTaskAnalysis(result.Content, known)
	if err != nil {
		tracer.RecordError(span, err)
		o.logger.Warn("task analysis parse failed, using keyword routing", "error", err)
		return keywordRoute(text, known)
	}
	return analysis
}

func (o *Orchestrator) decomposePrompt(text string, conv *domain.Conversation) string {
	var b strings.Builder
	b.WriteString("You are a team coordinator. Decide which specialists should handle this request.\n\nAvailable specialists:\n")
	for _, s := range o.roster {
		id := s.Identity()
		b.WriteString(fmt.Sprintf("- %s: %s (%s)\n",
			id.ID, id.Role, strings.Join(id.Personality.Specialties, ", ")))
	}
	b.WriteString("\nRespond with ONLY a JSON object of the form:\n")
	b.WriteString(`{"agents": ["id1", "id2"], "reasoning": "why", "tasks": [{"agent": "id1", "task": "subtask"}]}`)
	b.WriteString("\n\nUse an empty agents array if the request is too broad for any one specialist.")
	if conv != nil && conv.Topic != "" {
		b.WriteString("\n\nConversation topic: " + conv.Topic)
	}
	b.WriteString("\n\nRequest: " + text)
	return b.String()
}

// delegateSingle hands the whole request to one specialist and re-wraps the
// response under the orchestrator's identity, attributing the content.
func (o *Orchestrator) delegateSingle(ctx context.Context, agentID, text string, conv *domain.Conversation) *domain.AgentResponse {
	s, ok := o.byID[agentID]
	if !ok {
		return o.fallbackResponse("I could not find the right specialist for this one.")
	}

	resp := o.safeProcess(ctx, s, text, conv)
	if resp == nil {
		return o.fallbackResponse("The specialist handling your request ran into trouble. Please try again.")
	}

	id := s.Identity()
	return &domain.AgentResponse{
		AgentID: o.identity.ID,
		Content: fmt.Sprintf("%s **%s**: %s", id.Personality.Emoji, id.Name, resp.Content),
		Reactions: []domain.Reaction{
			{Emoji: o.pickReaction(domain.ReactSuccess), Reason: "Delegated to " + id.Name, Confidence: resp.Confidence},
		},
		SuggestedAgents: []string{agentID},
		Confidence:      resp.Confidence,
		Reasoning:       "delegated to " + agentID,
		Metadata: domain.ResponseMetadata{
			Model:     resp.Metadata.Model,
			Tokens:    resp.Metadata.Tokens,
			Timestamp: o.now(),
		},
	}
}

// delegateConcurrent fans the request out to the targets, isolating each
// failure, and aggregates the survivors in roster order.
func (o *Orchestrator) delegateConcurrent(ctx context.Context, targets []string, text string, conv *domain.Conversation, reasoning string) *domain.AgentResponse {
	ctx, span := tracer.StartSpan(ctx, "orchestrator.fanout")
	defer span.End()
	span.SetAttributes(tracer.IntAttr("targets", len(targets)))

	// results indexed by roster position keeps aggregation order stable
	// regardless of completion order.
	results := make([]*domain.AgentResponse, len(o.roster))
	position := make(map[string]int, len(o.roster))
	for i, s := range o.roster {
		position[s.Identity().ID] = i
	}

	var wg sync.WaitGroup
	seen := make(map[string]bool, len(targets))
	for _, id := range targets {
		s, ok := o.byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		idx := position[id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[idx] = o.safeProcess(ctx, s, text, conv)
		}()
	}
	wg.Wait()

	var (
		parts      []string
		agentIDs   []string
		confidence float64
		tokens     int
		survivors  int
	)
	for i, resp := range results {
		if resp == nil {
			continue
		}
		id := o.roster[i].Identity()
		parts = append(parts, fmt.Sprintf("**%s %s**:\n%s", id.Personality.Emoji, id.Name, resp.Content))
		agentIDs = append(agentIDs, id.ID)
		confidence += resp.Confidence
		tokens += resp.Metadata.Tokens
		survivors++
	}

	if survivors == 0 {
		return o.fallbackResponse("The whole team is tied up at the moment. Give us a minute and ask again.")
	}
	confidence /= float64(survivors)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎯 **Team Response** (%d agents collaborated)\n\n", survivors))
	b.WriteString(strings.Join(parts, "\n\n"+strings.Repeat("─", 40)+"\n\n"))
	b.WriteString("\n\n💡 *Coordination complete!*")

	return &domain.AgentResponse{
		AgentID: o.identity.ID,
		Content: b.String(),
		Reactions: []domain.Reaction{
			{Emoji: o.pickReaction(domain.ReactLeader), Reason: "Team coordination", Confidence: confidence},
		},
		SuggestedAgents: agentIDs,
		Confidence:      confidence,
		Reasoning:       reasoning,
		Metadata: domain.ResponseMetadata{
			Model:     o.identity.ModelConfig.Model,
			Tokens:    tokens,
			Timestamp: o.now(),
		},
	}
}

// safeProcess invokes a specialist, converting panics and errors into a nil
// result so one bad delegate never takes down the fan-out.
func (o *Orchestrator) safeProcess(ctx context.Context, s domain.Specialist, text string, conv *domain.Conversation) (resp *domain.AgentResponse) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("specialist panicked",
				"agent", s.Identity().ID, "panic", r)
			resp = nil
		}
	}()
	resp, err := s.Process(ctx, text, conv)
	if err != nil {
		o.logger.Warn("specialist returned error",
			"agent", s.Identity().ID, "error", err)
		return nil
	}
	return resp
}

func (o *Orchestrator) fallbackResponse(content string) *domain.AgentResponse {
	return &domain.AgentResponse{
		AgentID:    o.identity.ID,
		Content:    o.identity.Personality.Emoji + " " + content,
		Confidence: 0.3,
		Reactions: []domain.Reaction{
			{Emoji: o.pickReaction(domain.ReactError), Reason: "Coordination fallback", Confidence: 0.3},
		},
		Metadata: domain.ResponseMetadata{
			Model:     o.identity.ModelConfig.Model,
			Timestamp: o.now(),
		},
	}
}

var _ domain.Specialist = (*Orchestrator)(nil)
