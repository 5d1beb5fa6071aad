package agents

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"agentteam/internal/adapter/provider"
	"agentteam/internal/domain"
	"agentteam/internal/infra/logger"
	"agentteam/internal/usecase/ratelimit"
)

// fakeProvider is a scriptable in-memory model provider.
type fakeProvider struct {
	name     string
	reply    string
	err      error
	imageErr error

	mu      sync.Mutex
	prompts []string
}

func (f *fakeProvider) GenerateText(_ context.Context, prompt string, _ domain.GenerateOptions) (*domain.TextResult, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TextResult{
		Content: f.reply,
		Model:   "fake-model",
		Usage:   domain.Usage{PromptTokens: 10, CompletionTokens: 32, TotalTokens: 42},
	}, nil
}

func (f *fakeProvider) GenerateImage(_ context.Context, prompt string, _ domain.ImageOptions) (*domain.ImageResult, error) {
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return &domain.ImageResult{Model: "fake-image-model"}, nil
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// textOnlyProvider hides the image capability of the wrapped provider:
// only GenerateText and Name are promoted.
type textOnlyProvider struct{ domain.ModelProvider }

// memStore is an in-memory LongTermStore.
type memStore struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMemStore() *memStore { return &memStore{data: make(map[string]string)} }

func (m *memStore) Put(_ context.Context, agentID, key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[agentID+"/"+key] = value
	return nil
}

func (m *memStore) Get(_ context.Context, agentID, key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[agentID+"/"+key]
	return v, ok, nil
}

func (m *memStore) Delete(_ context.Context, agentID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, agentID+"/"+key)
	return nil
}

func registryWith(providers ...domain.ModelProvider) *provider.Registry {
	reg := provider.NewRegistry()
	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			panic(err)
		}
	}
	return reg
}

func testDeps(fp *fakeProvider) Deps {
	return Deps{
		Providers: registryWith(fp),
		Logger:    logger.Discard(),
		Rand:      rand.New(rand.NewSource(1)),
		Now:       func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) },
	}
}

func testDepsWithLimiter(fp *fakeProvider, limits ratelimit.Limits) Deps {
	d := testDeps(fp)
	d.Limiter = ratelimit.New(map[string]ratelimit.Limits{fp.name: limits}, logger.Discard())
	return d
}

func convWith(texts ...string) *domain.Conversation {
	conv := domain.NewConversation("conv-1", "en")
	for i, text := range texts {
		conv.Append(domain.ChatMessage{
			ID:        "m",
			Sender:    "alice",
			Text:      text,
			Timestamp: time.Date(2026, 8, 30, 12, 0, i, 0, time.UTC),
		})
	}
	return conv
}
