package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentteam/internal/domain"
)

type stubProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (s *stubProvider) GenerateText(context.Context, string, domain.GenerateOptions) (*domain.TextResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.TextResult{Content: s.reply, Model: s.name}, nil
}

func (s *stubProvider) Name() string { return s.name }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubProvider{name: "openai"}))

	p, err := r.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubProvider{name: "openai"}))

	err := r.Register(&stubProvider{name: "openai"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubProvider{name: "a"}))
	require.NoError(t, r.Register(&stubProvider{name: "b"}))
	assert.ElementsMatch(t, []string{"a", "b"}, r.List())
}
