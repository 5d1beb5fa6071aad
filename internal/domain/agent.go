package domain

import (
	"context"
	"time"
)

// Traits quantify an agent's persona on a [0,1] scale.
type Traits struct {
	Formality float64 `json:"formality" yaml:"formality"`
	Humor     float64 `json:"humor"     yaml:"humor"`
	Verbosity float64 `json:"verbosity" yaml:"verbosity"`
	Empathy   float64 `json:"empathy"   yaml:"empathy"`
}

// Personality is the presentation layer of an agent: emoji, traits,
// catchphrases and declared specialty tags.
type Personality struct {
	Emoji        string   `json:"emoji"        yaml:"emoji"`
	Traits       Traits   `json:"traits"       yaml:"traits"`
	CatchPhrases []string `json:"catchphrases" yaml:"catchphrases"`
	Specialties  []string `json:"specialties"  yaml:"specialties"`
}

// Capabilities are the boolean capability flags an agent declares.
type Capabilities struct {
	Text        bool `json:"text"`
	Image       bool `json:"image"`
	Code        bool `json:"code"`
	Math        bool `json:"math"`
	Research    bool `json:"research"`
	Analysis    bool `json:"analysis"`
	Creative    bool `json:"creative"`
	Translation bool `json:"translation"`
}

// ModelConfig binds an agent to a provider and model.
type ModelConfig struct {
	Provider    string  `json:"provider"              yaml:"provider"`
	Model       string  `json:"model"                 yaml:"model"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"  yaml:"max_tokens,omitempty"`
}

// AgentIdentity is the immutable description of an agent. It is created once
// at process start from a static definition and never mutated afterwards.
type AgentIdentity struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Role         string       `json:"role"`
	Personality  Personality  `json:"personality"`
	Capabilities Capabilities `json:"capabilities"`
	ModelConfig  ModelConfig  `json:"model_config"`
}

// Specialist is the contract every concrete agent implements.
//
// CanHandle is a pure function of text and context: it must not perform
// model calls and always returns a confidence in [0,1]. Process performs at
// most one model call and absorbs provider failures, returning a
// low-confidence in-character reply instead of an error; a non-nil error is
// reserved for programming mistakes (nil context, unregistered provider at
// construction time) and the like.
type Specialist interface {
	Identity() AgentIdentity
	CanHandle(text string, conv *Conversation) float64
	Process(ctx context.Context, text string, conv *Conversation) (*AgentResponse, error)
	ShouldInterrupt(conv *Conversation) bool
	TypingDuration(responseLength int) time.Duration
}

// AgentInfo is a read-only snapshot of a registered agent, used for
// status and help rendering.
type AgentInfo struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Role         string       `json:"role"`
	Emoji        string       `json:"emoji"`
	Capabilities Capabilities `json:"capabilities"`
	Specialties  []string     `json:"specialties,omitempty"`
}
