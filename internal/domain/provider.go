package domain

import (
	"context"
	"time"
)

// GenerateOptions tune a single text generation call.
type GenerateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Usage tracks token consumption reported by a provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TextResult is the outcome of a text generation call.
type TextResult struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// ImageOptions tune an image generation call.
type ImageOptions struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// ImageResult is the outcome of an image generation call.
type ImageResult struct {
	Model string `json:"model"`
	Data  []byte `json:"data,omitempty"`
}

// ModelProvider is the opaque model-calling capability the core consumes.
// The wire protocol is the adapter's business.
type ModelProvider interface {
	GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (*TextResult, error)
	Name() string
}

// ImageGenerator is an optional extension of ModelProvider for providers
// that can render images. Callers discover it via interface assertion.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (*ImageResult, error)
}

// TransportSender delivers replies, typing indicators, and reactions to a
// conversation. All calls are fire-and-forget from the core's perspective:
// errors are logged by the caller, never acted upon.
type TransportSender interface {
	SendText(ctx context.Context, conversationID, text string) error
	ShowTyping(ctx context.Context, conversationID string, d time.Duration) error
	React(ctx context.Context, conversationID, messageID, emoji string) error
}
