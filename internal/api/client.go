package api

import (
	"context"
	"fmt"

	"github.com/quocvuong92/ai-chat/internal/config"
	"github.com/quocvuong92/ai-chat/internal/conversation"
)

// AIClient defines the interface for chat completion clients.
// The interactive loop and the save command depend on it so that tests can
// substitute a fake.
type AIClient interface {
	// Query sends the conversation and waits for the whole reply
	Query(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// QueryStream sends the conversation and calls onChunk for each delta.
	// The accumulated reply is returned once the stream ends.
	QueryStream(ctx context.Context, req ChatRequest, onChunk func(Delta)) (*ChatResponse, error)

	// Close releases any resources held by the client
	Close()
}

// Ensure the OpenAI-compatible client implements AIClient
var _ AIClient = (*OpenAIClient)(nil)

// ChatRequest is one chat completion call
type ChatRequest struct {
	Model       string
	Temperature float64
	Messages    []conversation.Message
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Delta is one streamed piece of the reply. Reasoning is set by models
// that expose their chain of thought.
type Delta struct {
	Content   string
	Reasoning string
}

// ChatResponse is the complete reply
type ChatResponse struct {
	Content      string
	Reasoning    string
	FinishReason string
	Usage        Usage
}

// GetContent returns the answer text
func (r *ChatResponse) GetContent() string {
	if r == nil {
		return ""
	}
	return r.Content
}

// GetUsageMap returns usage as a map for display
func (r *ChatResponse) GetUsageMap() map[string]int {
	return map[string]int{
		"input_tokens":  r.Usage.PromptTokens,
		"output_tokens": r.Usage.CompletionTokens,
		"total_tokens":  r.Usage.TotalTokens,
	}
}

// NewClient creates a client for the selected provider. cfg must have been
// validated and its API keys loaded.
func NewClient(cfg *config.Config) (AIClient, error) {
	if cfg.Keys == nil || !cfg.Keys.HasKeys() {
		return nil, fmt.Errorf("%w for provider %s", config.ErrAPIKeyNotFound, cfg.Provider)
	}
	if cfg.BaseURL() == "" {
		return nil, fmt.Errorf("provider %s has no base_url", cfg.Provider)
	}
	return NewOpenAIClient(cfg.BaseURL(), cfg.Keys, cfg.Verbose), nil
}
