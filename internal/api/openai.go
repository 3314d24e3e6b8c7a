package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/quocvuong92/ai-chat/internal/config"
	"github.com/quocvuong92/ai-chat/internal/constants"
	"github.com/quocvuong92/ai-chat/internal/conversation"
	"github.com/quocvuong92/ai-chat/internal/logging"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
type OpenAIClient struct {
	mu         sync.Mutex
	client     *openai.Client
	keys       *config.KeyRotator
	baseURL    string
	httpClient *http.Client
	log        *logging.FieldLogger
}

// NewOpenAIClient creates a client for baseURL. With debug set, requests
// and responses are logged with secrets redacted.
func NewOpenAIClient(baseURL string, keys *config.KeyRotator, debug bool) *OpenAIClient {
	transport := http.DefaultTransport
	if debug {
		httpLogger := logging.NewHTTPLogger(logging.DefaultLogger)
		transport = logging.NewLoggingRoundTripper(http.DefaultTransport, httpLogger, true)
	}

	c := &OpenAIClient{
		keys:    keys,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   constants.DefaultAPITimeout,
			Transport: transport,
		},
		log: logging.DefaultLogger.WithFields(logging.Fields{"component": "api", "base_url": baseURL}),
	}
	c.client = c.newClient(keys.GetCurrentKey())
	return c
}

func (c *OpenAIClient) newClient(key string) *openai.Client {
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = c.httpClient
	return openai.NewClientWithConfig(cfg)
}

func (c *OpenAIClient) current() *openai.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

// rotate switches to the next API key after an auth or quota failure
func (c *OpenAIClient) rotate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, err := c.keys.Rotate()
	if err != nil {
		return false
	}
	c.log.Warn("Rotating API key", logging.Fields{"key_index": c.keys.GetCurrentIndex()})
	c.client = c.newClient(key)
	return true
}

// withKeys runs fn with retries, moving to the next key when the current
// one is rejected
func withKeys[T any](ctx context.Context, c *OpenAIClient, fn func(*openai.Client) (T, error)) (T, error) {
	for {
		result, err := WithRetry(ctx, func() (T, error) {
			r, err := fn(c.current())
			return r, classifyError(err)
		})
		var apiErr *APIError
		if err != nil && errors.As(err, &apiErr) && ShouldRotateKey(apiErr.StatusCode) && c.rotate() {
			continue
		}
		return result, err
	}
}

func (c *OpenAIClient) request(req ChatRequest, stream bool) openai.ChatCompletionRequest {
	r := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: float32(req.Temperature),
		Stream:      stream,
	}
	if stream {
		r.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return r
}

// Query sends the conversation and waits for the whole reply
func (c *OpenAIClient) Query(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	c.log.Debug("Chat request", logging.Fields{"model": req.Model, "messages": len(req.Messages)})

	resp, err := withKeys(ctx, c, func(client *openai.Client) (openai.ChatCompletionResponse, error) {
		return client.CreateChatCompletion(ctx, c.request(req, false))
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model %s", req.Model)
	}

	choice := resp.Choices[0]
	return &ChatResponse{
		Content:      choice.Message.Content,
		Reasoning:    choice.Message.ReasoningContent,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// QueryStream sends the conversation and calls onChunk for each delta.
// Connection failures are retried; once the stream starts a failure ends
// the reply with the text received so far.
func (c *OpenAIClient) QueryStream(ctx context.Context, req ChatRequest, onChunk func(Delta)) (*ChatResponse, error) {
	c.log.Debug("Chat stream request", logging.Fields{"model": req.Model, "messages": len(req.Messages)})

	stream, err := withKeys(ctx, c, func(client *openai.Client) (*openai.ChatCompletionStream, error) {
		return client.CreateChatCompletionStream(ctx, c.request(req, true))
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	acc := newStreamAccumulator()
	if err := acc.Process(ctx, stream, onChunk); err != nil {
		return acc.Response(), fmt.Errorf("failed to process stream: %w", classifyError(err))
	}
	return acc.Response(), nil
}

// Close releases idle connections
func (c *OpenAIClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// toOpenAIMessages converts transcript entries to the wire form. Messages
// with parts are sent as multi-content messages.
func toOpenAIMessages(msgs []conversation.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		msg := openai.ChatCompletionMessage{Role: m.Role.String()}
		if len(m.Parts) == 0 {
			msg.Content = m.Content
			out = append(out, msg)
			continue
		}
		for _, p := range m.Parts {
			switch p.Type {
			case conversation.PartText:
				msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: p.Text,
				})
			case conversation.PartImageURL:
				if p.ImageURL == nil {
					continue
				}
				msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL.URL},
				})
			}
		}
		out = append(out, msg)
	}
	return out
}
