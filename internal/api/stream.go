package api

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// chunkReceiver is the part of *openai.ChatCompletionStream the accumulator uses
type chunkReceiver interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
}

// streamAccumulator collects a streamed reply while forwarding each delta
type streamAccumulator struct {
	content      strings.Builder
	reasoning    strings.Builder
	finishReason string
	usage        Usage
}

func newStreamAccumulator() *streamAccumulator {
	return &streamAccumulator{}
}

// Process reads the stream until it ends, calling onChunk for each
// non-empty delta
func (a *streamAccumulator) Process(ctx context.Context, stream chunkReceiver, onChunk func(Delta)) error {
	for {
		// Check for context cancellation
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		// Usage arrives on a final chunk without choices
		if chunk.Usage != nil {
			a.usage = Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			a.finishReason = string(choice.FinishReason)
		}
		d := Delta{Content: choice.Delta.Content, Reasoning: choice.Delta.ReasoningContent}
		if d.Content == "" && d.Reasoning == "" {
			continue
		}
		a.content.WriteString(d.Content)
		a.reasoning.WriteString(d.Reasoning)
		if onChunk != nil {
			onChunk(d)
		}
	}
}

// Response builds the reply from everything received so far
func (a *streamAccumulator) Response() *ChatResponse {
	finishReason := a.finishReason
	if finishReason == "" {
		finishReason = string(openai.FinishReasonStop)
	}
	return &ChatResponse{
		Content:      a.content.String(),
		Reasoning:    a.reasoning.String(),
		FinishReason: finishReason,
		Usage:        a.usage,
	}
}
