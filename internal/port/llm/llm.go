// Package llm defines the port interface for the model endpoint.
package llm

import (
	"context"

	"github.com/stackline/foreman/internal/domain/conversation"
	"github.com/stackline/foreman/internal/domain/tool"
)

// CompletionRequest carries the full ordered history plus the tool catalog
// for one model turn.
type CompletionRequest struct {
	Model       string
	Messages    []conversation.Message
	Tools       []tool.Definition
	Temperature float32
	MaxTokens   int
}

// CompletionResponse is the model's reply: either free text or a batch of
// tool calls, plus this turn's token usage.
type CompletionResponse struct {
	Message          conversation.Message
	PromptTokens     int
	CompletionTokens int
	FinishReason     string
}

// Client is the port interface for a multi-turn tool-calling model endpoint.
// Implementations own rate limiting and retry; callers see only the final
// outcome of a turn.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
