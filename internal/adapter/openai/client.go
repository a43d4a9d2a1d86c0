// Package openai implements the model-endpoint port against any
// OpenAI-compatible chat completion API with tool calling (a LiteLLM proxy
// in the default deployment).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/stackline/foreman/internal/config"
	"github.com/stackline/foreman/internal/domain/conversation"
	"github.com/stackline/foreman/internal/domain/tool"
	"github.com/stackline/foreman/internal/port/llm"
	"github.com/stackline/foreman/internal/resilience"
)

const window = time.Minute

// Client implements llm.Client with rate limiting, retry with backoff, and
// an optional circuit breaker.
type Client struct {
	api     *goopenai.Client
	limiter *limiter
	retry   resilience.Retry
	breaker *resilience.Breaker
}

// NewClient creates a model-endpoint client from configuration.
func NewClient(cfg config.Model) *Client {
	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	retry := resilience.DefaultRetry
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}

	return &Client{
		api:     goopenai.NewClientWithConfig(apiCfg),
		limiter: newLimiter(cfg.RequestsPerMinute, window, cfg.MaxInFlight),
		retry:   retry,
	}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Complete sends one model turn: the full ordered history plus the tool
// catalog. It blocks until a rate-limit slot is free, and retries
// provider rate-limit and transient server errors with backoff.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	apiReq := goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toAPIMessages(req.Messages),
		Tools:       toAPITools(req.Tools),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var resp goopenai.ChatCompletionResponse
	call := func() error {
		if err := c.limiter.acquire(ctx); err != nil {
			return err
		}
		defer c.limiter.release()

		var err error
		resp, err = c.api.CreateChatCompletion(ctx, apiReq)
		return err
	}

	attempt := func() error {
		if c.breaker != nil {
			return c.breaker.Execute(call)
		}
		return call()
	}

	start := time.Now()
	if err := c.retry.Do(ctx, retryable, attempt); err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion: empty choices")
	}
	choice := resp.Choices[0]

	slog.Debug("model call completed",
		"model", req.Model,
		"duration", time.Since(start),
		"finish_reason", choice.FinishReason,
		"tool_calls", len(choice.Message.ToolCalls),
		"window_used", c.limiter.used(),
	)

	return &llm.CompletionResponse{
		Message:          fromAPIMessage(choice.Message),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		FinishReason:     string(choice.FinishReason),
	}, nil
}

// retryable classifies provider errors: rate limits and transient server
// errors are retried, everything else surfaces immediately.
func retryable(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests ||
			reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return false
}

func toAPIMessages(messages []conversation.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for i := range messages {
		m := goopenai.ChatCompletionMessage{
			Role:       messages[i].Role,
			Content:    messages[i].Content,
			ToolCallID: messages[i].ToolCallID,
		}
		if messages[i].Role == conversation.RoleTool {
			m.Name = messages[i].ToolName
		}
		for _, tc := range messages[i].ToolCalls {
			m.ToolCalls = append(m.ToolCalls, goopenai.ToolCall{
				ID:   tc.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		out = append(out, m)
	}
	return out
}

func toAPITools(defs []tool.Definition) []goopenai.Tool {
	if len(defs) == 0 {
		return nil
	}
	out := make([]goopenai.Tool, 0, len(defs))
	for i := range defs {
		out = append(out, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        defs[i].Name,
				Description: defs[i].Description,
				Parameters:  json.RawMessage(defs[i].Parameters),
			},
		})
	}
	return out
}

func fromAPIMessage(m goopenai.ChatCompletionMessage) conversation.Message {
	msg := conversation.Message{
		Role:    m.Role,
		Content: m.Content,
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, conversation.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return msg
}
