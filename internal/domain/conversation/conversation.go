// Package conversation holds the message log and usage accounting for one
// assistant run.
package conversation

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message represents a single entry in the conversation log.
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
	CreatedAt  time.Time  `json:"created_at,omitzero"`
}

// Usage accumulates token counts and cost across all model calls of a run.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

// Add accumulates another model call's usage.
func (u *Usage) Add(promptTokens, completionTokens int, costUSD float64) {
	u.PromptTokens += promptTokens
	u.CompletionTokens += completionTokens
	u.CostUSD += costUSD
}

// Context is the append-only message log for a single assistant run.
// It is owned by exactly one orchestration loop instance and is not safe
// for concurrent use.
type Context struct {
	ConversationID string
	Usage          Usage

	messages []Message
}

// NewContext creates an empty context. conversationID may be empty for
// one-shot runs that are not resumed later.
func NewContext(conversationID string) *Context {
	return &Context{ConversationID: conversationID}
}

// Restore creates a context pre-populated with a previously snapshotted log.
func Restore(conversationID string, messages []Message) *Context {
	return &Context{ConversationID: conversationID, messages: messages}
}

// Append adds a message to the end of the log.
func (c *Context) Append(m Message) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	c.messages = append(c.messages, m)
}

// Messages returns the ordered log. The returned slice must not be mutated.
func (c *Context) Messages() []Message {
	return c.messages
}

// Len returns the number of messages in the log.
func (c *Context) Len() int {
	return len(c.messages)
}

// Snapshot returns a copy of the log suitable for caching.
func (c *Context) Snapshot() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Validate scans assistant messages carrying tool calls and reports every
// invocation ID that has no matching tool response. Warnings are diagnostic
// only; an ill-formed context never aborts a run.
func (c *Context) Validate() []string {
	answered := make(map[string]bool)
	for i := range c.messages {
		if c.messages[i].Role == RoleTool && c.messages[i].ToolCallID != "" {
			answered[c.messages[i].ToolCallID] = true
		}
	}

	var warnings []string
	for i := range c.messages {
		if c.messages[i].Role != RoleAssistant {
			continue
		}
		for _, tc := range c.messages[i].ToolCalls {
			if !answered[tc.ID] {
				warnings = append(warnings, fmt.Sprintf("tool call %s (%s) has no tool response", tc.ID, tc.Name))
			}
		}
	}
	return warnings
}
