// Package run defines the record of one end-to-end orchestration run.
package run

import "time"

// Status is the lifecycle state of a run.
type Status string

// Run statuses.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusAborted   Status = "aborted" // loop-abort on detected repetition
)

// Metrics holds token counts and computed cost for a run.
type Metrics struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

// Run is one invocation of the orchestration loop for a single prompt.
type Run struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"company_id"`
	ProjectID      string    `json:"project_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Status         Status    `json:"status"`
	Prompt         string    `json:"prompt"`
	Answer         string    `json:"answer,omitempty"`
	Error          string    `json:"error,omitempty"`
	Model          string    `json:"model,omitempty"`
	Iterations     int       `json:"iterations"`
	Metrics        Metrics   `json:"metrics"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at,omitzero"`
}

// ToolCallLog is one per-dispatch observability entry: tool name, duration,
// input hash and truncated output, recorded regardless of outcome.
type ToolCallLog struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Tool       string    `json:"tool"`
	Status     string    `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	InputHash  string    `json:"input_hash"`
	Output     string    `json:"output,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
