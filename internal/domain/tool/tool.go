// Package tool defines the catalog types for model-invokable tools.
package tool

import "encoding/json"

// Result statuses.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNoAction = "no_action"
)

// Definition describes a tool the model may request: its name, a prompt-facing
// description, and a JSON-schema argument spec.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Result is the structured outcome of one tool execution.
type Result struct {
	Status  string `json:"status"` // "success", "error", "no_action"
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success builds a success result with the given payload.
func Success(content string) Result {
	return Result{Status: StatusSuccess, Content: content}
}

// Errorf builds an error result. Errors are folded back into the conversation
// as tool messages, never propagated as run failures.
func Errorf(msg string) Result {
	return Result{Status: StatusError, Error: msg}
}

// NoAction builds a result indicating the tool deliberately did nothing.
func NoAction(reason string) Result {
	return Result{Status: StatusNoAction, Content: reason}
}

// JSON renders the result as the tool-message payload sent back to the model.
func (r Result) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return `{"status":"error","error":"encode result"}`
	}
	return string(data)
}
