// Package broadcast defines the port for pushing events to connected
// operator clients.
package broadcast

import "context"

// Broadcaster pushes typed events to all connected clients. Implementations
// must never block the caller on slow consumers.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Event types pushed to operator dashboards.
const (
	EventRunStarted     = "run.started"
	EventRunFinished    = "run.finished"
	EventActionPending  = "action.pending"
	EventActionResolved = "action.resolved"
)
