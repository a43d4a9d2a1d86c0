package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stackline/foreman/internal/adapter/otel"
	"github.com/stackline/foreman/internal/domain/conversation"
	"github.com/stackline/foreman/internal/domain/run"
	"github.com/stackline/foreman/internal/domain/tool"
)

// ErrLoopAbort signals that the dispatcher detected runaway repetition and
// the run must stop immediately, ahead of the iteration cap.
var ErrLoopAbort = errors.New("tool loop detected")

// loopAbortAnswer is the fixed diagnostic final answer for aborted runs.
const loopAbortAnswer = "Run aborted: the assistant kept requesting the same tool repeatedly without making progress."

// Dispatcher routes tool invocations requested by the model to their
// handlers while enforcing the run's safety bounds: invocation-ID dedup,
// per-tool call caps, repetition thresholds, and error containment. One
// Dispatcher serves exactly one run and is not safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	env      *Env
	metrics  *otel.Metrics

	// loopThreshold is how many calls of one uncapped tool trigger abort.
	loopThreshold int

	seenIDs    map[string]bool
	callCounts map[string]int
	noticed    map[string]bool
}

// NewDispatcher creates a dispatcher for a single run.
func NewDispatcher(registry *Registry, env *Env, metrics *otel.Metrics, loopThreshold int) *Dispatcher {
	if loopThreshold <= 0 {
		loopThreshold = 3
	}
	return &Dispatcher{
		registry:      registry,
		env:           env,
		metrics:       metrics,
		loopThreshold: loopThreshold,
		seenIDs:       make(map[string]bool),
		callCounts:    make(map[string]int),
		noticed:       make(map[string]bool),
	}
}

// Dispatch executes one tool invocation and appends the resulting messages
// to ctxLog. Duplicate invocation IDs are silently skipped. A capped tool
// exceeding its limit yields a no_action response plus a one-time system
// notice. An uncapped tool crossing the repetition threshold returns
// ErrLoopAbort; the caller must stop the run with loopAbortAnswer. Handler
// errors and panics are folded into error-status tool messages, never
// propagated.
func (d *Dispatcher) Dispatch(ctx context.Context, call conversation.ToolCall, ctxLog *conversation.Context) error {
	if d.seenIDs[call.ID] {
		slog.Warn("duplicate tool invocation skipped", "tool", call.Name, "call_id", call.ID)
		return nil
	}
	d.seenIDs[call.ID] = true
	d.callCounts[call.Name]++

	handler, ok := d.registry.Get(call.Name)
	if !ok {
		d.respond(ctxLog, call, tool.Errorf(fmt.Sprintf("unknown tool %q", call.Name)))
		return nil
	}

	if limit := d.registry.Limit(call.Name); limit > 0 {
		if d.callCounts[call.Name] > limit {
			d.respond(ctxLog, call, tool.NoAction(fmt.Sprintf("%s may only be called %d time(s) per run", call.Name, limit)))
			if !d.noticed[call.Name] {
				d.noticed[call.Name] = true
				ctxLog.Append(conversation.Message{
					Role:    conversation.RoleSystem,
					Content: fmt.Sprintf("Note: %s has reached its per-run call limit and will not run again. Answer with what you already have.", call.Name),
				})
			}
			return nil
		}
	} else if d.callCounts[call.Name] > d.loopThreshold {
		ctxLog.Append(conversation.Message{
			Role:    conversation.RoleSystem,
			Content: fmt.Sprintf("Warning: %s was requested %d times; the run is being stopped.", call.Name, d.callCounts[call.Name]),
		})
		slog.Error("tool loop detected, aborting run",
			"tool", call.Name, "calls", d.callCounts[call.Name], "run_id", d.env.RunID)
		// The duplicate-ID guard above still answers invariant 2; the
		// invocation that tripped the threshold gets no tool response.
		return ErrLoopAbort
	}

	started := time.Now()
	result := d.execute(ctx, handler, call)
	duration := time.Since(started)

	d.record(ctx, call, result, duration)
	d.respond(ctxLog, call, result)
	return nil
}

// execute runs the handler with panic containment. A returned error or a
// panic becomes an error-status result so the model can react to it.
func (d *Dispatcher) execute(ctx context.Context, handler Handler, call conversation.ToolCall) (result tool.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool handler panicked", "tool", call.Name, "panic", r, "run_id", d.env.RunID)
			result = tool.Errorf(fmt.Sprintf("%s failed unexpectedly", call.Name))
		}
	}()

	res, err := handler.Execute(ctx, d.env, call.Arguments)
	if err != nil {
		slog.Error("tool execution failed", "tool", call.Name, "error", err, "run_id", d.env.RunID)
		return tool.Errorf(err.Error())
	}
	return res
}

// respond appends the tool response message for call.
func (d *Dispatcher) respond(ctxLog *conversation.Context, call conversation.ToolCall, result tool.Result) {
	ctxLog.Append(conversation.Message{
		Role:       conversation.RoleTool,
		Content:    result.JSON(),
		ToolCallID: call.ID,
		ToolName:   call.Name,
	})
}

// record emits the per-dispatch observability trail: a log line, counters,
// and a persisted tool-call log row. Recording failures never affect the run.
func (d *Dispatcher) record(ctx context.Context, call conversation.ToolCall, result tool.Result, duration time.Duration) {
	inputHash := hashInput(call.Arguments)

	slog.Info("tool dispatched",
		"tool", call.Name,
		"status", result.Status,
		"duration_ms", duration.Milliseconds(),
		"input_hash", inputHash,
		"run_id", d.env.RunID,
	)

	if d.metrics != nil {
		d.metrics.ToolCalls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool.name", call.Name),
			attribute.String("tool.status", result.Status),
		))
		d.metrics.ToolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("tool.name", call.Name),
		))
	}

	if d.env.Store != nil && d.env.RunID != "" {
		entry := &run.ToolCallLog{
			RunID:      d.env.RunID,
			Tool:       call.Name,
			Status:     result.Status,
			DurationMS: duration.Milliseconds(),
			InputHash:  inputHash,
			Output:     truncate(result.JSON(), 2000),
		}
		if err := d.env.Store.CreateToolCallLog(ctx, entry); err != nil {
			slog.Warn("persist tool call log failed", "tool", call.Name, "error", err)
		}
	}
}

func hashInput(args []byte) string {
	sum := sha256.Sum256(args)
	return hex.EncodeToString(sum[:])[:16]
}
