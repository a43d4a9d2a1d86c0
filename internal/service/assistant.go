package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stackline/foreman/internal/adapter/otel"
	"github.com/stackline/foreman/internal/config"
	"github.com/stackline/foreman/internal/domain/conversation"
	"github.com/stackline/foreman/internal/domain/run"
	"github.com/stackline/foreman/internal/middleware"
	"github.com/stackline/foreman/internal/port/broadcast"
	"github.com/stackline/foreman/internal/port/cache"
	"github.com/stackline/foreman/internal/port/database"
	"github.com/stackline/foreman/internal/port/llm"
)

// maxIterationsAnswer is the fixed terminal answer when the iteration cap
// is reached without the model producing free text.
const maxIterationsAnswer = "Maximum iterations reached without a final answer. The actions taken so far are recorded for review."

// systemPrompt frames the assistant for the model. Prompt templating is the
// caller's concern; this is only the role framing.
const systemPrompt = "You are Foreman, an assistant for construction project managers. " +
	"Use the provided tools to inspect the project and propose actions. " +
	"Actions that touch stakeholders or CRM data go through human approval. " +
	"When you have nothing further to do, reply with a short plain-text summary."

// AssistantService runs the bounded tool-calling orchestration loop: it
// alternates between model turns and tool dispatch until the model answers
// in free text, the iteration cap is hit, or a loop-abort fires.
type AssistantService struct {
	store    database.Store
	client   llm.Client
	cache    cache.Cache
	registry *Registry
	actions  *ActionService
	resolver *ResolverService
	hub      broadcast.Broadcaster
	metrics  *otel.Metrics

	model config.Model
	loop  config.Assistant
	ttl   time.Duration
}

// NewAssistantService wires the orchestration loop. cache, hub and metrics
// may be nil.
func NewAssistantService(
	store database.Store,
	client llm.Client,
	conversationCache cache.Cache,
	registry *Registry,
	actions *ActionService,
	resolver *ResolverService,
	hub broadcast.Broadcaster,
	metrics *otel.Metrics,
	model config.Model,
	loop config.Assistant,
	conversationTTL time.Duration,
) *AssistantService {
	if loop.MaxIterations <= 0 {
		loop.MaxIterations = 5
	}
	return &AssistantService{
		store:    store,
		client:   client,
		cache:    conversationCache,
		registry: registry,
		actions:  actions,
		resolver: resolver,
		hub:      hub,
		metrics:  metrics,
		model:    model,
		loop:     loop,
		ttl:      conversationTTL,
	}
}

// RunRequest is one prompt to execute against one project.
type RunRequest struct {
	ProjectID      string   `json:"project_id"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Prompt         string   `json:"prompt"`
	CallerID       string   `json:"caller_id,omitempty"`
	AllowedTools   []string `json:"allowed_tools,omitempty"`
}

// Run executes the orchestration loop for one prompt and returns the
// finished run record. The run row is persisted up front so that failures
// mid-loop still leave an auditable trail.
func (s *AssistantService) Run(ctx context.Context, req RunRequest) (*run.Run, error) {
	if req.ProjectID == "" {
		return nil, errors.New("project_id is required")
	}
	if req.Prompt == "" {
		return nil, errors.New("prompt is required")
	}
	if _, err := s.store.GetProject(ctx, req.ProjectID); err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.New().String()
	}

	r, err := s.store.CreateRun(ctx, &run.Run{
		ID:             uuid.New().String(),
		ProjectID:      req.ProjectID,
		ConversationID: req.ConversationID,
		Status:         run.StatusRunning,
		Prompt:         req.Prompt,
		Model:          s.model.Name,
		StartedAt:      time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RunsStarted.Add(ctx, 1)
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, broadcast.EventRunStarted, r)
	}
	slog.Info("run started",
		"run_id", r.ID, "project_id", req.ProjectID, "conversation_id", req.ConversationID)

	ctxLog := s.restoreContext(ctx, req.ConversationID)
	if ctxLog.Len() == 0 {
		ctxLog.Append(conversation.Message{Role: conversation.RoleSystem, Content: systemPrompt})
	}
	ctxLog.Append(conversation.Message{Role: conversation.RoleUser, Content: req.Prompt})

	env := &Env{
		Store:     s.store,
		Actions:   s.actions,
		Resolver:  s.resolver,
		CompanyID: middleware.CompanyIDFromContext(ctx),
		ProjectID: req.ProjectID,
		RunID:     r.ID,
		CallerID:  req.CallerID,
	}
	dispatcher := NewDispatcher(s.registry, env, s.metrics, s.loop.ToolLoopThreshold)
	tools := s.registry.Definitions(req.AllowedTools)

	status := run.StatusCompleted
	answer := ""
	var runErr error

loop:
	for iteration := 1; iteration <= s.loop.MaxIterations; iteration++ {
		r.Iterations = iteration

		resp, err := s.client.Complete(ctx, llm.CompletionRequest{
			Model:       s.model.Name,
			Messages:    ctxLog.Messages(),
			Tools:       tools,
			Temperature: s.model.Temperature,
			MaxTokens:   s.model.MaxTokens,
		})
		if err != nil {
			status = run.StatusFailed
			runErr = fmt.Errorf("model call (iteration %d): %w", iteration, err)
			break
		}

		cost := CostUSD(s.model.Name, resp.PromptTokens, resp.CompletionTokens)
		ctxLog.Usage.Add(resp.PromptTokens, resp.CompletionTokens, cost)
		ctxLog.Append(resp.Message)

		for _, call := range resp.Message.ToolCalls {
			if err := dispatcher.Dispatch(ctx, call, ctxLog); err != nil {
				status = run.StatusAborted
				answer = loopAbortAnswer
				break loop
			}
		}

		for _, warning := range ctxLog.Validate() {
			slog.Warn("conversation context ill-formed",
				"run_id", r.ID, "iteration", iteration, "warning", warning)
		}

		if len(resp.Message.ToolCalls) == 0 {
			answer = resp.Message.Content
			break
		}
	}

	if status == run.StatusCompleted && answer == "" && runErr == nil {
		answer = maxIterationsAnswer
	}

	s.finish(ctx, r, ctxLog, status, answer, runErr)
	return r, runErr
}

// restoreContext reloads a cached conversation snapshot, or starts fresh.
func (s *AssistantService) restoreContext(ctx context.Context, conversationID string) *conversation.Context {
	if conversationID == "" || s.cache == nil {
		return conversation.NewContext(conversationID)
	}

	data, ok, err := s.cache.Get(ctx, conversationKey(conversationID))
	if err != nil || !ok {
		if err != nil {
			slog.Warn("conversation cache read failed", "conversation_id", conversationID, "error", err)
		}
		return conversation.NewContext(conversationID)
	}

	var messages []conversation.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		slog.Warn("conversation snapshot corrupt, starting fresh",
			"conversation_id", conversationID, "error", err)
		return conversation.NewContext(conversationID)
	}
	return conversation.Restore(conversationID, messages)
}

// finish persists the run outcome, snapshots the conversation, and emits
// the lifecycle telemetry.
func (s *AssistantService) finish(ctx context.Context, r *run.Run, ctxLog *conversation.Context, status run.Status, answer string, runErr error) {
	r.Status = status
	r.Answer = answer
	if runErr != nil {
		r.Error = runErr.Error()
	}
	r.Metrics = run.Metrics{
		PromptTokens:     ctxLog.Usage.PromptTokens,
		CompletionTokens: ctxLog.Usage.CompletionTokens,
		CostUSD:          ctxLog.Usage.CostUSD,
	}
	r.FinishedAt = time.Now().UTC()

	if err := s.store.FinishRun(ctx, r); err != nil {
		slog.Error("persist run outcome failed", "run_id", r.ID, "error", err)
	}

	if ctxLog.ConversationID != "" && s.cache != nil {
		if data, err := json.Marshal(ctxLog.Snapshot()); err == nil {
			if err := s.cache.Set(ctx, conversationKey(ctxLog.ConversationID), data, s.ttl); err != nil {
				slog.Warn("conversation snapshot write failed",
					"conversation_id", ctxLog.ConversationID, "error", err)
			}
		}
	}

	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("run.status", string(status)))
		switch status {
		case run.StatusCompleted:
			s.metrics.RunsCompleted.Add(ctx, 1)
		case run.StatusFailed:
			s.metrics.RunsFailed.Add(ctx, 1)
		case run.StatusAborted:
			s.metrics.RunsAborted.Add(ctx, 1)
		}
		s.metrics.RunDuration.Record(ctx, r.FinishedAt.Sub(r.StartedAt).Seconds(), attrs)
		s.metrics.RunCost.Record(ctx, r.Metrics.CostUSD, attrs)
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, broadcast.EventRunFinished, r)
	}

	slog.Info("run finished",
		"run_id", r.ID,
		"status", status,
		"iterations", r.Iterations,
		"prompt_tokens", r.Metrics.PromptTokens,
		"completion_tokens", r.Metrics.CompletionTokens,
		"cost_usd", r.Metrics.CostUSD,
	)
}

func conversationKey(id string) string {
	return "conversation:" + id
}
