package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stackline/foreman/internal/adapter/otel"
	"github.com/stackline/foreman/internal/domain"
	"github.com/stackline/foreman/internal/domain/action"
	"github.com/stackline/foreman/internal/port/broadcast"
	"github.com/stackline/foreman/internal/port/database"
	"github.com/stackline/foreman/internal/port/messagequeue"
)

// ActionService owns the action-record state machine: creation by the tool
// dispatcher, approval/rejection by a human operator, and the delivery side
// effect that follows approval.
type ActionService struct {
	store   database.Store
	queue   messagequeue.Queue
	hub     broadcast.Broadcaster
	metrics *otel.Metrics
}

// NewActionService creates an ActionService. queue, hub and metrics may be
// nil in tests; delivery and notification become no-ops.
func NewActionService(store database.Store, queue messagequeue.Queue, hub broadcast.Broadcaster, metrics *otel.Metrics) *ActionService {
	return &ActionService{store: store, queue: queue, hub: hub, metrics: metrics}
}

// CreateActionRequest carries everything needed to propose a side effect.
type CreateActionRequest struct {
	ProjectID        string
	RunID            string
	Type             action.Type
	Payload          json.RawMessage
	RequiresApproval bool
	RecipientID      string
	SenderID         string
	RemindAt         time.Time
}

// Create persists a new action record. Records requiring approval start
// pending; the rest are executed immediately. Reminder records additionally
// advance the owning project's next-check timestamp.
func (s *ActionService) Create(ctx context.Context, req CreateActionRequest) (*action.Record, error) {
	status := action.StatusPending
	var executedAt time.Time
	if !req.RequiresApproval {
		status = action.StatusExecuted
		executedAt = time.Now().UTC()
	}

	rec := &action.Record{
		ProjectID:        req.ProjectID,
		RunID:            req.RunID,
		Type:             req.Type,
		Payload:          req.Payload,
		RequiresApproval: req.RequiresApproval,
		Status:           status,
		RecipientID:      req.RecipientID,
		SenderID:         req.SenderID,
		RemindAt:         req.RemindAt,
		DedupeKey:        action.DedupeKey(req.Type, req.Payload),
		ExecutedAt:       executedAt,
	}

	created, err := s.store.CreateActionRecord(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("create action record: %w", err)
	}

	if created.Type == action.TypeSetFutureReminder && !created.RemindAt.IsZero() {
		if err := s.store.AdvanceProjectNextCheck(ctx, created.ProjectID, created.RemindAt); err != nil {
			slog.Error("advance project next check failed",
				"project_id", created.ProjectID, "action_id", created.ID, "error", err)
		}
		s.publish(ctx, messagequeue.SubjectReminderSet, created)
	}

	if s.metrics != nil {
		s.metrics.ActionsCreated.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action.type", string(created.Type)),
			attribute.Bool("action.requires_approval", created.RequiresApproval),
		))
	}
	if s.hub != nil && created.Status == action.StatusPending {
		s.hub.BroadcastEvent(ctx, broadcast.EventActionPending, created)
	}

	slog.Info("action record created",
		"action_id", created.ID,
		"type", created.Type,
		"status", created.Status,
		"project_id", created.ProjectID,
		"run_id", created.RunID,
	)
	return created, nil
}

// Approve transitions a pending record to approved and triggers the
// dependent delivery side effect. Delivery failure leaves the record
// approved so a later retry can pick it up.
func (s *ActionService) Approve(ctx context.Context, id string) (*action.Record, error) {
	rec, err := s.store.GetActionRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Status.CanTransition(action.StatusApproved) {
		return nil, fmt.Errorf("approve action %s from %s: %w", id, rec.Status, domain.ErrConflict)
	}

	if err := s.store.UpdateActionStatus(ctx, id, action.StatusApproved, time.Time{}); err != nil {
		return nil, err
	}
	rec.Status = action.StatusApproved

	if subject := deliverySubject(rec.Type); subject != "" {
		if s.queue == nil {
			slog.Warn("no delivery queue configured, action stays approved", "action_id", id)
		} else if err := s.publishErr(ctx, subject, rec); err != nil {
			slog.Error("action delivery publish failed", "action_id", id, "error", err)
		} else {
			now := time.Now().UTC()
			if err := s.store.UpdateActionStatus(ctx, id, action.StatusExecuted, now); err != nil {
				return nil, err
			}
			rec.Status = action.StatusExecuted
			rec.ExecutedAt = now
		}
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, broadcast.EventActionResolved, rec)
	}
	slog.Info("action record approved", "action_id", id, "status", rec.Status)
	return rec, nil
}

// Reject transitions a pending record to rejected.
func (s *ActionService) Reject(ctx context.Context, id string) (*action.Record, error) {
	rec, err := s.store.GetActionRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Status.CanTransition(action.StatusRejected) {
		return nil, fmt.Errorf("reject action %s from %s: %w", id, rec.Status, domain.ErrConflict)
	}

	if err := s.store.UpdateActionStatus(ctx, id, action.StatusRejected, time.Time{}); err != nil {
		return nil, err
	}
	rec.Status = action.StatusRejected

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, broadcast.EventActionResolved, rec)
	}
	slog.Info("action record rejected", "action_id", id)
	return rec, nil
}

// Get returns a single action record.
func (s *ActionService) Get(ctx context.Context, id string) (*action.Record, error) {
	return s.store.GetActionRecord(ctx, id)
}

// List returns a project's action records, optionally filtered by status.
func (s *ActionService) List(ctx context.Context, projectID string, status action.Status) ([]action.Record, error) {
	return s.store.ListActionRecords(ctx, projectID, status)
}

// deliverySubject maps an action type to its downstream delivery subject.
// Types with no subject have no delivery collaborator.
func deliverySubject(t action.Type) string {
	switch t {
	case action.TypeMessage:
		return messagequeue.SubjectDeliverMessage
	case action.TypeEscalation:
		return messagequeue.SubjectDeliverEscalation
	case action.TypeDataUpdate, action.TypeCRMWrite, action.TypeCRMAppendNote:
		return messagequeue.SubjectCRMWrite
	default:
		return ""
	}
}

func (s *ActionService) publish(ctx context.Context, subject string, rec *action.Record) {
	if err := s.publishErr(ctx, subject, rec); err != nil {
		slog.Error("action publish failed", "subject", subject, "action_id", rec.ID, "error", err)
	}
}

func (s *ActionService) publishErr(ctx context.Context, subject string, rec *action.Record) error {
	if s.queue == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	return s.queue.Publish(ctx, subject, data)
}
