package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stackline/foreman/internal/domain"
	"github.com/stackline/foreman/internal/domain/action"
	"github.com/stackline/foreman/internal/domain/project"
	"github.com/stackline/foreman/internal/port/messagequeue"
)

// fakeQueue records published messages and can be told to fail.
type fakeQueue struct {
	mu        sync.Mutex
	published map[string][][]byte
	failNext  bool
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{published: make(map[string][][]byte)}
}

func (q *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failNext {
		q.failNext = false
		return errors.New("nats: connection lost")
	}
	q.published[subject] = append(q.published[subject], data)
	return nil
}

func (q *fakeQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *fakeQueue) Close() error { return nil }

func (q *fakeQueue) count(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.published[subject])
}

func newActionFixture(t *testing.T) (*fakeStore, *fakeQueue, *ActionService, string) {
	t.Helper()
	store := newFakeStore()
	queue := newFakeQueue()
	svc := NewActionService(store, queue, nil, nil)

	p, err := store.CreateProject(context.Background(), &project.Project{Name: "Birch Lane"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return store, queue, svc, p.ID
}

func TestCreatePendingRecord(t *testing.T) {
	_, _, svc, projectID := newActionFixture(t)

	rec, err := svc.Create(context.Background(), CreateActionRequest{
		ProjectID:        projectID,
		Type:             action.TypeMessage,
		Payload:          json.RawMessage(`{"content":"hello"}`),
		RequiresApproval: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Status != action.StatusPending {
		t.Fatalf("status = %s, want pending", rec.Status)
	}
	if rec.DedupeKey == "" {
		t.Fatal("expected dedupe key to be computed")
	}
	if !rec.ExecutedAt.IsZero() {
		t.Fatal("pending record must not carry an execution timestamp")
	}
}

func TestCreateAutoExecutedRecord(t *testing.T) {
	_, _, svc, projectID := newActionFixture(t)

	rec, err := svc.Create(context.Background(), CreateActionRequest{
		ProjectID: projectID,
		Type:      action.TypeMessage,
		Payload:   json.RawMessage(`{"content":"fyi"}`),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Status != action.StatusExecuted {
		t.Fatalf("status = %s, want executed", rec.Status)
	}
	if rec.ExecutedAt.IsZero() {
		t.Fatal("executed record must carry an execution timestamp")
	}
}

func TestCreateReminderAdvancesProjectAndPublishes(t *testing.T) {
	store, queue, svc, projectID := newActionFixture(t)
	remindAt := time.Now().UTC().AddDate(0, 0, 3)

	_, err := svc.Create(context.Background(), CreateActionRequest{
		ProjectID: projectID,
		Type:      action.TypeSetFutureReminder,
		Payload:   json.RawMessage(`{"days":3}`),
		RemindAt:  remindAt,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	p, err := store.GetProject(context.Background(), projectID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if !p.NextCheckAt.Equal(remindAt) {
		t.Fatalf("next check = %v, want %v", p.NextCheckAt, remindAt)
	}
	if queue.count(messagequeue.SubjectReminderSet) != 1 {
		t.Fatal("expected reminder announcement on the queue")
	}
}

func TestApproveDeliversAndExecutes(t *testing.T) {
	_, queue, svc, projectID := newActionFixture(t)

	rec, err := svc.Create(context.Background(), CreateActionRequest{
		ProjectID:        projectID,
		Type:             action.TypeMessage,
		Payload:          json.RawMessage(`{"content":"call me"}`),
		RequiresApproval: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	approved, err := svc.Approve(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != action.StatusExecuted {
		t.Fatalf("status = %s, want executed after delivery", approved.Status)
	}
	if queue.count(messagequeue.SubjectDeliverMessage) != 1 {
		t.Fatal("expected delivery payload on the queue")
	}
}

func TestApproveDeliveryFailureStaysApproved(t *testing.T) {
	store, queue, svc, projectID := newActionFixture(t)

	rec, err := svc.Create(context.Background(), CreateActionRequest{
		ProjectID:        projectID,
		Type:             action.TypeEscalation,
		Payload:          json.RawMessage(`{"reason":"late"}`),
		RequiresApproval: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	queue.failNext = true
	approved, err := svc.Approve(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != action.StatusApproved {
		t.Fatalf("status = %s, want approved pending redelivery", approved.Status)
	}

	stored, err := store.GetActionRecord(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if stored.Status != action.StatusApproved {
		t.Fatalf("stored status = %s", stored.Status)
	}
}

func TestRejectPendingRecord(t *testing.T) {
	_, _, svc, projectID := newActionFixture(t)

	rec, err := svc.Create(context.Background(), CreateActionRequest{
		ProjectID:        projectID,
		Type:             action.TypeDataUpdate,
		Payload:          json.RawMessage(`{"field":"stage","value":"demo"}`),
		RequiresApproval: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rejected, err := svc.Reject(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != action.StatusRejected {
		t.Fatalf("status = %s", rejected.Status)
	}

	// Terminal states admit no further transitions.
	if _, err := svc.Approve(context.Background(), rec.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict approving a rejected record, got %v", err)
	}
}

func TestApproveTwiceConflicts(t *testing.T) {
	_, _, svc, projectID := newActionFixture(t)

	rec, err := svc.Create(context.Background(), CreateActionRequest{
		ProjectID:        projectID,
		Type:             action.TypeMessage,
		Payload:          json.RawMessage(`{"content":"hi"}`),
		RequiresApproval: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Approve(context.Background(), rec.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := svc.Approve(context.Background(), rec.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on double approval, got %v", err)
	}
}
