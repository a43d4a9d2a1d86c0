package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/stackline/foreman/internal/domain"
	"github.com/stackline/foreman/internal/domain/action"
	"github.com/stackline/foreman/internal/domain/contact"
	"github.com/stackline/foreman/internal/domain/conversation"
	"github.com/stackline/foreman/internal/domain/project"
	"github.com/stackline/foreman/internal/domain/run"
	"github.com/stackline/foreman/internal/port/llm"
)

// fakeStore is an in-memory database.Store for service tests.
type fakeStore struct {
	mu       sync.Mutex
	seq      int
	projects map[string]*project.Project
	notes    map[string][]project.Note
	contacts map[string]*contact.Contact
	links    map[string][]string // projectID -> contactIDs
	actions  map[string]*action.Record
	runs     map[string]*run.Run
	toolLogs map[string][]run.ToolCallLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: make(map[string]*project.Project),
		notes:    make(map[string][]project.Note),
		contacts: make(map[string]*contact.Contact),
		links:    make(map[string][]string),
		actions:  make(map[string]*action.Record),
		runs:     make(map[string]*run.Run),
		toolLogs: make(map[string][]run.ToolCallLog),
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) CreateProject(_ context.Context, p *project.Project) (*project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.ID = s.nextID("proj")
	cp.CreatedAt = time.Now().UTC()
	s.projects[cp.ID] = &cp
	return &cp, nil
}

func (s *fakeStore) GetProject(_ context.Context, id string) (*project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) ListProjects(_ context.Context) ([]project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []project.Project
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeStore) UpdateProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *fakeStore) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *fakeStore) AdvanceProjectNextCheck(_ context.Context, projectID string, nextCheck time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return domain.ErrNotFound
	}
	p.NextCheckAt = nextCheck
	return nil
}

func (s *fakeStore) ListProjectNotes(_ context.Context, projectID string, limit int) ([]project.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := s.notes[projectID]
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	out := make([]project.Note, len(notes))
	copy(out, notes)
	return out, nil
}

func (s *fakeStore) CreateProjectNote(_ context.Context, n *project.Note) (*project.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	cp.ID = s.nextID("note")
	cp.CreatedAt = time.Now().UTC()
	s.notes[cp.ProjectID] = append(s.notes[cp.ProjectID], cp)
	return &cp, nil
}

func (s *fakeStore) CreateContact(_ context.Context, c *contact.Contact) (*contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.ID = s.nextID("contact")
	cp.CreatedAt = time.Now().UTC()
	s.contacts[cp.ID] = &cp
	return &cp, nil
}

func (s *fakeStore) GetContact(_ context.Context, id string) (*contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) DeleteContact(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

func (s *fakeStore) ListContactsByProject(_ context.Context, projectID string) ([]contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []contact.Contact
	for _, cid := range s.links[projectID] {
		if c, ok := s.contacts[cid]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *fakeStore) LinkContact(_ context.Context, projectID, contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[projectID] = append(s.links[projectID], contactID)
	return nil
}

func (s *fakeStore) SearchContacts(_ context.Context, query string) ([]contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []contact.Contact
	for _, c := range s.contacts {
		if containsFold(c.Name, query) || containsFold(c.Role, query) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *fakeStore) GetContactByEmail(_ context.Context, email string) (*contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.contacts {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) CreateActionRecord(_ context.Context, r *action.Record) (*action.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	cp.ID = s.nextID("action")
	cp.CreatedAt = time.Now().UTC()
	s.actions[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *fakeStore) GetActionRecord(_ context.Context, id string) (*action.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.actions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) ListActionRecords(_ context.Context, projectID string, status action.Status) ([]action.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []action.Record
	for _, r := range s.actions {
		if r.ProjectID != projectID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeStore) UpdateActionStatus(_ context.Context, id string, status action.Status, executedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.actions[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = status
	if !executedAt.IsZero() {
		r.ExecutedAt = executedAt
	}
	return nil
}

func (s *fakeStore) CreateRun(_ context.Context, r *run.Run) (*run.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	// The real store inserts the caller's ID verbatim; only fill one in
	// when a test constructs a run directly.
	if cp.ID == "" {
		cp.ID = s.nextID("run")
	}
	s.runs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *fakeStore) GetRun(_ context.Context, id string) (*run.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) ListRunsByProject(_ context.Context, projectID string, limit int) ([]run.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []run.Run
	for _, r := range s.runs {
		if r.ProjectID == projectID {
			out = append(out, *r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) FinishRun(_ context.Context, r *run.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[r.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *r
	s.runs[r.ID] = &cp
	return nil
}

func (s *fakeStore) CreateToolCallLog(_ context.Context, l *run.ToolCallLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	cp.ID = s.nextID("tcl")
	cp.CreatedAt = time.Now().UTC()
	s.toolLogs[cp.RunID] = append(s.toolLogs[cp.RunID], cp)
	return nil
}

func (s *fakeStore) ListToolCallLogs(_ context.Context, runID string) ([]run.ToolCallLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := s.toolLogs[runID]
	out := make([]run.ToolCallLog, len(logs))
	copy(out, logs)
	return out, nil
}

func containsFold(haystack, needle string) bool {
	return needle != "" && strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// fakeLLM returns scripted completion responses in order.
type fakeLLM struct {
	mu        sync.Mutex
	responses []*llm.CompletionResponse
	errs      []error
	calls     int
	requests  []llm.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.requests = append(f.requests, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	// Default: keep requesting the same tool so loop bounds can be tested.
	return &llm.CompletionResponse{
		Message: conversation.Message{
			Role:    conversation.RoleAssistant,
			Content: "done",
		},
	}, nil
}
