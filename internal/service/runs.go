package service

import (
	"context"

	"github.com/stackline/foreman/internal/domain/run"
	"github.com/stackline/foreman/internal/port/database"
)

// RunService exposes read access to run history and per-dispatch logs.
type RunService struct {
	store database.Store
}

// NewRunService creates a RunService.
func NewRunService(store database.Store) *RunService {
	return &RunService{store: store}
}

// Get returns one run.
func (s *RunService) Get(ctx context.Context, id string) (*run.Run, error) {
	return s.store.GetRun(ctx, id)
}

// ListByProject returns a project's most recent runs.
func (s *RunService) ListByProject(ctx context.Context, projectID string, limit int) ([]run.Run, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListRunsByProject(ctx, projectID, limit)
}

// ToolCallLogs returns the tool-dispatch trail for a run.
func (s *RunService) ToolCallLogs(ctx context.Context, runID string) ([]run.ToolCallLog, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.store.ListToolCallLogs(ctx, runID)
}
