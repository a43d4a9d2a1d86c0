package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stackline/foreman/internal/domain/project"
	"github.com/stackline/foreman/internal/port/database"
)

// ProjectService owns project CRUD and note management.
type ProjectService struct {
	store database.Store
}

// NewProjectService creates a ProjectService.
func NewProjectService(store database.Store) *ProjectService {
	return &ProjectService{store: store}
}

// Create validates and persists a new project.
func (s *ProjectService) Create(ctx context.Context, req project.CreateRequest) (*project.Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("project name is required")
	}
	status := req.Status
	if status == "" {
		status = "active"
	}

	p, err := s.store.CreateProject(ctx, &project.Project{
		Name:    strings.TrimSpace(req.Name),
		Status:  status,
		Address: req.Address,
		OwnerID: req.OwnerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// Get returns one project.
func (s *ProjectService) Get(ctx context.Context, id string) (*project.Project, error) {
	return s.store.GetProject(ctx, id)
}

// List returns all projects in the caller's company.
func (s *ProjectService) List(ctx context.Context) ([]project.Project, error) {
	return s.store.ListProjects(ctx)
}

// Update persists changes to a project.
func (s *ProjectService) Update(ctx context.Context, p *project.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("project name is required")
	}
	return s.store.UpdateProject(ctx, p)
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteProject(ctx, id)
}

// AddNote appends a CRM note to a project.
func (s *ProjectService) AddNote(ctx context.Context, projectID, authorID, body string) (*project.Note, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("note body is required")
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.CreateProjectNote(ctx, &project.Note{
		ProjectID: projectID,
		AuthorID:  authorID,
		Body:      body,
	})
}

// Notes returns a project's most recent notes.
func (s *ProjectService) Notes(ctx context.Context, projectID string, limit int) ([]project.Note, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListProjectNotes(ctx, projectID, limit)
}
