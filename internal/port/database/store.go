// Package database defines the persistence port (interface).
package database

import (
	"context"
	"time"

	"github.com/stackline/foreman/internal/domain/action"
	"github.com/stackline/foreman/internal/domain/contact"
	"github.com/stackline/foreman/internal/domain/project"
	"github.com/stackline/foreman/internal/domain/run"
)

// Store is the port interface for the relational datastore. All writes are
// single-row upserts; consistency is last-write-wins per row.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, p *project.Project) (*project.Project, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	ListProjects(ctx context.Context) ([]project.Project, error)
	UpdateProject(ctx context.Context, p *project.Project) error
	DeleteProject(ctx context.Context, id string) error
	// AdvanceProjectNextCheck sets the project's next-check timestamp.
	AdvanceProjectNextCheck(ctx context.Context, projectID string, nextCheck time.Time) error
	ListProjectNotes(ctx context.Context, projectID string, limit int) ([]project.Note, error)
	CreateProjectNote(ctx context.Context, n *project.Note) (*project.Note, error)

	// Contacts
	CreateContact(ctx context.Context, c *contact.Contact) (*contact.Contact, error)
	GetContact(ctx context.Context, id string) (*contact.Contact, error)
	DeleteContact(ctx context.Context, id string) error
	// ListContactsByProject returns contacts linked to a project via the
	// project_contacts relation.
	ListContactsByProject(ctx context.Context, projectID string) ([]contact.Contact, error)
	LinkContact(ctx context.Context, projectID, contactID string) error
	// SearchContacts matches a name-or-role substring across all company
	// contacts, unscoped by project.
	SearchContacts(ctx context.Context, query string) ([]contact.Contact, error)
	GetContactByEmail(ctx context.Context, email string) (*contact.Contact, error)

	// Action records
	CreateActionRecord(ctx context.Context, r *action.Record) (*action.Record, error)
	GetActionRecord(ctx context.Context, id string) (*action.Record, error)
	ListActionRecords(ctx context.Context, projectID string, status action.Status) ([]action.Record, error)
	UpdateActionStatus(ctx context.Context, id string, status action.Status, executedAt time.Time) error

	// Runs
	CreateRun(ctx context.Context, r *run.Run) (*run.Run, error)
	GetRun(ctx context.Context, id string) (*run.Run, error)
	ListRunsByProject(ctx context.Context, projectID string, limit int) ([]run.Run, error)
	FinishRun(ctx context.Context, r *run.Run) error
	CreateToolCallLog(ctx context.Context, l *run.ToolCallLog) error
	ListToolCallLogs(ctx context.Context, runID string) ([]run.ToolCallLog, error)
}
