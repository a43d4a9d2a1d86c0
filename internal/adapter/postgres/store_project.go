package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/stackline/foreman/internal/domain/project"
)

const projectColumns = `id, company_id, name, status, address, owner_id, next_check_at, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*project.Project, error) {
	var p project.Project
	var ownerID *string
	var nextCheck *time.Time
	err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Status, &p.Address, &ownerID, &nextCheck, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.OwnerID = derefString(ownerID)
	p.NextCheckAt = derefTime(nextCheck)
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *project.Project) (*project.Project, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO projects (company_id, name, status, address, owner_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+projectColumns,
		companyFromCtx(ctx), p.Name, p.Status, p.Address, nullIfEmpty(p.OwnerID),
	)
	created, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return created, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND company_id = $2`,
		id, companyFromCtx(ctx),
	)
	p, err := scanProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "get project %s", id)
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]project.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE company_id = $1 ORDER BY updated_at DESC`,
		companyFromCtx(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var result []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET name = $1, status = $2, address = $3, owner_id = $4, updated_at = NOW()
		 WHERE id = $5 AND company_id = $6`,
		p.Name, p.Status, p.Address, nullIfEmpty(p.OwnerID), p.ID, companyFromCtx(ctx),
	)
	return execExpectOne(tag, err, "update project %s", p.ID)
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM projects WHERE id = $1 AND company_id = $2`, id, companyFromCtx(ctx))
	return execExpectOne(tag, err, "delete project %s", id)
}

func (s *Store) AdvanceProjectNextCheck(ctx context.Context, projectID string, nextCheck time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET next_check_at = $1, updated_at = NOW() WHERE id = $2 AND company_id = $3`,
		nextCheck, projectID, companyFromCtx(ctx),
	)
	return execExpectOne(tag, err, "advance next check for project %s", projectID)
}

func (s *Store) ListProjectNotes(ctx context.Context, projectID string, limit int) ([]project.Note, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, author_id, body, created_at
		 FROM project_notes WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2`,
		projectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list project notes: %w", err)
	}
	defer rows.Close()

	var result []project.Note
	for rows.Next() {
		var n project.Note
		var authorID *string
		if err := rows.Scan(&n.ID, &n.ProjectID, &authorID, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project note: %w", err)
		}
		n.AuthorID = derefString(authorID)
		result = append(result, n)
	}
	return result, rows.Err()
}

func (s *Store) CreateProjectNote(ctx context.Context, n *project.Note) (*project.Note, error) {
	var created project.Note
	var authorID *string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO project_notes (project_id, author_id, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, project_id, author_id, body, created_at`,
		n.ProjectID, nullIfEmpty(n.AuthorID), n.Body,
	).Scan(&created.ID, &created.ProjectID, &authorID, &created.Body, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create project note: %w", err)
	}
	created.AuthorID = derefString(authorID)
	return &created, nil
}
