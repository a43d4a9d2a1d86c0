package postgres

import (
	"context"
	"fmt"

	"github.com/stackline/foreman/internal/domain/contact"
)

const contactColumns = `id, company_id, name, role, email, phone, created_at`

func scanContact(row interface{ Scan(...any) error }) (*contact.Contact, error) {
	var c contact.Contact
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Role, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateContact(ctx context.Context, c *contact.Contact) (*contact.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (company_id, name, role, email, phone)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+contactColumns,
		companyFromCtx(ctx), c.Name, c.Role, c.Email, c.Phone,
	)
	created, err := scanContact(row)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return created, nil
}

func (s *Store) GetContact(ctx context.Context, id string) (*contact.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND company_id = $2`,
		id, companyFromCtx(ctx),
	)
	c, err := scanContact(row)
	if err != nil {
		return nil, notFoundWrap(err, "get contact %s", id)
	}
	return c, nil
}

func (s *Store) DeleteContact(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM contacts WHERE id = $1 AND company_id = $2`, id, companyFromCtx(ctx))
	return execExpectOne(tag, err, "delete contact %s", id)
}

func (s *Store) ListContactsByProject(ctx context.Context, projectID string) ([]contact.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.company_id, c.name, c.role, c.email, c.phone, c.created_at
		 FROM contacts c
		 JOIN project_contacts pc ON pc.contact_id = c.id
		 WHERE pc.project_id = $1 AND c.company_id = $2
		 ORDER BY c.name ASC`,
		projectID, companyFromCtx(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("list contacts for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var result []contact.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (s *Store) LinkContact(ctx context.Context, projectID, contactID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO project_contacts (project_id, contact_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		projectID, contactID,
	)
	if err != nil {
		return fmt.Errorf("link contact %s to project %s: %w", contactID, projectID, err)
	}
	return nil
}

func (s *Store) SearchContacts(ctx context.Context, query string) ([]contact.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE company_id = $1 AND (name ILIKE '%' || $2 || '%' OR role ILIKE '%' || $2 || '%')
		 ORDER BY name ASC LIMIT 10`,
		companyFromCtx(ctx), query,
	)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	defer rows.Close()

	var result []contact.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (s *Store) GetContactByEmail(ctx context.Context, email string) (*contact.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE company_id = $1 AND LOWER(email) = LOWER($2) LIMIT 1`,
		companyFromCtx(ctx), email,
	)
	c, err := scanContact(row)
	if err != nil {
		return nil, notFoundWrap(err, "get contact by email")
	}
	return c, nil
}
