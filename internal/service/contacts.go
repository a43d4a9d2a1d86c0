package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stackline/foreman/internal/domain/contact"
	"github.com/stackline/foreman/internal/port/database"
)

// ContactService owns contact CRUD and project linkage.
type ContactService struct {
	store database.Store
}

// NewContactService creates a ContactService.
func NewContactService(store database.Store) *ContactService {
	return &ContactService{store: store}
}

// Create validates and persists a new contact. The role is stored
// canonicalized so the resolver's role matching stays cheap.
func (s *ContactService) Create(ctx context.Context, c *contact.Contact) (*contact.Contact, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, errors.New("contact name is required")
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Role = contact.CanonicalRole(c.Role)

	created, err := s.store.CreateContact(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return created, nil
}

// Get returns one contact.
func (s *ContactService) Get(ctx context.Context, id string) (*contact.Contact, error) {
	return s.store.GetContact(ctx, id)
}

// Delete removes a contact.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteContact(ctx, id)
}

// ListByProject returns the contacts linked to a project.
func (s *ContactService) ListByProject(ctx context.Context, projectID string) ([]contact.Contact, error) {
	return s.store.ListContactsByProject(ctx, projectID)
}

// Link attaches an existing contact to a project.
func (s *ContactService) Link(ctx context.Context, projectID, contactID string) error {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return err
	}
	if _, err := s.store.GetContact(ctx, contactID); err != nil {
		return err
	}
	return s.store.LinkContact(ctx, projectID, contactID)
}

// Search matches a name-or-role substring across the company's contacts.
func (s *ContactService) Search(ctx context.Context, query string) ([]contact.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}
	return s.store.SearchContacts(ctx, query)
}
