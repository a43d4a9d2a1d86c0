package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stackline/foreman/internal/domain"
	"github.com/stackline/foreman/internal/domain/contact"
	"github.com/stackline/foreman/internal/port/database"
)

// ResolverService fuzzy-matches a free-text name or role string to a
// canonical contact identity. An unresolved input is not an error: callers
// receive "" and degrade by keeping the raw string.
type ResolverService struct {
	store database.Store
}

// NewResolverService creates a ResolverService.
func NewResolverService(store database.Store) *ResolverService {
	return &ResolverService{store: store}
}

// matchFunc is one strategy in the resolution cascade. It returns the
// matched contact ID or "".
type matchFunc func(query string, contacts []contact.Contact) string

// projectMatchers is the ordered cascade applied to the project's own
// contacts. First non-empty result wins.
var projectMatchers = []matchFunc{
	matchExactName,
	matchCanonicalRole,
	matchPartialName,
	matchPartialRole,
}

// Resolve runs the matching cascade against the contacts linked to the
// given project, then falls back to a company-wide substring search and,
// for email-shaped input, an exact email lookup.
func (s *ResolverService) Resolve(ctx context.Context, query, projectID string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	contacts, err := s.store.ListContactsByProject(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("load project contacts: %w", err)
	}

	for _, match := range projectMatchers {
		if id := match(query, contacts); id != "" {
			return id, nil
		}
	}

	// Broader, unscoped search across all company contacts.
	found, err := s.store.SearchContacts(ctx, query)
	if err != nil {
		return "", fmt.Errorf("search contacts: %w", err)
	}
	if len(found) > 0 {
		if len(found) > 1 {
			slog.Debug("contact resolution ambiguous, taking first match",
				"query", query, "candidates", len(found))
		}
		return found[0].ID, nil
	}

	if contact.LooksLikeEmail(query) {
		c, err := s.store.GetContactByEmail(ctx, query)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", nil
			}
			return "", fmt.Errorf("lookup contact by email: %w", err)
		}
		return c.ID, nil
	}

	return "", nil
}

func matchExactName(query string, contacts []contact.Contact) string {
	for i := range contacts {
		if strings.EqualFold(strings.TrimSpace(query), strings.TrimSpace(contacts[i].Name)) {
			return contacts[i].ID
		}
	}
	return ""
}

func matchCanonicalRole(query string, contacts []contact.Contact) string {
	canonical := contact.CanonicalRole(query)
	for i := range contacts {
		if contact.CanonicalRole(contacts[i].Role) == canonical {
			return contacts[i].ID
		}
	}
	return ""
}

func matchPartialName(query string, contacts []contact.Contact) string {
	q := strings.ToLower(strings.TrimSpace(query))
	for i := range contacts {
		name := strings.ToLower(contacts[i].Name)
		if strings.Contains(name, q) || strings.Contains(q, name) {
			return contacts[i].ID
		}
	}
	return ""
}

func matchPartialRole(query string, contacts []contact.Contact) string {
	q := strings.ToLower(strings.TrimSpace(query))
	for i := range contacts {
		role := strings.ToLower(contacts[i].Role)
		if role == "" {
			continue
		}
		if strings.Contains(role, q) || strings.Contains(q, role) {
			return contacts[i].ID
		}
	}
	return ""
}
