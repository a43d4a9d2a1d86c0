package http

import (
	"net/http"

	"github.com/stackline/foreman/internal/domain/contact"
)

// CreateContact handles POST /api/v1/contacts
func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	c, ok := readJSON[contact.Contact](w, r)
	if !ok {
		return
	}
	created, err := h.Contacts.Create(r.Context(), &c)
	if err != nil {
		writeDomainError(w, err, "contact not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetContact handles GET /api/v1/contacts/{id}
func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	c, err := h.Contacts.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "contact not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteContact handles DELETE /api/v1/contacts/{id}
func (h *Handlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.Contacts.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "contact not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchContacts handles GET /api/v1/contacts?q=
func (h *Handlers) SearchContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Contacts.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, err, "contacts not found")
		return
	}
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

// ListProjectContacts handles GET /api/v1/projects/{id}/contacts
func (h *Handlers) ListProjectContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Contacts.ListByProject(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

// LinkProjectContact handles POST /api/v1/projects/{id}/contacts
func (h *Handlers) LinkProjectContact(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		ContactID string `json:"contact_id"`
	}](w, r)
	if !ok {
		return
	}
	if req.ContactID == "" {
		writeError(w, http.StatusBadRequest, "contact_id is required")
		return
	}
	if err := h.Contacts.Link(r.Context(), urlParam(r, "id"), req.ContactID); err != nil {
		writeDomainError(w, err, "project or contact not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
