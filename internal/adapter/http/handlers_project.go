package http

import (
	"net/http"
	"strconv"

	"github.com/stackline/foreman/internal/domain/project"
)

// ListProjects handles GET /api/v1/projects
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Projects.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "projects not found")
		return
	}
	if projects == nil {
		projects = []project.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreateProject handles POST /api/v1/projects
func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[project.CreateRequest](w, r)
	if !ok {
		return
	}
	p, err := h.Projects.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetProject handles GET /api/v1/projects/{id}
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Projects.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProject handles PUT /api/v1/projects/{id}
func (h *Handlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	p, ok := readJSON[project.Project](w, r)
	if !ok {
		return
	}
	p.ID = urlParam(r, "id")
	if err := h.Projects.Update(r.Context(), &p); err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /api/v1/projects/{id}
func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.Projects.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProjectNotes handles GET /api/v1/projects/{id}/notes
func (h *Handlers) ListProjectNotes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	notes, err := h.Projects.Notes(r.Context(), urlParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	if notes == nil {
		notes = []project.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// CreateProjectNote handles POST /api/v1/projects/{id}/notes
func (h *Handlers) CreateProjectNote(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		AuthorID string `json:"author_id"`
		Body     string `json:"body"`
	}](w, r)
	if !ok {
		return
	}
	note, err := h.Projects.AddNote(r.Context(), urlParam(r, "id"), req.AuthorID, req.Body)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}
