package http

import (
	"net/http"

	"github.com/stackline/foreman/internal/domain/action"
)

// ListProjectActions handles GET /api/v1/projects/{id}/actions?status=
func (h *Handlers) ListProjectActions(w http.ResponseWriter, r *http.Request) {
	status := action.Status(r.URL.Query().Get("status"))
	records, err := h.Actions.List(r.Context(), urlParam(r, "id"), status)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	if records == nil {
		records = []action.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetAction handles GET /api/v1/actions/{id}
func (h *Handlers) GetAction(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Actions.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "action not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ApproveAction handles POST /api/v1/actions/{id}/approve
func (h *Handlers) ApproveAction(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Actions.Approve(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "action not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// RejectAction handles POST /api/v1/actions/{id}/reject
func (h *Handlers) RejectAction(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Actions.Reject(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "action not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
