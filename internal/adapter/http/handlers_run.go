package http

import (
	"net/http"
	"strconv"

	"github.com/stackline/foreman/internal/domain/run"
	"github.com/stackline/foreman/internal/service"
)

// StartRun handles POST /api/v1/projects/{id}/runs — it triggers one
// orchestration run and blocks until the run finishes.
func (h *Handlers) StartRun(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.RunRequest](w, r)
	if !ok {
		return
	}
	req.ProjectID = urlParam(r, "id")
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	result, err := h.Assistant.Run(r.Context(), req)
	if err != nil && result == nil {
		writeDomainError(w, err, "project not found")
		return
	}
	// Transport failures still produce a persisted run record; return it
	// with its failed status rather than masking it as a 500.
	writeJSON(w, http.StatusOK, result)
}

// ListProjectRuns handles GET /api/v1/projects/{id}/runs
func (h *Handlers) ListProjectRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	runs, err := h.Runs.ListByProject(r.Context(), urlParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	if runs == nil {
		runs = []run.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun handles GET /api/v1/runs/{id}
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.Runs.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetRunToolCalls handles GET /api/v1/runs/{id}/toolcalls
func (h *Handlers) GetRunToolCalls(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Runs.ToolCallLogs(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}
	if logs == nil {
		logs = []run.ToolCallLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
