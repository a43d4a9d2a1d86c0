package http

import (
	"net/http"

	"github.com/stackline/foreman/internal/adapter/ws"
	"github.com/stackline/foreman/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Projects  *service.ProjectService
	Contacts  *service.ContactService
	Actions   *service.ActionService
	Runs      *service.RunService
	Assistant *service.AssistantService
	Hub       *ws.Hub
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
