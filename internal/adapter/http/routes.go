package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	if h.Hub != nil {
		r.Get("/ws", h.Hub.HandleWS)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Projects
		r.Get("/projects", h.ListProjects)
		r.Post("/projects", h.CreateProject)
		r.Get("/projects/{id}", h.GetProject)
		r.Put("/projects/{id}", h.UpdateProject)
		r.Delete("/projects/{id}", h.DeleteProject)

		// Notes (nested under projects)
		r.Get("/projects/{id}/notes", h.ListProjectNotes)
		r.Post("/projects/{id}/notes", h.CreateProjectNote)

		// Contacts
		r.Get("/contacts", h.SearchContacts)
		r.Post("/contacts", h.CreateContact)
		r.Get("/contacts/{id}", h.GetContact)
		r.Delete("/contacts/{id}", h.DeleteContact)
		r.Get("/projects/{id}/contacts", h.ListProjectContacts)
		r.Post("/projects/{id}/contacts", h.LinkProjectContact)

		// Action records and the approval flow
		r.Get("/projects/{id}/actions", h.ListProjectActions)
		r.Get("/actions/{id}", h.GetAction)
		r.Post("/actions/{id}/approve", h.ApproveAction)
		r.Post("/actions/{id}/reject", h.RejectAction)

		// Assistant runs
		r.Post("/projects/{id}/runs", h.StartRun)
		r.Get("/projects/{id}/runs", h.ListProjectRuns)
		r.Get("/runs/{id}", h.GetRun)
		r.Get("/runs/{id}/toolcalls", h.GetRunToolCalls)
	})
}
