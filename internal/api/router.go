package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/dashboard"
	"github.com/starford/dagaz/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// ctrl, if non-nil, mounts the dashboard snapshot and command endpoints.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, defaults Defaults, ctrl *dashboard.Controller,
	authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, defaults)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Patch("/notes/{id}/status", h.UpdateStatus)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Reminder subscriptions.
	r.Get("/notes/{id}/reminder", h.GetReminder)
	r.Put("/notes/{id}/reminder", h.PutReminder)
	r.Delete("/notes/{id}/reminder", h.DeleteReminder)

	// Record lookups.
	r.Post("/lookup/records", h.BatchLookup)
	r.Post("/records", h.UpsertRecord)

	// Dashboard.
	if ctrl != nil {
		dh := NewDashboardHandler(ctrl)
		r.Get("/dashboard", dh.Snapshot)
		r.Post("/dashboard/commands", dh.Command)
	}

	// SSE events.
	if sseHandler != nil {
		r.Method(http.MethodGet, "/events", sseHandler)
	}

	return r
}
