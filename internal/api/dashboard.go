package api

import (
	"encoding/json"
	"net/http"

	"github.com/starford/dagaz/internal/dashboard"
)

// DashboardHandler exposes the local dashboard controller over HTTP: a state
// snapshot for rendering, and a command endpoint mapping one-to-one onto the
// controller's operations. Commands are fire-and-forget; their outcomes reach
// the client as notification events on the SSE stream.
type DashboardHandler struct {
	ctrl *dashboard.Controller
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(ctrl *dashboard.Controller) *DashboardHandler {
	return &DashboardHandler{ctrl: ctrl}
}

// DashboardCommand is the request body for POST /api/dashboard/commands.
type DashboardCommand struct {
	Op     string `json:"op"`
	NoteID string `json:"note_id,omitempty"`
	Text   string `json:"text,omitempty"`
	Public bool   `json:"public,omitempty"`
}

// Snapshot handles GET /api/dashboard.
func (h *DashboardHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// Command handles POST /api/dashboard/commands.
func (h *DashboardHandler) Command(w http.ResponseWriter, r *http.Request) {
	var cmd DashboardCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	switch cmd.Op {
	case "start_compose":
		h.ctrl.StartCompose()
	case "cancel_compose":
		h.ctrl.CancelCompose()
	case "set_draft_text":
		h.ctrl.SetDraftText(cmd.Text)
	case "set_draft_public":
		h.ctrl.SetDraftPublic(cmd.Public)
	case "submit":
		h.ctrl.SubmitNote()
	case "set_note_public":
		h.ctrl.SetNotePublic(cmd.NoteID, cmd.Public)
	case "toggle_edit":
		h.ctrl.ToggleEdit(cmd.NoteID)
	case "edit_text":
		h.ctrl.EditText(cmd.NoteID, cmd.Text)
	case "cancel_edit":
		h.ctrl.CancelEdit(cmd.NoteID)
	case "save":
		h.ctrl.SaveNote(cmd.NoteID)
	case "toggle_complete":
		h.ctrl.ToggleComplete(cmd.NoteID)
	case "request_delete":
		h.ctrl.RequestDelete(cmd.NoteID)
	case "confirm_delete":
		h.ctrl.ConfirmDelete()
	case "cancel_delete":
		h.ctrl.CancelDelete()
	case "toggle_reminder":
		h.ctrl.ToggleReminder(cmd.NoteID)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("unknown op"))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
