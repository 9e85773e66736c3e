package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/noteservice"
)

// Defaults are the feed parameters applied when a request does not supply its
// own.
type Defaults struct {
	UserID           string
	IncludeCompleted bool
	MaxRecords       int
}

// Handler holds API route handlers.
type Handler struct {
	svc      *noteservice.Service
	defaults Defaults
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service, defaults Defaults) *Handler {
	return &Handler{svc: svc, defaults: defaults}
}

func (h *Handler) userFor(r *http.Request) string {
	if u := r.URL.Query().Get("user"); u != "" {
		return u
	}
	return h.defaults.UserID
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	owner := q.Get("owner")
	if owner == "" {
		owner = h.defaults.UserID
	}
	includeCompleted := h.defaults.IncludeCompleted
	if v := q.Get("include_completed"); v != "" {
		includeCompleted, _ = strconv.ParseBool(v)
	}
	maxRecords := h.defaults.MaxRecords
	if v := q.Get("max_records"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxRecords = n
		}
	}

	notes, err := h.svc.ListNotes(r.Context(), owner, includeCompleted, maxRecords)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	owner := req.OwnerID
	if owner == "" {
		owner = h.defaults.UserID
	}
	id, err := h.svc.CreateNote(r.Context(), models.Note{
		OwnerID:          owner,
		Text:             req.Text,
		Public:           req.Public,
		DueBy:            req.DueBy,
		TargetObjectType: req.TargetObjectType,
		TargetObjectName: req.TargetObjectName,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrEmptyText) {
			writeJSON(w, http.StatusBadRequest, errorBody("text is required"))
		} else {
			slog.Error("create note failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// UpdateNote handles PUT /api/notes/{id} with optional If-Match optimistic
// concurrency on the note text's checksum.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	err := h.svc.UpdateNoteChecked(r.Context(), id, req.Text, req.Public, ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrEmptyText):
			writeJSON(w, http.StatusBadRequest, errorBody("text is required"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			slog.Error("update note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus handles PATCH /api/notes/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.UpdateNoteStatus(r.Context(), id, req.Completed); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("update status failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNote handles DELETE /api/notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("delete note failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchLookup handles POST /api/lookup/records.
func (h *Handler) BatchLookup(w http.ResponseWriter, r *http.Request) {
	var req BatchLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	results, err := h.svc.BatchRecordIDs(r.Context(), req.NamesByType)
	if err != nil {
		slog.Error("batch lookup failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, BatchLookupResponse{Results: results})
}

// GetReminder handles GET /api/notes/{id}/reminder.
func (h *Handler) GetReminder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	exists, err := h.svc.ReminderExists(r.Context(), h.userFor(r), id)
	if err != nil {
		slog.Error("reminder check failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ReminderStateResponse{Exists: exists})
}

// PutReminder handles PUT /api/notes/{id}/reminder.
func (h *Handler) PutReminder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.CreateReminder(r.Context(), h.userFor(r), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("create reminder failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteReminder handles DELETE /api/notes/{id}/reminder.
func (h *Handler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.RemoveReminder(r.Context(), h.userFor(r), id); err != nil {
		slog.Error("remove reminder failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpsertRecord handles POST /api/records.
func (h *Handler) UpsertRecord(w http.ResponseWriter, r *http.Request) {
	var req UpsertRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ObjectType == "" || strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("object_type and name are required"))
		return
	}
	rec, err := h.svc.UpsertRecord(r.Context(), req.ObjectType, req.Name)
	if err != nil {
		slog.Error("upsert record failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
