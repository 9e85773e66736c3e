package api

import (
	"time"

	"github.com/starford/dagaz/internal/models"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	OwnerID          string     `json:"owner_id,omitempty"`
	Text             string     `json:"text"`
	Public           bool       `json:"public"`
	DueBy            *time.Time `json:"due_by,omitempty"`
	TargetObjectType string     `json:"target_object_type,omitempty"`
	TargetObjectName string     `json:"target_object_name,omitempty"`
}

// UpdateNoteRequest is the request body for updating a note's text and
// visibility.
type UpdateNoteRequest struct {
	Text   string `json:"text"`
	Public bool   `json:"public"`
}

// UpdateStatusRequest is the request body for setting a note's completion flag.
type UpdateStatusRequest struct {
	Completed bool `json:"completed"`
}

// BatchLookupRequest maps object types to the record names to resolve.
type BatchLookupRequest struct {
	NamesByType map[string][]string `json:"names_by_type"`
}

// BatchLookupResponse maps object types to name-to-id results.
type BatchLookupResponse struct {
	Results map[string]map[string]string `json:"results"`
}

// NoteListResponse wraps a note listing.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total"`
}

// CreatedResponse carries the id of a newly created resource.
type CreatedResponse struct {
	ID string `json:"id"`
}

// ReminderStateResponse reports whether a reminder subscription exists.
type ReminderStateResponse struct {
	Exists bool `json:"exists"`
}

// UpsertRecordRequest registers a lookup target record.
type UpsertRecordRequest struct {
	ObjectType string `json:"object_type"`
	Name       string `json:"name"`
}
