// Package dashboard implements the note-dashboard reconciliation engine: an
// in-memory view of the current user's notes, rebuilt from a reactive feed and
// enriched asynchronously with reminder state and resolved record links, plus
// the user-facing mutation operations that keep that view consistent while any
// number of remote calls are in flight.
package dashboard

import (
	"context"

	"github.com/starford/dagaz/internal/models"
)

// API is the persistence contract the controller depends on. It is satisfied
// by *noteservice.Service; tests substitute fakes.
type API interface {
	CreateNote(ctx context.Context, n models.Note) (string, error)
	UpdateNote(ctx context.Context, id, text string, public bool) error
	UpdateNoteStatus(ctx context.Context, id string, completed bool) error
	DeleteNote(ctx context.Context, id string) error
	BatchRecordIDs(ctx context.Context, namesByType map[string][]string) (map[string]map[string]string, error)
	ReminderExists(ctx context.Context, userID, noteID string) (bool, error)
	CreateReminder(ctx context.Context, userID, noteID string) error
	RemoveReminder(ctx context.Context, userID, noteID string) error
}

// FeedState is one transition of the upstream note feed.
type FeedState struct {
	Notes   []models.Note
	Err     error
	Loading bool
}

// Feed is the reactive data source supplying the current note list. Subscribe
// registers a callback for state transitions and returns a cancel function;
// Invalidate forces a re-fetch (delivered through the same callback).
type Feed interface {
	Subscribe(cb func(FeedState)) (cancel func())
	Invalidate()
}

// Severity classifies a user-facing notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a transient user-facing message (toast).
type Notification struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// NotifyFunc receives notifications emitted by the controller. It is called
// from the controller's event loop and must not block.
type NotifyFunc func(Notification)

// Icons is the asset registry handed to the controller at construction. The
// controller never reads icon locations from package state.
type Icons struct {
	Edit        string
	Delete      string
	Complete    string
	Completed   string
	ReminderOn  string
	ReminderOff string
}
