package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/starford/dagaz/internal/models"
)

// Snapshot is a consistent copy of the dashboard state, taken on the event
// loop. The Notes slice is safe to hold: mutations always build a fresh
// top-level slice, so a snapshot never observes a partial update.
type Snapshot struct {
	Notes    []NoteView `json:"notes"`
	HasNotes bool       `json:"has_notes"`
	Loading  bool       `json:"loading"`

	Composing   bool   `json:"composing"`
	DraftText   string `json:"draft_text"`
	DraftPublic bool   `json:"draft_public"`

	DeleteConfirmOpen bool   `json:"delete_confirm_open"`
	PendingDeleteID   string `json:"pending_delete_id,omitempty"`
}

// Controller orchestrates the note dashboard: it reacts to the upstream feed,
// fans out reminder and record-link hydration, and implements the user-facing
// operations with their success/failure side effects.
//
// Concurrency model: a single internal event loop (goroutine) owns all
// mutable state. Public methods post closures to this loop through a command
// channel, and remote calls run in spawned goroutines whose completions post
// patch closures back, so no mutexes are required and no reader ever observes
// a half-applied update. Every patch is keyed by note id and is a silent
// no-op when the id has since disappeared, which makes late-arriving results
// harmless regardless of completion order.
type Controller struct {
	api    API
	feed   Feed
	icons  Icons
	userID string
	notify NotifyFunc
	logger *slog.Logger

	ctx        context.Context
	cmds       chan func()
	stopCh     chan struct{}
	stopped    chan struct{}
	closed     atomic.Bool
	cancelFeed func()

	// Event-loop-owned state.
	views       []NoteView
	loading     bool
	composing   bool
	draftText   string
	draftPublic bool

	deleteConfirmOpen bool
	pendingDeleteID   string
}

// NewController creates a dashboard controller for the given user. notify may
// be nil when no notification sink is attached.
func NewController(api API, feed Feed, icons Icons, userID string, notify NotifyFunc, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		api:     api,
		feed:    feed,
		icons:   icons,
		userID:  userID,
		notify:  notify,
		logger:  logger,
		cmds:    make(chan func(), 128),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the event loop and subscribes to the upstream feed. ctx is
// the base context for all remote calls issued by the controller.
func (c *Controller) Start(ctx context.Context) {
	c.ctx = ctx
	go c.run()
	c.cancelFeed = c.feed.Subscribe(func(st FeedState) {
		c.post(func() { c.handleFeed(st) })
	})
}

// Close stops the event loop. In-flight remote calls are left to complete;
// their results are dropped by the closed command channel.
func (c *Controller) Close() {
	if c.closed.CompareAndSwap(false, true) {
		if c.cancelFeed != nil {
			c.cancelFeed()
		}
		close(c.stopCh)
	}
	<-c.stopped
}

func (c *Controller) run() {
	defer close(c.stopped)
	for {
		select {
		case <-c.stopCh:
			return
		case fn := <-c.cmds:
			fn()
		}
	}
}

// post schedules fn on the event loop. Returns false when the controller has
// stopped, in which case fn is dropped.
func (c *Controller) post(fn func()) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.cmds <- fn:
		return true
	case <-c.stopped:
		return false
	}
}

func (c *Controller) toast(title, message string, severity Severity) {
	if c.notify != nil {
		c.notify(Notification{Title: title, Message: message, Severity: severity})
	}
}

// Snapshot returns a consistent copy of the current dashboard state. A zero
// Snapshot is returned after Close.
func (c *Controller) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	if !c.post(func() { reply <- c.currentSnapshot() }) {
		return Snapshot{}
	}
	select {
	case s := <-reply:
		return s
	case <-c.stopped:
		return Snapshot{}
	}
}

func (c *Controller) currentSnapshot() Snapshot {
	return Snapshot{
		Notes:             c.views,
		HasNotes:          len(c.views) > 0,
		Loading:           c.loading,
		Composing:         c.composing,
		DraftText:         c.draftText,
		DraftPublic:       c.draftPublic,
		DeleteConfirmOpen: c.deleteConfirmOpen,
		PendingDeleteID:   c.pendingDeleteID,
	}
}

// handleFeed processes one upstream feed transition. A data delivery rebuilds
// the whole view list (client-only state like open editors is reset, accepted
// behavior) and fans out both enrichment passes.
func (c *Controller) handleFeed(st FeedState) {
	switch {
	case st.Err != nil:
		c.loading = false
		c.logger.Error("note feed error", slog.String("error", st.Err.Error()))
		c.toast("Error", "Failed to load notes.", SeverityError)
	case st.Loading:
		c.loading = true
	default:
		c.loading = false
		c.views = buildViews(st.Notes, c.icons)
		c.resolveRecordLinks(c.views)
		c.hydrateReminders(c.views)
	}
}

// StartCompose opens the new-note composer.
func (c *Controller) StartCompose() {
	c.post(func() {
		c.composing = true
		c.draftPublic = false
	})
}

// CancelCompose closes the composer and clears the draft.
func (c *Controller) CancelCompose() {
	c.post(func() {
		c.composing = false
		c.draftText = ""
		c.draftPublic = false
	})
}

// SetDraftText updates the composer draft text (per keystroke, local only).
func (c *Controller) SetDraftText(text string) {
	c.post(func() { c.draftText = text })
}

// SetDraftPublic updates the composer visibility flag.
func (c *Controller) SetDraftPublic(public bool) {
	c.post(func() { c.draftPublic = public })
}

// SetNotePublic patches an existing note's visibility flag locally; the value
// is persisted by the next SaveNote.
func (c *Controller) SetNotePublic(id string, public bool) {
	c.post(func() {
		c.views = replaceByID(c.views, id, func(v NoteView) NoteView {
			v.IsPublic = public
			return v
		})
	})
}

// SubmitNote creates a note from the current draft. On success the composer
// is cleared and a full re-fetch is triggered; on failure the composer stays
// open with the entered text intact.
func (c *Controller) SubmitNote() {
	c.post(func() {
		if c.draftText == "" {
			return
		}
		n := models.Note{OwnerID: c.userID, Text: c.draftText, Public: c.draftPublic}
		go func() {
			if _, err := c.api.CreateNote(c.ctx, n); err != nil {
				c.logger.Error("create note failed", slog.String("error", err.Error()))
				c.post(func() { c.toast("Error", "Failed to create note.", SeverityError) })
				return
			}
			c.post(func() {
				c.composing = false
				c.draftText = ""
				c.draftPublic = false
				c.feed.Invalidate()
			})
		}()
	})
}

// ToggleEdit opens or closes the inline editor for one note.
func (c *Controller) ToggleEdit(id string) {
	c.post(func() {
		c.views = replaceByID(c.views, id, func(v NoteView) NoteView {
			v.IsEditing = !v.IsEditing
			return v
		})
	})
}

// EditText patches one note's text locally (per keystroke); nothing is sent
// upstream until SaveNote.
func (c *Controller) EditText(id, text string) {
	c.post(func() {
		c.views = replaceByID(c.views, id, func(v NoteView) NoteView {
			v.Text = text
			return v
		})
	})
}

// CancelEdit closes one note's inline editor without saving.
func (c *Controller) CancelEdit(id string) {
	c.post(func() {
		c.views = replaceByID(c.views, id, func(v NoteView) NoteView {
			v.IsEditing = false
			return v
		})
	})
}

// SaveNote persists one note's current text and visibility flag. On success
// the editor closes; on failure it stays open so the draft is not lost.
func (c *Controller) SaveNote(id string) {
	c.post(func() {
		view, ok := findByID(c.views, id)
		if !ok {
			return
		}
		if strings.TrimSpace(view.Text) == "" {
			return
		}
		text, public := view.Text, view.IsPublic
		go func() {
			if err := c.api.UpdateNote(c.ctx, id, text, public); err != nil {
				c.logger.Error("update note failed",
					slog.String("note_id", id), slog.String("error", err.Error()))
				c.post(func() { c.toast("Error", "Failed to update note.", SeverityError) })
				return
			}
			c.post(func() {
				c.views = replaceByID(c.views, id, func(v NoteView) NoteView {
					v.IsEditing = false
					return v
				})
				c.toast("Success", "Note updated.", SeveritySuccess)
			})
		}()
	})
}

// ToggleComplete flips one note's completion state optimistically: the view
// (and its derived presentation fields) updates immediately, then the remote
// status update is issued. A rejection is logged and surfaced but the local
// flip stays, so the view can diverge from the server until the next re-fetch.
func (c *Controller) ToggleComplete(id string) {
	c.post(func() {
		view, ok := findByID(c.views, id)
		if !ok {
			return
		}
		newStatus := !view.IsCompleted
		c.views = replaceByID(c.views, id, func(v NoteView) NoteView {
			v.IsCompleted = newStatus
			return applyCompletion(v, c.icons)
		})
		go func() {
			if err := c.api.UpdateNoteStatus(c.ctx, id, newStatus); err != nil {
				c.logger.Error("update note status failed; local view now diverges until next refresh",
					slog.String("note_id", id), slog.String("error", err.Error()))
				c.post(func() {
					c.toast("Error", "Failed to update note completion status.", SeverityError)
				})
				return
			}
			word := "uncompleted"
			if newStatus {
				word = "completed"
			}
			c.post(func() {
				c.toast("Note Updated", fmt.Sprintf("Note successfully %s.", word), SeveritySuccess)
			})
		}()
	})
}

// RequestDelete opens the delete confirmation, holding the target id.
func (c *Controller) RequestDelete(id string) {
	c.post(func() {
		if _, ok := findByID(c.views, id); !ok {
			return
		}
		c.pendingDeleteID = id
		c.deleteConfirmOpen = true
	})
}

// CancelDelete closes the confirmation without deleting.
func (c *Controller) CancelDelete() {
	c.post(func() { c.clearDeleteState() })
}

// ConfirmDelete deletes the pending note. The confirmation state is cleared
// on success and failure alike; a failed delete is never silently retried.
func (c *Controller) ConfirmDelete() {
	c.post(func() {
		if c.pendingDeleteID == "" {
			return
		}
		id := c.pendingDeleteID
		go func() {
			if err := c.api.DeleteNote(c.ctx, id); err != nil {
				c.logger.Error("delete note failed",
					slog.String("note_id", id), slog.String("error", err.Error()))
				c.post(func() {
					c.toast("Error", "Failed to delete note.", SeverityError)
					c.clearDeleteState()
				})
				return
			}
			c.post(func() {
				c.toast("Deleted", "Note deleted.", SeveritySuccess)
				c.clearDeleteState()
				c.feed.Invalidate()
			})
		}()
	})
}

func (c *Controller) clearDeleteState() {
	c.deleteConfirmOpen = false
	c.pendingDeleteID = ""
}

// ToggleReminder flips the user's reminder subscription on one note,
// pessimistically: the server is asked whether a subscription exists before
// deciding to create or remove one, because correctness depends on server
// state, not the local flag. A race window remains between the check and the
// act if another session toggles concurrently; the store's idempotent insert
// keeps the worst case at a no-op. Each stage's failure is caught, logged,
// and surfaced independently, leaving the note's reminder fields unchanged.
// On success the local patch lands first and the re-fetch second.
func (c *Controller) ToggleReminder(id string) {
	c.post(func() {
		if _, ok := findByID(c.views, id); !ok {
			return
		}
		go func() {
			exists, err := c.api.ReminderExists(c.ctx, c.userID, id)
			if err != nil {
				c.logger.Error("reminder existence check failed",
					slog.String("note_id", id), slog.String("error", err.Error()))
				c.post(func() {
					c.toast("Error", "Failed to check notification status.", SeverityError)
				})
				return
			}
			if !exists {
				if err := c.api.CreateReminder(c.ctx, c.userID, id); err != nil {
					c.logger.Error("create reminder failed",
						slog.String("note_id", id), slog.String("error", err.Error()))
					c.post(func() {
						c.toast("Error", "Failed to enable notification.", SeverityError)
					})
					return
				}
				c.post(func() {
					c.views = replaceByID(c.views, id, func(v NoteView) NoteView {
						v.HasReminder = true
						return applyReminder(v, c.icons)
					})
					c.toast("Notification Enabled", "You will be notified about this note.", SeveritySuccess)
					c.feed.Invalidate()
				})
				return
			}
			if err := c.api.RemoveReminder(c.ctx, c.userID, id); err != nil {
				c.logger.Error("remove reminder failed",
					slog.String("note_id", id), slog.String("error", err.Error()))
				c.post(func() {
					c.toast("Error", "Failed to disable notification.", SeverityError)
				})
				return
			}
			c.post(func() {
				c.views = replaceByID(c.views, id, func(v NoteView) NoteView {
					v.HasReminder = false
					return applyReminder(v, c.icons)
				})
				c.toast("Notification Disabled", "You will no longer be notified about this note.", SeveritySuccess)
				c.feed.Invalidate()
			})
		}()
	})
}
