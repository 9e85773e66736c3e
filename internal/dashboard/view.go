package dashboard

import (
	"fmt"
	"time"

	"github.com/starford/dagaz/internal/models"
)

// Presentation classes derived from completion and reminder state.
const (
	textClass        = "note-text"
	textClassDone    = "note-text completed-note"
	cardClass        = "sticky-note"
	cardClassDone    = "sticky-note completed"
	completeBtnClass = "complete-icon-button"
	completeBtnDone  = "complete-icon-button completed"
	notifyBtnClass   = "notify-icon-button"
	notifyBtnSubbed  = "notify-icon-button pressed-notification"
	ownerNamePending = "Loading..."
	ownerNameUnknown = "Unknown User"
)

// NoteView wraps one persisted note with the client-only state the dashboard
// tracks between re-fetches. Views are value types: every mutation goes
// through replaceByID or mapViews, which return a fresh top-level slice and
// never modify an element in place.
type NoteView struct {
	models.Note

	IsEditing   bool
	IsCompleted bool
	IsPublic    bool

	HasReminder     bool
	RelatedRecordID string

	OwnerDisplay   string
	CreatedDisplay string
	DueDisplay     string

	// Derived presentation fields, pure functions of the state above.
	TextClass           string
	CardClass           string
	CompleteButtonClass string
	CompleteIconSrc     string
	NotifyButtonClass   string
	NotificationIconSrc string
}

// buildViews projects persisted notes into view models, preserving upstream
// order. Owner display attributes default defensively when the upstream row
// is missing them.
func buildViews(notes []models.Note, icons Icons) []NoteView {
	views := make([]NoteView, len(notes))
	for i, n := range notes {
		views[i] = buildView(n, icons)
	}
	return views
}

func buildView(n models.Note, icons Icons) NoteView {
	v := NoteView{
		Note:        n,
		IsCompleted: n.Completed,
		IsPublic:    n.Public,

		HasReminder:         false,
		NotifyButtonClass:   notifyBtnClass,
		NotificationIconSrc: icons.ReminderOff,

		OwnerDisplay:   ownerDisplay(n),
		CreatedDisplay: formatStamp(n.CreatedAt),
	}
	if n.DueBy != nil {
		v.DueDisplay = formatStamp(*n.DueBy)
	}
	return applyCompletion(v, icons)
}

// applyCompletion recomputes every presentation field that depends on
// IsCompleted. It is the only place those fields are assigned.
func applyCompletion(v NoteView, icons Icons) NoteView {
	if v.IsCompleted {
		v.TextClass = textClassDone
		v.CardClass = cardClassDone
		v.CompleteButtonClass = completeBtnDone
		v.CompleteIconSrc = icons.Completed
	} else {
		v.TextClass = textClass
		v.CardClass = cardClass
		v.CompleteButtonClass = completeBtnClass
		v.CompleteIconSrc = icons.Complete
	}
	return v
}

// applyReminder recomputes the reminder presentation fields from HasReminder.
func applyReminder(v NoteView, icons Icons) NoteView {
	if v.HasReminder {
		v.NotifyButtonClass = notifyBtnSubbed
		v.NotificationIconSrc = icons.ReminderOn
	} else {
		v.NotifyButtonClass = notifyBtnClass
		v.NotificationIconSrc = icons.ReminderOff
	}
	return v
}

func ownerDisplay(n models.Note) string {
	switch {
	case n.Owner.Name != "":
		return n.Owner.Name
	case n.OwnerID != "":
		return ownerNamePending
	default:
		return ownerNameUnknown
	}
}

// formatStamp renders a timestamp as mm/dd/yy h:mmam, the dashboard's compact
// display format.
func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	ampm := "am"
	if t.Hour() >= 12 {
		ampm = "pm"
	}
	return fmt.Sprintf("%02d/%02d/%02d %d:%02d%s",
		int(t.Month()), t.Day(), t.Year()%100, hour, t.Minute(), ampm)
}

// replaceByID returns a new slice with the entry matching id replaced by
// fn(entry); all other elements are carried over unchanged. When id is not
// present the input slice is returned as-is, so a patch for a note that was
// deleted or superseded by a re-fetch is a silent no-op.
func replaceByID(views []NoteView, id string, fn func(NoteView) NoteView) []NoteView {
	idx := -1
	for i := range views {
		if views[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return views
	}
	out := make([]NoteView, len(views))
	copy(out, views)
	out[idx] = fn(out[idx])
	return out
}

// findByID returns the entry matching id, if present.
func findByID(views []NoteView, id string) (NoteView, bool) {
	for _, v := range views {
		if v.ID == id {
			return v, true
		}
	}
	return NoteView{}, false
}

// mapViews returns a new slice with fn applied to every entry.
func mapViews(views []NoteView, fn func(NoteView) NoteView) []NoteView {
	out := make([]NoteView, len(views))
	for i, v := range views {
		out[i] = fn(v)
	}
	return out
}
