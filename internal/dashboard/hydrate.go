package dashboard

import "log/slog"

// hydrateReminders issues one independent reminder-existence check per note.
// Calls are deliberately not batched: reminder state is cosmetic and off the
// critical path of first paint, and the per-note fan-out keeps one note's
// failure from affecting any other. Results arrive in any order and are
// spliced in by id, so a check completing after a re-fetch or delete simply
// lands as a no-op.
func (c *Controller) hydrateReminders(views []NoteView) {
	for _, v := range views {
		noteID := v.ID
		go func() {
			exists, err := c.api.ReminderExists(c.ctx, c.userID, noteID)
			if err != nil {
				c.logger.Error("reminder hydration failed",
					slog.String("note_id", noteID), slog.String("error", err.Error()))
				return
			}
			c.post(func() {
				c.views = replaceByID(c.views, noteID, func(v NoteView) NoteView {
					v.HasReminder = exists
					return applyReminder(v, c.icons)
				})
			})
		}()
	}
}

// resolveRecordLinks issues at most one batched record-id lookup for the
// current refresh cycle. When no note names a target there is no call at all.
// A rejected batch is logged and otherwise inert: the affected notes simply
// stay unlinked until the next refresh.
func (c *Controller) resolveRecordLinks(views []NoteView) {
	namesByType := buildBatchLookup(views)
	if len(namesByType) == 0 {
		return
	}
	go func() {
		results, err := c.api.BatchRecordIDs(c.ctx, namesByType)
		if err != nil {
			c.logger.Error("batch record lookup failed", slog.String("error", err.Error()))
			return
		}
		normalized := normalizeBatchResults(results)
		c.post(func() {
			c.views = applyBatchResults(c.views, normalized)
		})
	}()
}
