// Package noteservice implements the persistence operations the dashboard and
// the REST API depend on: note CRUD, reminder subscriptions, and the batched
// record-id lookup.
package noteservice

import (
	"context"
	"strings"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/checksum"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/sse"
	"github.com/starford/dagaz/internal/store"
)

// Service coordinates the store and publishes change events.
type Service struct {
	db     store.NoteStore
	broker *sse.Broker
}

// NewService creates a new note service. broker may be nil in tests.
func NewService(db store.NoteStore, broker *sse.Broker) *Service {
	return &Service{db: db, broker: broker}
}

func (s *Service) publish(kind, id string) {
	if s.broker != nil {
		s.broker.PublishNoteEvent(kind, id)
	}
}

// ListNotes returns the owner's notes, newest first, with content checksums
// filled in for optimistic-concurrency updates.
func (s *Service) ListNotes(_ context.Context, ownerID string, includeCompleted bool, maxRecords int) ([]models.Note, error) {
	notes, err := s.db.ListNotes(ownerID, includeCompleted, maxRecords)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		notes[i].Checksum = checksum.Sum([]byte(notes[i].Text))
	}
	return notes, nil
}

// GetNote returns a single note by id.
func (s *Service) GetNote(_ context.Context, id string) (*models.Note, error) {
	n, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	n.Checksum = checksum.Sum([]byte(n.Text))
	return n, nil
}

// CreateNote stores a new note and returns its id.
func (s *Service) CreateNote(_ context.Context, n models.Note) (string, error) {
	if strings.TrimSpace(n.Text) == "" {
		return "", apperr.ErrEmptyText
	}
	id, err := s.db.InsertNote(n)
	if err != nil {
		return "", err
	}
	s.publish("created", id)
	return id, nil
}

// UpdateNote replaces a note's text and visibility flag.
func (s *Service) UpdateNote(_ context.Context, id, text string, public bool) error {
	if strings.TrimSpace(text) == "" {
		return apperr.ErrEmptyText
	}
	if err := s.db.UpdateNoteText(id, text, public); err != nil {
		return err
	}
	s.publish("updated", id)
	return nil
}

// UpdateNoteChecked is UpdateNote with optimistic concurrency: when ifMatch is
// non-empty it must equal the checksum of the currently stored text.
func (s *Service) UpdateNoteChecked(ctx context.Context, id, text string, public bool, ifMatch string) error {
	if ifMatch != "" {
		existing, err := s.db.GetNote(id)
		if err != nil {
			return err
		}
		if ifMatch != checksum.Sum([]byte(existing.Text)) {
			return apperr.ErrConflict
		}
	}
	return s.UpdateNote(ctx, id, text, public)
}

// UpdateNoteStatus sets a note's completion flag.
func (s *Service) UpdateNoteStatus(_ context.Context, id string, completed bool) error {
	if err := s.db.UpdateNoteStatus(id, completed); err != nil {
		return err
	}
	s.publish("updated", id)
	return nil
}

// DeleteNote removes a note and its reminder subscriptions.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	if err := s.db.DeleteNote(id); err != nil {
		return err
	}
	s.publish("deleted", id)
	return nil
}

// BatchRecordIDs resolves record ids for display names grouped by object type.
// An empty request map short-circuits to an empty result.
func (s *Service) BatchRecordIDs(_ context.Context, namesByType map[string][]string) (map[string]map[string]string, error) {
	if len(namesByType) == 0 {
		return map[string]map[string]string{}, nil
	}
	return s.db.BatchRecordIDs(namesByType)
}

// ReminderExists reports whether the user is subscribed to the note.
func (s *Service) ReminderExists(_ context.Context, userID, noteID string) (bool, error) {
	return s.db.ReminderExists(userID, noteID)
}

// CreateReminder subscribes the user to the note. The note must exist.
func (s *Service) CreateReminder(_ context.Context, userID, noteID string) error {
	if _, err := s.db.GetNote(noteID); err != nil {
		return err
	}
	return s.db.InsertReminder(userID, noteID)
}

// RemoveReminder removes the user's subscription on the note.
func (s *Service) RemoveReminder(_ context.Context, userID, noteID string) error {
	return s.db.DeleteReminder(userID, noteID)
}

// UpsertRecord registers a lookup target record.
func (s *Service) UpsertRecord(_ context.Context, objectType, name string) (models.Record, error) {
	return s.db.UpsertRecord(objectType, name)
}
