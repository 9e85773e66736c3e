package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
)

// NoteStore defines the persistence operations the service layer depends on.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type NoteStore interface {
	ListNotes(ownerID string, includeCompleted bool, maxRecords int) ([]models.Note, error)
	GetNote(id string) (*models.Note, error)
	InsertNote(n models.Note) (string, error)
	UpdateNoteText(id, text string, public bool) error
	UpdateNoteStatus(id string, completed bool) error
	DeleteNote(id string) error
	ReminderExists(userID, noteID string) (bool, error)
	InsertReminder(userID, noteID string) error
	DeleteReminder(userID, noteID string) error
	BatchRecordIDs(namesByType map[string][]string) (map[string]map[string]string, error)
	UpsertRecord(objectType, name string) (models.Record, error)
	Close() error
}

// Verify *DB satisfies NoteStore at compile time.
var _ NoteStore = (*DB)(nil)

const noteColumns = `id, owner_id, text, completed, public, created_at, due_by,
	target_object_type, target_object_name,
	owner_name, owner_first_name, owner_last_name, owner_photo_url`

func scanNote(row interface{ Scan(...any) error }) (models.Note, error) {
	var n models.Note
	var dueBy sql.NullTime
	err := row.Scan(&n.ID, &n.OwnerID, &n.Text, &n.Completed, &n.Public,
		&n.CreatedAt, &dueBy,
		&n.TargetObjectType, &n.TargetObjectName,
		&n.Owner.Name, &n.Owner.FirstName, &n.Owner.LastName, &n.Owner.PhotoURL)
	if err != nil {
		return models.Note{}, err
	}
	if dueBy.Valid {
		t := dueBy.Time
		n.DueBy = &t
	}
	return n, nil
}

// ListNotes returns the owner's notes, newest first. Completed notes are
// excluded unless includeCompleted is set. maxRecords caps the result size.
func (db *DB) ListNotes(ownerID string, includeCompleted bool, maxRecords int) ([]models.Note, error) {
	q := `SELECT ` + noteColumns + ` FROM notes WHERE owner_id = ?`
	args := []any{ownerID}
	if !includeCompleted {
		q += ` AND completed = 0`
	}
	q += ` ORDER BY created_at DESC, id`
	if maxRecords > 0 {
		q += ` LIMIT ?`
		args = append(args, maxRecords)
	}

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetNote returns a single note by id.
func (db *DB) GetNote(id string) (*models.Note, error) {
	row := db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: get note: %w", err)
	}
	return &n, nil
}

// InsertNote stores a new note and returns its id. A missing id or creation
// timestamp is filled in.
func (db *DB) InsertNote(n models.Note) (string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	var dueBy any
	if n.DueBy != nil {
		dueBy = *n.DueBy
	}
	_, err := db.conn.Exec(`
		INSERT INTO notes (id, owner_id, text, completed, public, created_at, due_by,
			target_object_type, target_object_name,
			owner_name, owner_first_name, owner_last_name, owner_photo_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.OwnerID, n.Text, n.Completed, n.Public, n.CreatedAt, dueBy,
		n.TargetObjectType, n.TargetObjectName,
		n.Owner.Name, n.Owner.FirstName, n.Owner.LastName, n.Owner.PhotoURL)
	if err != nil {
		return "", fmt.Errorf("store: insert note: %w", err)
	}
	return n.ID, nil
}

// UpdateNoteText replaces a note's text and public-visibility flag.
func (db *DB) UpdateNoteText(id, text string, public bool) error {
	res, err := db.conn.Exec(`UPDATE notes SET text = ?, public = ? WHERE id = ?`, text, public, id)
	if err != nil {
		return fmt.Errorf("store: update note text: %w", err)
	}
	return requireRow(res)
}

// UpdateNoteStatus sets a note's completion flag.
func (db *DB) UpdateNoteStatus(id string, completed bool) error {
	res, err := db.conn.Exec(`UPDATE notes SET completed = ? WHERE id = ?`, completed, id)
	if err != nil {
		return fmt.Errorf("store: update note status: %w", err)
	}
	return requireRow(res)
}

// DeleteNote removes a note and any reminder subscriptions attached to it.
func (db *DB) DeleteNote(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM reminders WHERE note_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete note reminders: %w", err)
	}
	return tx.Commit()
}

// ReminderExists reports whether the user has a reminder subscription on the note.
func (db *DB) ReminderExists(userID, noteID string) (bool, error) {
	var one int
	err := db.conn.QueryRow(
		`SELECT 1 FROM reminders WHERE user_id = ? AND note_id = ?`, userID, noteID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: reminder exists: %w", err)
	}
	return true, nil
}

// InsertReminder subscribes the user to the note. Inserting an existing
// subscription is a no-op, so a lost check-then-act race cannot double-subscribe.
func (db *DB) InsertReminder(userID, noteID string) error {
	_, err := db.conn.Exec(`
		INSERT OR IGNORE INTO reminders (id, user_id, note_id, created_at)
		VALUES (?, ?, ?, ?)`,
		uuid.NewString(), userID, noteID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: insert reminder: %w", err)
	}
	return nil
}

// DeleteReminder removes the user's subscription on the note, if any.
func (db *DB) DeleteReminder(userID, noteID string) error {
	_, err := db.conn.Exec(`DELETE FROM reminders WHERE user_id = ? AND note_id = ?`, userID, noteID)
	if err != nil {
		return fmt.Errorf("store: delete reminder: %w", err)
	}
	return nil
}

// BatchRecordIDs resolves record ids for the given display names, grouped by
// object type. Name matching is case-insensitive on the trimmed name. The
// result maps object type to stored-name to id; names echo the stored casing,
// which may differ from the request's.
func (db *DB) BatchRecordIDs(namesByType map[string][]string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(namesByType))
	for objectType, names := range namesByType {
		if len(names) == 0 {
			continue
		}
		placeholders := make([]string, len(names))
		args := make([]any, 0, len(names)+1)
		args = append(args, objectType)
		for i, name := range names {
			placeholders[i] = "?"
			args = append(args, strings.TrimSpace(name))
		}
		q := `SELECT id, name FROM records
			WHERE object_type = ? AND name COLLATE NOCASE IN (` + strings.Join(placeholders, ", ") + `)`
		rows, err := db.conn.Query(q, args...)
		if err != nil {
			return nil, fmt.Errorf("store: batch record ids: %w", err)
		}
		byName := make(map[string]string)
		for rows.Next() {
			var id, name string
			if err := rows.Scan(&id, &name); err != nil {
				rows.Close()
				return nil, fmt.Errorf("store: scan record: %w", err)
			}
			byName[name] = id
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		if len(byName) > 0 {
			out[objectType] = byName
		}
	}
	return out, nil
}

// UpsertRecord inserts a lookup record, or returns the existing one when the
// (type, name) pair is already present under case-insensitive matching.
func (db *DB) UpsertRecord(objectType, name string) (models.Record, error) {
	name = strings.TrimSpace(name)
	rec := models.Record{ID: uuid.NewString(), ObjectType: objectType, Name: name}
	_, err := db.conn.Exec(`
		INSERT INTO records (id, object_type, name) VALUES (?, ?, ?)
		ON CONFLICT(object_type, name COLLATE NOCASE) DO NOTHING`,
		rec.ID, rec.ObjectType, rec.Name)
	if err != nil {
		return models.Record{}, fmt.Errorf("store: upsert record: %w", err)
	}
	row := db.conn.QueryRow(
		`SELECT id, object_type, name FROM records WHERE object_type = ? AND name COLLATE NOCASE = ?`,
		objectType, name)
	if err := row.Scan(&rec.ID, &rec.ObjectType, &rec.Name); err != nil {
		return models.Record{}, fmt.Errorf("store: read record: %w", err)
	}
	return rec, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
