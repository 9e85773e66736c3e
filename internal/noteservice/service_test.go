package noteservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/checksum"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/testutil"
)

func testService(t *testing.T) *Service {
	t.Helper()
	return NewService(testutil.TestDB(t), nil)
}

func TestCreateNote(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	id, err := svc.CreateNote(ctx, models.Note{OwnerID: "u1", Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetNote(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "hello" || got.OwnerID != "u1" {
		t.Errorf("note = %+v", got)
	}
	if got.Checksum != checksum.Sum([]byte("hello")) {
		t.Errorf("checksum = %q", got.Checksum)
	}
}

func TestCreateNoteEmptyText(t *testing.T) {
	svc := testService(t)
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := svc.CreateNote(context.Background(), models.Note{OwnerID: "u1", Text: text}); !errors.Is(err, apperr.ErrEmptyText) {
			t.Errorf("CreateNote(%q) err = %v, want ErrEmptyText", text, err)
		}
	}
}

func TestListNotesChecksums(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	if _, err := svc.CreateNote(ctx, models.Note{OwnerID: "u1", Text: "one"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateNote(ctx, models.Note{OwnerID: "u1", Text: "two"}); err != nil {
		t.Fatal(err)
	}

	notes, err := svc.ListNotes(ctx, "u1", true, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 2 {
		t.Fatalf("listed %d notes, want 2", len(notes))
	}
	for _, n := range notes {
		if n.Checksum != checksum.Sum([]byte(n.Text)) {
			t.Errorf("note %s checksum = %q", n.ID, n.Checksum)
		}
	}
}

func TestUpdateNote(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	id, _ := svc.CreateNote(ctx, models.Note{OwnerID: "u1", Text: "before"})

	if err := svc.UpdateNote(ctx, id, "after", true); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.GetNote(ctx, id)
	if got.Text != "after" || !got.Public {
		t.Errorf("note = %+v", got)
	}

	if err := svc.UpdateNote(ctx, id, "  ", false); !errors.Is(err, apperr.ErrEmptyText) {
		t.Errorf("blank update err = %v, want ErrEmptyText", err)
	}
}

func TestUpdateNoteChecked(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	id, _ := svc.CreateNote(ctx, models.Note{OwnerID: "u1", Text: "v1"})

	// Matching checksum succeeds.
	if err := svc.UpdateNoteChecked(ctx, id, "v2", false, checksum.Sum([]byte("v1"))); err != nil {
		t.Fatal(err)
	}
	// A stale checksum is rejected without touching the note.
	err := svc.UpdateNoteChecked(ctx, id, "v3", false, checksum.Sum([]byte("v1")))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale update err = %v, want ErrConflict", err)
	}
	got, _ := svc.GetNote(ctx, id)
	if got.Text != "v2" {
		t.Errorf("text = %q, want v2", got.Text)
	}
	// An empty ifMatch skips the precondition.
	if err := svc.UpdateNoteChecked(ctx, id, "v4", false, ""); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteNote(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	id, _ := svc.CreateNote(ctx, models.Note{OwnerID: "u1", Text: "t"})

	if err := svc.DeleteNote(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetNote(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReminders(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	id, _ := svc.CreateNote(ctx, models.Note{OwnerID: "u1", Text: "t"})

	// A reminder cannot target a missing note.
	if err := svc.CreateReminder(ctx, "u1", "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	if err := svc.CreateReminder(ctx, "u1", id); err != nil {
		t.Fatal(err)
	}
	exists, err := svc.ReminderExists(ctx, "u1", id)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("reminder missing after create")
	}

	if err := svc.RemoveReminder(ctx, "u1", id); err != nil {
		t.Fatal(err)
	}
	exists, _ = svc.ReminderExists(ctx, "u1", id)
	if exists {
		t.Error("reminder present after remove")
	}
}

func TestBatchRecordIDsEmptyRequest(t *testing.T) {
	svc := testService(t)
	got, err := svc.BatchRecordIDs(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("empty request returned %v", got)
	}
}

func TestBatchRecordIDs(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	rec, err := svc.UpsertRecord(ctx, "company", "Acme")
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.BatchRecordIDs(ctx, map[string][]string{"company": {"acme"}})
	if err != nil {
		t.Fatal(err)
	}
	if got["company"]["Acme"] != rec.ID {
		t.Errorf("lookup = %v", got)
	}
}
