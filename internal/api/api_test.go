package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/dagaz/internal/checksum"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/noteservice"
	"github.com/starford/dagaz/internal/testutil"
)

// testEnv sets up a temp SQLite DB, service, and router for testing.
// authToken="" means disabled mode; non-empty means token mode.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler) {
	t.Helper()
	svc := noteservice.NewService(testutil.TestDB(t), nil)
	defaults := Defaults{UserID: "u1", IncludeCompleted: false, MaxRecords: 50}
	router := NewRouter(svc, defaults, nil, authToken != "", authToken, nil)
	return svc, router
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/notes", map[string]any{"text": "hello", "public": true})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created CreatedResponse
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" {
		t.Fatal("empty id in create response")
	}

	w = do(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var note models.Note
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Text != "hello" || !note.Public {
		t.Errorf("note = %+v", note)
	}
	if note.OwnerID != "u1" {
		t.Errorf("owner = %q, want default u1", note.OwnerID)
	}
	if note.Checksum != checksum.Sum([]byte("hello")) {
		t.Errorf("checksum = %q", note.Checksum)
	}
}

func TestCreateNoteEmptyText(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/notes", map[string]any{"text": "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetNoteMissing(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/notes/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListNotesFilters(t *testing.T) {
	svc, router := testEnv(t, "")
	ctx := context.Background()
	if _, err := svc.CreateNote(ctx, models.Note{OwnerID: "u1", Text: "open"}); err != nil {
		t.Fatal(err)
	}
	doneID, err := svc.CreateNote(ctx, models.Note{OwnerID: "u1", Text: "done"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateNoteStatus(ctx, doneID, true); err != nil {
		t.Fatal(err)
	}

	w := do(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 || list.Notes[0].Text != "open" {
		t.Errorf("default list = %+v", list)
	}

	w = do(t, router, http.MethodGet, "/notes?include_completed=true", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 2 {
		t.Errorf("full list total = %d, want 2", list.Total)
	}

	w = do(t, router, http.MethodGet, "/notes?include_completed=true&max_records=1", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 {
		t.Errorf("capped list total = %d, want 1", list.Total)
	}
}

func TestUpdateNote(t *testing.T) {
	svc, router := testEnv(t, "")
	id, _ := svc.CreateNote(context.Background(), models.Note{OwnerID: "u1", Text: "before"})

	w := do(t, router, http.MethodPut, "/notes/"+id, map[string]any{"text": "after", "public": true})
	if w.Code != http.StatusNoContent {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}

	got, err := svc.GetNote(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "after" || !got.Public {
		t.Errorf("note = %+v", got)
	}
}

func TestUpdateNoteIfMatch(t *testing.T) {
	svc, router := testEnv(t, "")
	id, _ := svc.CreateNote(context.Background(), models.Note{OwnerID: "u1", Text: "v1"})

	// Stale If-Match is rejected with 409.
	raw, _ := json.Marshal(map[string]any{"text": "v2"})
	req := httptest.NewRequest(http.MethodPut, "/notes/"+id, bytes.NewReader(raw))
	req.Header.Set("If-Match", `"`+checksum.Sum([]byte("stale"))+`"`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("stale update status = %d, want 409", w.Code)
	}

	// Matching If-Match succeeds.
	req = httptest.NewRequest(http.MethodPut, "/notes/"+id, bytes.NewReader(raw))
	req.Header.Set("If-Match", `"`+checksum.Sum([]byte("v1"))+`"`)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("matching update status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, router := testEnv(t, "")
	id, _ := svc.CreateNote(context.Background(), models.Note{OwnerID: "u1", Text: "t"})

	w := do(t, router, http.MethodPatch, "/notes/"+id+"/status", map[string]any{"completed": true})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	got, _ := svc.GetNote(context.Background(), id)
	if !got.Completed {
		t.Error("completed flag not set")
	}

	w = do(t, router, http.MethodPatch, "/notes/nope/status", map[string]any{"completed": true})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing note status = %d, want 404", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	svc, router := testEnv(t, "")
	id, _ := svc.CreateNote(context.Background(), models.Note{OwnerID: "u1", Text: "t"})

	w := do(t, router, http.MethodDelete, "/notes/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = do(t, router, http.MethodDelete, "/notes/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestReminderEndpoints(t *testing.T) {
	svc, router := testEnv(t, "")
	id, _ := svc.CreateNote(context.Background(), models.Note{OwnerID: "u1", Text: "t"})

	w := do(t, router, http.MethodGet, "/notes/"+id+"/reminder", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get reminder status = %d", w.Code)
	}
	var state ReminderStateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &state)
	if state.Exists {
		t.Error("reminder exists before subscribing")
	}

	w = do(t, router, http.MethodPut, "/notes/"+id+"/reminder", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("put reminder status = %d", w.Code)
	}

	w = do(t, router, http.MethodGet, "/notes/"+id+"/reminder", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &state)
	if !state.Exists {
		t.Error("reminder missing after subscribing")
	}

	// The subscription is scoped per user.
	w = do(t, router, http.MethodGet, "/notes/"+id+"/reminder?user=u2", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &state)
	if state.Exists {
		t.Error("reminder visible to another user")
	}

	w = do(t, router, http.MethodDelete, "/notes/"+id+"/reminder", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete reminder status = %d", w.Code)
	}

	// Subscribing to a missing note is a 404.
	w = do(t, router, http.MethodPut, "/notes/nope/reminder", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("reminder on missing note status = %d, want 404", w.Code)
	}
}

func TestBatchLookupEndpoint(t *testing.T) {
	svc, router := testEnv(t, "")
	rec, err := svc.UpsertRecord(context.Background(), "company", "Acme")
	if err != nil {
		t.Fatal(err)
	}

	w := do(t, router, http.MethodPost, "/lookup/records", map[string]any{
		"names_by_type": map[string][]string{"company": {"ACME"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("lookup status = %d", w.Code)
	}
	var resp BatchLookupResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Results["company"]["Acme"] != rec.ID {
		t.Errorf("results = %v", resp.Results)
	}
}

func TestUpsertRecordEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/records", map[string]any{"object_type": "company", "name": "Acme"})
	if w.Code != http.StatusCreated {
		t.Fatalf("upsert status = %d, body = %s", w.Code, w.Body.String())
	}
	var rec models.Record
	_ = json.Unmarshal(w.Body.Bytes(), &rec)
	if rec.ID == "" || rec.Name != "Acme" {
		t.Errorf("record = %+v", rec)
	}

	// Missing fields are rejected.
	w = do(t, router, http.MethodPost, "/records", map[string]any{"object_type": "", "name": " "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid upsert status = %d, want 400", w.Code)
	}
}

func TestAuthDisabled(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", w.Code)
	}
}

func TestAuthToken(t *testing.T) {
	_, router := testEnv(t, "secret")

	w := do(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	if w2.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w2.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, req)
	if w3.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w3.Code)
	}
}
