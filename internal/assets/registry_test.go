package assets

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeIcon(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestVersionedURL(t *testing.T) {
	dir := t.TempDir()
	writeIcon(t, dir, "note-edit.svg", "<svg>edit</svg>")

	r, err := NewRegistry(dir, discard())
	if err != nil {
		t.Fatal(err)
	}

	url := r.URL("note-edit.svg")
	if !strings.HasPrefix(url, "/assets/note-edit.svg?v=") {
		t.Errorf("url = %q", url)
	}
	// Unknown assets degrade to a plain URL.
	if got := r.URL("missing.svg"); got != "/assets/missing.svg" {
		t.Errorf("unknown asset url = %q", got)
	}
}

func TestURLChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	writeIcon(t, dir, "note-edit.svg", "v1")

	r, err := NewRegistry(dir, discard())
	if err != nil {
		t.Fatal(err)
	}
	before := r.URL("note-edit.svg")

	writeIcon(t, dir, "note-edit.svg", "v2")
	if err := r.rescan(); err != nil {
		t.Fatal(err)
	}
	after := r.URL("note-edit.svg")
	if before == after {
		t.Errorf("url unchanged after content change: %q", after)
	}
}

func TestIcons(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"note-edit.svg", "note-delete.svg", "note-complete.svg",
		"note-completed.svg", "notify-on.svg", "notify-off.svg",
	} {
		writeIcon(t, dir, name, name)
	}

	r, err := NewRegistry(dir, discard())
	if err != nil {
		t.Fatal(err)
	}

	icons := r.Icons()
	for field, url := range map[string]string{
		"Edit":        icons.Edit,
		"Delete":      icons.Delete,
		"Complete":    icons.Complete,
		"Completed":   icons.Completed,
		"ReminderOn":  icons.ReminderOn,
		"ReminderOff": icons.ReminderOff,
	} {
		if !strings.Contains(url, "?v=") {
			t.Errorf("%s icon url not versioned: %q", field, url)
		}
	}
	if icons.Complete == icons.Completed {
		t.Error("distinct icons share a url")
	}
}

func TestServeHTTP(t *testing.T) {
	dir := t.TempDir()
	writeIcon(t, dir, "note-edit.svg", "<svg/>")

	r, err := NewRegistry(dir, discard())
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/note-edit.svg", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "<svg/>" {
		t.Errorf("body = %q", w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("cache-control = %q", cc)
	}
}

func TestNewRegistryMissingDir(t *testing.T) {
	if _, err := NewRegistry(filepath.Join(t.TempDir(), "nope"), discard()); err == nil {
		t.Error("expected error for missing directory")
	}
}
