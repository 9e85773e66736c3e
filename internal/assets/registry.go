// Package assets serves the dashboard's icon files and hands out versioned
// URLs for them, so clients can cache aggressively and still pick up changed
// icons after a deploy.
package assets

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/dagaz/internal/checksum"
	"github.com/starford/dagaz/internal/dashboard"
)

// Well-known icon filenames looked up from the asset directory.
const (
	iconEdit        = "note-edit.svg"
	iconDelete      = "note-delete.svg"
	iconComplete    = "note-complete.svg"
	iconCompleted   = "note-completed.svg"
	iconReminderOn  = "notify-on.svg"
	iconReminderOff = "notify-off.svg"
)

// Registry scans an asset directory and maps each file to a cache-busting URL
// of the form /assets/<name>?v=<checksum>. Files added or changed at runtime
// are picked up by Watch.
type Registry struct {
	dir    string
	logger *slog.Logger
	files  http.Handler

	mu       sync.RWMutex
	versions map[string]string
}

// NewRegistry creates a registry from an initial scan of dir.
func NewRegistry(dir string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		dir:    dir,
		logger: logger,
		files:  http.FileServer(http.Dir(dir)),
	}
	if err := r.rescan(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) rescan() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return err
	}
	versions := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.dir, e.Name()))
		if err != nil {
			r.logger.Warn("assets: read failed",
				slog.String("file", e.Name()), slog.String("error", err.Error()))
			continue
		}
		versions[e.Name()] = checksum.Short(data)
	}

	r.mu.Lock()
	r.versions = versions
	r.mu.Unlock()
	return nil
}

// URL returns the versioned URL for a named asset. Unknown names get a plain
// unversioned URL so rendering degrades to a broken image, not a panic.
func (r *Registry) URL(name string) string {
	r.mu.RLock()
	v := r.versions[name]
	r.mu.RUnlock()
	if v == "" {
		return "/assets/" + name
	}
	return "/assets/" + name + "?v=" + v
}

// Icons returns the dashboard icon set resolved against the current scan.
func (r *Registry) Icons() dashboard.Icons {
	return dashboard.Icons{
		Edit:        r.URL(iconEdit),
		Delete:      r.URL(iconDelete),
		Complete:    r.URL(iconComplete),
		Completed:   r.URL(iconCompleted),
		ReminderOn:  r.URL(iconReminderOn),
		ReminderOff: r.URL(iconReminderOff),
	}
}

// ServeHTTP serves the asset files themselves. The router strips the /assets
// prefix before delegating here.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	r.files.ServeHTTP(w, req)
}

// Watch rescans the directory whenever its contents change, until ctx is
// cancelled. Events are debounced so editors that write in multiple steps
// trigger one rescan.
func (r *Registry) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(r.dir); err != nil {
		return err
	}

	r.logger.Info("assets: watching", slog.String("dir", r.dir))

	var rescanTimer *time.Timer
	var rescanCh <-chan time.Time
	schedule := func() {
		if rescanTimer == nil {
			rescanTimer = time.NewTimer(200 * time.Millisecond)
			rescanCh = rescanTimer.C
		} else {
			rescanTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rescanTimer != nil {
				rescanTimer.Stop()
			}
			return nil

		case <-rescanCh:
			if err := r.rescan(); err != nil {
				r.logger.Warn("assets: rescan failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("assets: watcher error", slog.String("error", err.Error()))
		}
	}
}
