// Package watch reloads a file-backed workspace when its files change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches the burst of events one save produces.
const DefaultDebounce = 300 * time.Millisecond

// ReloadFunc re-reads the workspace.
type ReloadFunc func(ctx context.Context) error

// Watcher watches every directory below a workspace root and calls reload
// once per burst of relevant changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	reload   ReloadFunc
	debounce time.Duration
	log      *zap.SugaredLogger
}

// New creates a watcher over root. Call Run to start it.
func New(root string, reload ReloadFunc, log *zap.SugaredLogger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Watcher{
		watcher:  w,
		root:     root,
		reload:   reload,
		debounce: DefaultDebounce,
		log:      log,
	}, nil
}

// SetDebounce changes the quiet period before a reload.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is done. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.log.Infow("watching workspace", "root", w.root)

	// pending is non-nil while a reload is scheduled
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warnw("watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			if relevant(event) {
				w.log.Debugw("workspace change", "path", event.Name, "op", event.Op.String())
				pending = time.After(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Errorw("watcher error", "error", err)

		case <-pending:
			pending = nil
			if err := w.reload(ctx); err != nil {
				w.log.Errorw("reload workspace", "error", err)
			}
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".")
}

// relevant reports whether an event touches a workspace file. Temp files
// from atomic writes and chmod-only events are ignored.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch filepath.Ext(base) {
	case ".md", ".yaml", ".yml":
		return true
	}
	// a removed or renamed directory takes its files with it
	return event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
}
