package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hourtrim/core/library"
	"hourtrim/logger"
	"hourtrim/model"

	"github.com/fsnotify/fsnotify"
)

const (
	// a file is reported once it has been quiet this long
	settleDelay   = 100 * time.Millisecond
	checkInterval = 50 * time.Millisecond
)

// Watcher follows the trimmed root down to date directories.
type Watcher struct {
	root    string
	hub     *Hub
	fsw     *fsnotify.Watcher
	pending map[string]time.Time
	now     func() time.Time
}

// NewWatcher creates a Watcher on root and registers every existing directory
// down to date level.
func NewWatcher(root string, hub *Hub) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监听器失败: %w", err)
	}
	w := &Watcher{
		root:    filepath.Clean(root),
		hub:     hub,
		fsw:     fsw,
		pending: make(map[string]time.Time),
		now:     time.Now,
	}
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("创建监听目录失败: %w", err)
	}
	if err := w.addTree(w.root, false); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes filesystem events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	logger.Info("library watcher started", logger.String("root", w.root))
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", logger.ErrorField(err))

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := w.addTree(event.Name, true); err != nil {
				logger.Warn("watch new directory", logger.String("dir", event.Name), logger.ErrorField(err))
			}
		}
		return
	}
	if classify(filepath.Base(event.Name)) != "" {
		w.pending[event.Name] = w.now()
	}
}

func (w *Watcher) flush() {
	now := w.now()
	for path, seen := range w.pending {
		if now.Sub(seen) < settleDelay {
			continue
		}
		delete(w.pending, path)
		if ev, ok := w.eventFor(path, now); ok {
			w.hub.Publish(ev)
		}
	}
}

func (w *Watcher) eventFor(path string, at time.Time) (model.LibraryEvent, bool) {
	name := filepath.Base(path)
	kind := classify(name)
	if kind == "" {
		return model.LibraryEvent{}, false
	}
	rel, ok := library.RelativeDir(w.root, filepath.Dir(path))
	if !ok {
		return model.LibraryEvent{}, false
	}
	return model.LibraryEvent{Type: kind, Path: rel, File: name, Time: at}, true
}

// addTree watches dir and its subdirectories down to date level. With
// queueExisting, files already present are queued so that a directory created
// together with its contents is not missed.
func (w *Watcher) addTree(dir string, queueExisting bool) error {
	depth := w.depth(dir)
	if depth < 0 || depth > library.TreeDepth {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("监听目录失败: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if err := w.addTree(full, queueExisting); err != nil {
				return err
			}
			continue
		}
		if queueExisting && classify(e.Name()) != "" {
			w.pending[full] = w.now()
		}
	}
	return nil
}

// depth is 0 for the root and TreeDepth for a date directory.
func (w *Watcher) depth(dir string) int {
	if filepath.Clean(dir) == w.root {
		return 0
	}
	rel, ok := library.RelativeDir(w.root, dir)
	if !ok {
		return -1
	}
	return strings.Count(rel, "/") + 1
}

func classify(name string) string {
	switch {
	case name == model.ClipMetadataFile:
		return model.EventClipMetadata
	case name == model.MissingDataFile:
		return model.EventMissingData
	case library.IsTrimmedName(name):
		return model.EventTrimmedFile
	}
	return ""
}
