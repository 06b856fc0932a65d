// Package watch keeps the session's video list in sync with the source
// directory while the user triages it.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
)

// Handler receives the changes seen in the watched tree.
type Handler interface {
	Forget(path string) bool
	Track(entry domain.VideoEntry) bool
}

// Files decides which created files are videos and builds their entries.
type Files interface {
	Accepts(name string) bool
	Entry(path string) (domain.VideoEntry, error)
}

// Watcher follows one source directory at a time using fsnotify.
type Watcher struct {
	handler Handler
	files   Files
	log     logger.Logger

	mu        sync.Mutex
	fsWatcher *fsnotify.Watcher
	root      string
	recursive bool
	stopCh    chan struct{}
	done      chan struct{}
}

// New creates an idle watcher.
func New(handler Handler, files Files, log logger.Logger) *Watcher {
	return &Watcher{
		handler: handler,
		files:   files,
		log:     log.With(logger.Component("watcher")),
	}
}

// Watch replaces the watched tree with dir. Subdirectories are followed
// when recursive is set.
func (w *Watcher) Watch(dir string, recursive bool) error {
	w.Unwatch()

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}

	w.mu.Lock()
	w.fsWatcher = fsWatcher
	w.root = dir
	w.recursive = recursive
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	stopCh, done := w.stopCh, w.done
	w.mu.Unlock()

	if recursive {
		w.addTree(fsWatcher, dir, false)
	}

	go w.loop(fsWatcher, stopCh, done)

	w.log.Info("watching source directory",
		logger.String("dir", dir),
		logger.Bool("recursive", recursive))
	return nil
}

// Unwatch stops following the current directory, if any.
func (w *Watcher) Unwatch() {
	w.mu.Lock()
	fsWatcher, stopCh, done := w.fsWatcher, w.stopCh, w.done
	w.fsWatcher, w.stopCh, w.done = nil, nil, nil
	root := w.root
	w.root = ""
	w.mu.Unlock()

	if fsWatcher == nil {
		return
	}
	close(stopCh)
	if err := fsWatcher.Close(); err != nil {
		w.log.Warn("error closing fsnotify watcher", logger.Error(err))
	}
	<-done
	w.log.Debug("stopped watching", logger.String("dir", root))
}

// Close is Unwatch; it lets the watcher sit in a shutdown list.
func (w *Watcher) Close() error {
	w.Unwatch()
	return nil
}

// Root returns the directory being watched, or "".
func (w *Watcher) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}

func (w *Watcher) loop(fsWatcher *fsnotify.Watcher, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(fsWatcher, event)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Error("fsnotify watcher error", logger.Error(err))

		case <-stopCh:
			return
		}
	}
}

func (w *Watcher) handle(fsWatcher *fsnotify.Watcher, event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.handler.Forget(event.Name)

	case event.Op.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			// Gone again before we looked.
			return
		}
		if info.IsDir() {
			w.mu.Lock()
			recursive := w.recursive
			w.mu.Unlock()
			if recursive && !hidden(info.Name()) {
				w.addTree(fsWatcher, event.Name, true)
			}
			return
		}
		w.track(event.Name)
	}
}

// addTree watches every directory below dir. With track set, videos
// already inside are reported too, which covers a folder moved in whole.
func (w *Watcher) addTree(fsWatcher *fsnotify.Watcher, dir string, track bool) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && hidden(d.Name()) {
				return filepath.SkipDir
			}
			if err := fsWatcher.Add(path); err != nil {
				w.log.Warn("cannot watch subdirectory",
					logger.String("dir", path),
					logger.Error(err))
			}
			return nil
		}
		if track {
			w.track(path)
		}
		return nil
	})
}

func (w *Watcher) track(path string) {
	if !w.files.Accepts(filepath.Base(path)) {
		return
	}
	entry, err := w.files.Entry(path)
	if err != nil {
		w.log.Debug("ignoring new file",
			logger.String("path", path),
			logger.Error(err))
		return
	}
	if w.handler.Track(entry) {
		w.log.Info("new video in source directory", logger.String("path", path))
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
