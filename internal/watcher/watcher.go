// Package watcher ingests documents dropped into watched directories.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceDelay coalesces the event bursts editors emit while saving a file.
const debounceDelay = 400 * time.Millisecond

// Handler receives settled file events from the watcher.
type Handler interface {
	// HandleFile is called after a created or modified file settles.
	HandleFile(ctx context.Context, path string)
	// HandleRemove is called when a watched file is deleted or renamed away.
	HandleRemove(ctx context.Context, path string)
	// Supported filters which files the watcher reacts to.
	Supported(filename string) bool
}

// Watcher monitors directories and forwards settled file changes to a Handler.
type Watcher struct {
	fs         *fsnotify.Watcher
	handler    Handler
	roots      []string
	extensions map[string]bool
	recursive  bool
	logger     *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher over roots. extensions filters by file suffix (".txt",
// ".pdf", ...); an empty list defers entirely to handler.Supported.
func New(roots, extensions []string, recursive bool, handler Handler, logger *zap.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}
	return &Watcher{
		fs:         fs,
		handler:    handler,
		roots:      roots,
		extensions: extSet,
		recursive:  recursive,
		logger:     logger,
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}, nil
}

// Start registers the watch roots and begins dispatching events.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addRoot(root); err != nil {
			return err
		}
	}
	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop cancels pending events and closes the underlying watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	w.mu.Lock()
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = make(map[string]*time.Timer)
	w.mu.Unlock()
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) addRoot(root string) error {
	if !w.recursive {
		return w.fs.Add(root)
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.dispatch(ctx, event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.recursive {
				if err := w.addRoot(event.Name); err != nil {
					w.logger.Warn("Failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
				}
			}
			return
		}
	}
	if !w.wanted(event.Name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.debounce(ctx, event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.cancelPending(event.Name)
		w.handler.HandleRemove(ctx, event.Name)
	}
}

// debounce (re)arms the per-path timer; the handler only runs after writes
// have stopped for debounceDelay.
func (w *Watcher) debounce(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case <-w.done:
			return
		default:
		}
		w.handler.HandleFile(ctx, path)
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) wanted(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if len(w.extensions) > 0 && !w.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	return w.handler.Supported(base)
}
