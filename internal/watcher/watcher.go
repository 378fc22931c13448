// Package watcher reports edits to files in a directory, debounced per file.
package watcher

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 150 * time.Millisecond

// ChangedHandler is called with the absolute path of a changed file.
type ChangedHandler func(path string)

// Options configures a Watcher.
type Options struct {
	// Extensions limits events to these file extensions, e.g. ".html". Empty
	// accepts every file.
	Extensions []string
	Debounce   time.Duration
	Logger     *zap.Logger
}

// Watcher calls its handler once a file in the watched directory has been
// quiet for the debounce interval after a write or create. Editors that
// save by writing several times, or by rename-and-create, produce one call.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange ChangedHandler
	opts     Options
	log      *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
	done   chan struct{}
}

// New starts watching dir.
func New(dir string, onChange ChangedHandler, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(abs); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}

	w := &Watcher{
		watcher:  fw,
		onChange: onChange,
		opts:     opts,
		log:      opts.Logger.Named("watcher"),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	go w.watchLoop()

	w.log.Debug("Watching directory", zap.String("dir", abs))
	return w, nil
}

// Close stops the watcher and drops pending notifications.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) accepts(path string) bool {
	if len(w.opts.Extensions) == 0 {
		return true
	}
	return slices.Contains(w.opts.Extensions, filepath.Ext(path))
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			absPath, err := filepath.Abs(event.Name)
			if err != nil || !w.accepts(absPath) {
				continue
			}
			w.schedule(absPath)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, exists := w.timers[path]; exists {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		delete(w.timers, path)
		w.mu.Unlock()

		w.log.Debug("File changed", zap.String("path", path))
		if w.onChange != nil {
			w.onChange(path)
		}
	})
}
