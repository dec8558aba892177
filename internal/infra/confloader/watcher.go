package confloader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor or a config
// management tool produces for one save.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports changes to one configuration file.
//
// The parent directory is watched rather than the file so that editors
// which save by rename, and mounted config maps which swap a symlink, are
// still seen. onChange runs on the watcher goroutine, once per burst of
// writes separated by less than the debounce window.
type Watcher struct {
	path     string
	onChange func(path string)
	debounce time.Duration
	logger   *slog.Logger

	fsw     *fsnotify.Watcher
	done    chan struct{}
	exited  chan struct{}
	start   sync.Once
	stop    sync.Once
	stopErr error
	running bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher watches path and calls onChange after it is written or
// recreated. The directory must exist.
func NewWatcher(path string, onChange func(path string), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.fsw = fsw
	return w, nil
}

// Start runs the watch loop in a goroutine. Later calls do nothing.
func (w *Watcher) Start() {
	w.start.Do(func() {
		w.running = true
		go w.loop()
	})
}

// Stop ends the loop and releases the watch. It is safe to call more
// than once, and before Start.
func (w *Watcher) Stop() error {
	w.stop.Do(func() {
		w.start.Do(func() {})
		close(w.done)
		w.stopErr = w.fsw.Close()
		if w.running {
			<-w.exited
		}
	})
	return w.stopErr
}

func (w *Watcher) loop() {
	defer close(w.exited)
	w.logger.Info("configuration watcher started", "file", w.path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Debug("configuration file changed", "file", w.path)
			w.onChange(w.path)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("configuration watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}
