// Package watcher reports stylesheet changes on disk. Raw fsnotify events
// are filtered, collapsed per path and delivered in debounced batches so a
// burst of editor writes triggers a single recompilation.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/xslate/internal/config"
	"github.com/conneroisu/xslate/internal/logging"
	"github.com/conneroisu/xslate/internal/validation"
)

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// FileFilter determines if a file should be reported
type FileFilter func(path string) bool

// ChangeHandler handles a debounced batch of changes
type ChangeHandler func(ctx context.Context, events []ChangeEvent) error

// Watcher watches stylesheet directories and delivers debounced batches.
type Watcher struct {
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	filters   []FileFilter
	handlers  []ChangeHandler
	logger    logging.Logger
	mutex     sync.RWMutex

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  bool
	stopOnce sync.Once
	stopErr  error
}

// New creates a watcher that batches changes arriving within delay.
func New(delay time.Duration, logger logging.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{
		fs:        w,
		debouncer: NewDebouncer(delay),
		logger:    logger.WithComponent("watcher"),
	}, nil
}

// FromConfig creates a watcher for the configured paths and extensions.
func FromConfig(cfg config.WatchConfig, logger logging.Logger) (*Watcher, error) {
	w, err := New(cfg.Debounce, logger)
	if err != nil {
		return nil, err
	}

	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = config.DefaultExtensions
	}
	w.AddFilter(ExtensionFilter(extensions...))
	w.AddFilter(NoHiddenFilter)
	w.AddFilter(NoGitFilter)

	paths := cfg.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		if err := w.AddRecursive(p); err != nil {
			_ = w.Stop()
			return nil, err
		}
	}
	return w, nil
}

// AddFilter adds a file filter. Every filter must accept a path.
func (w *Watcher) AddFilter(filter FileFilter) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.filters = append(w.filters, filter)
}

// AddHandler adds a change handler
func (w *Watcher) AddHandler(handler ChangeHandler) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.handlers = append(w.handlers, handler)
}

// AddPath watches a single directory.
func (w *Watcher) AddPath(path string) error {
	cleanPath, err := validatePath(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	return w.fs.Add(cleanPath)
}

// AddRecursive watches root and every directory below it, skipping .git.
func (w *Watcher) AddRecursive(root string) error {
	cleanRoot, err := validatePath(root)
	if err != nil {
		return fmt.Errorf("invalid root path: %w", err)
	}

	return filepath.WalkDir(cleanRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		w.logger.Debug(context.Background(), "watching directory", "path", path)
		return nil
	})
}

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string {
	list := w.fs.WatchList()
	sort.Strings(list)
	return list
}

func validatePath(path string) (string, error) {
	if err := validation.ValidatePath(path); err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}

// Start starts delivering batches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started or stopped")
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(3)
	go func() {
		defer w.wg.Done()
		w.debouncer.run(ctx)
	}()
	go func() {
		defer w.wg.Done()
		w.processEvents(ctx)
	}()
	go func() {
		defer w.wg.Done()
		w.watchLoop(ctx)
	}()
	return nil
}

// Stop stops the watcher and waits for its goroutines to exit. It is safe
// to call more than once.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		w.mutex.Lock()
		cancel := w.cancel
		w.started = true
		w.mutex.Unlock()
		if cancel != nil {
			cancel()
		}
		w.stopErr = w.fs.Close()
		w.wg.Wait()
	})
	return w.stopErr
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleFsnotifyEvent(ctx, event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, err, "file watcher error")
		}
	}
}

func (w *Watcher) handleFsnotifyEvent(ctx context.Context, event fsnotify.Event) {
	// Permission changes never alter stylesheet content.
	if event.Op == fsnotify.Chmod {
		return
	}

	w.mutex.RLock()
	filters := w.filters
	w.mutex.RUnlock()
	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	change := ChangeEvent{Path: event.Name, Type: eventType(event.Op)}
	if info, err := os.Stat(event.Name); err == nil {
		change.ModTime = info.ModTime()
		change.Size = info.Size()
	}

	if !w.debouncer.add(ctx, change) {
		w.logger.Warn(ctx, nil, "dropping change event, queue full", "path", change.Path)
	}
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventTypeCreated
	case op.Has(fsnotify.Write):
		return EventTypeModified
	case op.Has(fsnotify.Remove):
		return EventTypeDeleted
	case op.Has(fsnotify.Rename):
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-w.debouncer.output:
			w.mutex.RLock()
			handlers := w.handlers
			w.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(ctx, events); err != nil {
					w.logger.Warn(ctx, err, "change handler failed", "files", len(events))
				}
			}
		}
	}
}

// Debouncer groups rapid file changes together
type Debouncer struct {
	delay  time.Duration
	events chan ChangeEvent
	output chan []ChangeEvent
}

// NewDebouncer creates a debouncer that flushes delay after the last event.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		events: make(chan ChangeEvent, 100),
		output: make(chan []ChangeEvent, 10),
	}
}

func (d *Debouncer) add(ctx context.Context, event ChangeEvent) bool {
	select {
	case d.events <- event:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		pending []ChangeEvent
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			pending = append(pending, event)
			if timer == nil {
				timer = time.NewTimer(d.delay)
			} else {
				timer.Reset(d.delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			batch := Collapse(pending)
			pending = nil
			select {
			case d.output <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Collapse keeps the latest event per path, ordered by path.
func Collapse(events []ChangeEvent) []ChangeEvent {
	latest := make(map[string]ChangeEvent, len(events))
	for _, event := range events {
		latest[event.Path] = event
	}

	out := make([]ChangeEvent, 0, len(latest))
	for _, event := range latest {
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// ExtensionFilter accepts files with one of the given extensions.
func ExtensionFilter(extensions ...string) FileFilter {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = true
	}
	return func(path string) bool {
		return set[strings.ToLower(filepath.Ext(path))]
	}
}

// NoHiddenFilter rejects dotfiles such as editor lock and swap files.
func NoHiddenFilter(path string) bool {
	return !strings.HasPrefix(filepath.Base(path), ".")
}

// NoGitFilter rejects anything inside a .git directory.
func NoGitFilter(path string) bool {
	slashed := filepath.ToSlash(path)
	return !strings.HasPrefix(slashed, ".git/") && !strings.Contains(slashed, "/.git/")
}
