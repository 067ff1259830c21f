// Package watch detects the type of files as they are created or written
// in a directory.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gobeaver/filetype"
	"github.com/gobeaver/filetype/scan"
)

// DefaultDebounce is how long a file must stay quiet before it is detected.
const DefaultDebounce = 100 * time.Millisecond

// Event reports the detection of one changed file.
type Event struct {
	Path string
	Info *filetype.Info
	Err  error
}

// Option configures a Watcher
type Option func(*options)

type options struct {
	include   []string
	exclude   []string
	recursive bool
	debounce  time.Duration
	logger    *slog.Logger
}

// WithInclude only reports paths matching one of patterns
func WithInclude(patterns ...string) Option {
	return func(o *options) {
		o.include = append(o.include, patterns...)
	}
}

// WithExclude ignores paths matching any of patterns
func WithExclude(patterns ...string) Option {
	return func(o *options) {
		o.exclude = append(o.exclude, patterns...)
	}
}

// WithRecursive watches subdirectories, including ones created later.
// An include pattern containing '**' turns this on as well.
func WithRecursive(recursive bool) Option {
	return func(o *options) {
		o.recursive = recursive
	}
}

// WithDebounce sets the quiet period before a changed file is detected
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithLogger sets the logger for watch errors
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Watcher emits an Event for every file created or written under a
// directory.
type Watcher struct {
	dir      string
	detector *filetype.Detector
	filter   *scan.Filter
	opts     options

	fsw    *fsnotify.Watcher
	events chan Event
	ready  chan string
	done   chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New starts watching dir. Call Run to process changes.
func New(dir string, detector *filetype.Detector, opts ...Option) (*Watcher, error) {
	o := options{
		debounce: DefaultDebounce,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if detector == nil {
		detector = filetype.New()
	}

	filter, err := scan.NewFilter(o.include, o.exclude)
	if err != nil {
		return nil, &filetype.PathError{Op: "watch", Path: dir, Err: err}
	}
	o.recursive = o.recursive || filter.Recursive()

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &filetype.PathError{Op: "watch", Path: dir, Err: err}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &filetype.PathError{Op: "watch", Path: dir, Err: err}
	}

	w := &Watcher{
		dir:      abs,
		detector: detector,
		filter:   filter,
		opts:     o,
		fsw:      fsw,
		events:   make(chan Event, 16),
		ready:    make(chan string),
		done:     make(chan struct{}),
		timers:   make(map[string]*time.Timer),
	}

	if err := w.add(abs); err != nil {
		fsw.Close()
		return nil, &filetype.PathError{Op: "watch", Path: dir, Err: err}
	}
	return w, nil
}

// add watches dir, and every directory below it when recursive.
func (w *Watcher) add(dir string) error {
	if !w.opts.recursive {
		return w.fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return w.fsw.Add(p)
		}
		return nil
	})
}

// Events returns the channel Run delivers events on. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run processes file system notifications until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.opts.logger.Warn("watch error", "dir", w.dir, "error", err)
		case p := <-w.ready:
			info, err := w.detector.DetectFromFilePath(p)
			select {
			case w.events <- Event{Path: p, Info: info, Err: err}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Close stops watching. It is only needed when Run is never called.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if w.opts.recursive {
				if err := w.add(ev.Name); err != nil {
					w.opts.logger.Warn("cannot watch directory", "dir", ev.Name, "error", err)
				}
			}
			return
		}
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	rel, err := filepath.Rel(w.dir, ev.Name)
	if err != nil || !w.filter.Match(filepath.ToSlash(rel)) {
		return
	}
	w.schedule(ev.Name)
}

// schedule detects p once it has been quiet for the debounce period.
func (w *Watcher) schedule(p string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scheduleLocked(p)
}

// scheduleLocked is schedule with w.mu held.
func (w *Watcher) scheduleLocked(p string) {
	if t, ok := w.timers[p]; ok && t.Stop() {
		t.Reset(w.opts.debounce)
		return
	}

	// A timer that already fired is replaced; its callback sees it is no
	// longer current and stays silent.
	var t *time.Timer
	t = time.AfterFunc(w.opts.debounce, func() {
		w.mu.Lock()
		if w.timers[p] != t {
			w.mu.Unlock()
			return
		}
		delete(w.timers, p)
		w.mu.Unlock()

		select {
		case w.ready <- p:
		case <-w.done:
		}
	})
	w.timers[p] = t
}

func (w *Watcher) stop() {
	close(w.done)
	w.mu.Lock()
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
	w.mu.Unlock()
	w.fsw.Close()
}
