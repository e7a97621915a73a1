package volume

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"autousb/internal/logging"
)

// Watcher reports volumes that appear after it starts.
//
// Desktop automounters create the mount directory first and mount into it a
// moment later, so a new directory under a media root is held as pending and
// reported once it has been a mount point for the settle interval. Hosts
// without media roots (Windows) fall back to rescanning List on every tick.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	roots    []string
	user     string
	settle   time.Duration
	maxWait  time.Duration
	isMount  func(string) bool
	scan     func() ([]Volume, error)
	pending  map[string]time.Time
	known    map[string]bool
	events   chan Volume
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithSettle sets how long a new mount point must exist before it is reported.
func WithSettle(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithMountCheck replaces the mount point test.
func WithMountCheck(fn func(string) bool) WatcherOption {
	return func(w *Watcher) { w.isMount = fn }
}

// WithScan replaces the rescan used in polling mode.
func WithScan(fn func() ([]Volume, error)) WatcherOption {
	return func(w *Watcher) { w.scan = fn }
}

// WithUser overrides the login name used for per-user media directories.
func WithUser(user string) WatcherOption {
	return func(w *Watcher) { w.user = user }
}

// NewWatcher creates a watcher over roots. On Windows roots are ignored and
// drive letters are polled.
func NewWatcher(roots []string, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher: fw,
		user:    currentUser(),
		settle:  time.Second,
		isMount: IsMountPoint,
		pending: make(map[string]time.Time),
		known:   make(map[string]bool),
		events:  make(chan Volume, 16),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	if runtime.GOOS != "windows" {
		w.roots = roots
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.scan == nil {
		w.scan = func() ([]Volume, error) { return ListRoots(roots) }
	}
	w.maxWait = 30 * w.settle
	return w, nil
}

// Events delivers newly mounted volumes. It is closed after Stop.
func (w *Watcher) Events() <-chan Volume {
	return w.events
}

// Start snapshots the current volumes and begins watching. Volumes present at
// Start are never reported. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if vols, err := w.scan(); err == nil {
		for _, v := range vols {
			w.known[v.Root] = true
		}
	}

	watched := 0
	for _, base := range scanBases(w.roots, w.user) {
		if err := w.watcher.Add(base); err != nil {
			logging.VolumeWarn("Watcher: cannot watch %s: %v", base, err)
			continue
		}
		watched++
		logging.VolumeDebug("Watcher: watching %s", base)
	}

	poll := watched == 0
	if poll {
		logging.Volume("Watcher: no media roots to watch, polling drives every %s", w.settle)
	}

	go w.run(ctx, poll)
	return nil
}

// Stop stops the watcher and waits for cleanup.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		running := w.running
		w.mu.Unlock()

		close(w.stopCh)
		if running {
			<-w.doneCh
		} else {
			close(w.events)
		}
		if err := w.watcher.Close(); err != nil {
			logging.VolumeWarn("Watcher: error closing: %v", err)
		}
		logging.VolumeDebug("Watcher: stopped")
	})
}

func (w *Watcher) run(ctx context.Context, poll bool) {
	defer close(w.doneCh)
	defer close(w.events)

	interval := w.settle / 4
	if poll {
		interval = w.settle
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.VolumeWarn("Watcher error: %v", err)

		case now := <-ticker.C:
			var ready []Volume
			if poll {
				ready = w.rescan()
			} else {
				ready = w.processPending(now)
			}
			for _, v := range ready {
				if !w.emit(ctx, v) {
					return
				}
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create != 0:
		// A per-user directory appearing under a root becomes a watched base.
		parent := filepath.Dir(event.Name)
		if w.user != "" && filepath.Base(event.Name) == w.user && w.isRoot(parent) && isDir(event.Name) {
			if err := w.watcher.Add(event.Name); err == nil {
				logging.VolumeDebug("Watcher: now watching %s", event.Name)
			}
			return
		}
		if !w.known[event.Name] {
			w.pending[event.Name] = time.Now()
			logging.VolumeDebug("Watcher: pending %s", event.Name)
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		delete(w.pending, event.Name)
		delete(w.known, event.Name)
	}
}

func (w *Watcher) isRoot(dir string) bool {
	for _, r := range w.roots {
		if filepath.Clean(r) == filepath.Clean(dir) {
			return true
		}
	}
	return false
}

// processPending returns pending paths that have settled into mount points
// and drops those that never did.
func (w *Watcher) processPending(now time.Time) []Volume {
	var ready []Volume
	for path, seen := range w.pending {
		age := now.Sub(seen)
		if age < w.settle {
			continue
		}
		if w.isMount(path) {
			delete(w.pending, path)
			w.known[path] = true
			ready = append(ready, Volume{Root: path, Label: filepath.Base(path), Removable: true})
			continue
		}
		if age > w.maxWait {
			logging.VolumeDebug("Watcher: %s never became a mount point", path)
			delete(w.pending, path)
		}
	}
	return ready
}

// rescan returns volumes not seen in earlier scans.
func (w *Watcher) rescan() []Volume {
	vols, err := w.scan()
	if err != nil {
		logging.VolumeWarn("Watcher: rescan failed: %v", err)
		return nil
	}
	current := make(map[string]bool, len(vols))
	var ready []Volume
	for _, v := range vols {
		current[v.Root] = true
		if !w.known[v.Root] {
			ready = append(ready, v)
		}
	}
	w.known = current
	return ready
}

func (w *Watcher) emit(ctx context.Context, v Volume) bool {
	logging.Volume("Watcher: volume mounted at %s", v.Root)
	select {
	case w.events <- v:
		return true
	case <-ctx.Done():
		return false
	case <-w.stopCh:
		return false
	}
}
