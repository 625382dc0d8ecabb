package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWatcher polls the modification times of files matching a glob and
// triggers a callback when one is added, changed or removed.
type FileWatcher struct {
	Pattern   string
	Interval  time.Duration
	onChange  func(string) // called with path that changed
	stopCh    chan struct{}
	stopOnce  sync.Once
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for a glob pattern and interval.
func NewFileWatcher(pattern string, interval time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		Pattern:   pattern,
		Interval:  interval,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// WatchWheels watches every YAML file of a catalog directory.
func WatchWheels(p Paths, interval time.Duration, onChange func(string)) *FileWatcher {
	return NewFileWatcher(filepath.Join(p.WheelsDir(), "*.yaml"), interval, onChange)
}

// Start primes the mtime cache and begins polling in a goroutine.
func (w *FileWatcher) Start() {
	w.scanAll(true)
	ticker := time.NewTicker(w.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.scanAll(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher. Safe to call more than once.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *FileWatcher) scanAll(prime bool) {
	paths, err := filepath.Glob(w.Pattern)
	if err != nil {
		return
	}
	present := make(map[string]bool, len(paths))
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		present[p] = true
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime {
			continue
		}
		if !ok || mt.After(last) {
			w.notify(p)
		}
	}
	for p := range w.lastMTime {
		if !present[p] {
			delete(w.lastMTime, p)
			if !prime {
				w.notify(p)
			}
		}
	}
}

func (w *FileWatcher) notify(path string) {
	if w.onChange != nil {
		w.onChange(path)
	}
}
