package balance

import (
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Source hands out the current table. Matches take a copy of the pointer at
// creation and keep it for their whole lifetime.
type Source struct {
	current atomic.Pointer[Config]
}

func NewSource(cfg *Config) *Source {
	s := &Source{}
	s.current.Store(cfg)
	return s
}

func (s *Source) Current() *Config {
	return s.current.Load()
}

// Reload loads path and swaps it in when valid. An invalid file leaves the
// current table untouched.
func (s *Source) Reload(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	s.current.Store(cfg)
	return nil
}

const reloadSettle = 100 * time.Millisecond

// Watcher reloads a Source whenever its backing file changes on disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	source  *Source
	path    string
	Reloads chan error
	closeCh chan struct{}
	once    sync.Once
}

// Watch starts watching path's directory. Editors often replace files by
// rename, so the directory is watched rather than the file itself.
func Watch(source *Source, path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		source:  source,
		path:    abs,
		Reloads: make(chan error, 4),
		closeCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	// A single save arrives as a burst of events; reload once it settles.
	var settle <-chan time.Time
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			settle = time.After(reloadSettle)
		case <-settle:
			settle = nil
			err := w.source.Reload(w.path)
			if err != nil {
				log.Printf("[BALANCE] reload of %s rejected: %v", w.path, err)
			} else {
				log.Printf("[BALANCE] reloaded %s, applies to new matches", w.path)
			}
			select {
			case w.Reloads <- err:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[BALANCE] watcher error: %v", err)
		case <-w.closeCh:
			return
		}
	}
}
