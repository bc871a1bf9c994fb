package presets

import (
	"log"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a library when preset files change.
// Editors write files in several steps, so events are debounced and a burst
// of changes causes a single reload.
type Watcher struct {
	watcher  *fsnotify.Watcher
	library  *Library
	onReload func()
	debounce func(f func())
	done     chan struct{}
	debug    bool
}

// NewWatcher watches the library's directory. onReload, if set, runs after
// every reload.
func NewWatcher(library *Library, delay time.Duration, onReload func(), debug bool) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsWatcher.Add(library.Dir()); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	if debug {
		log.Printf("[Watch] Added directory: %s", library.Dir())
	}

	return &Watcher{
		watcher:  fsWatcher,
		library:  library,
		onReload: onReload,
		debounce: debounce.New(delay),
		done:     make(chan struct{}),
		debug:    debug,
	}, nil
}

// Start begins watching for file changes.
func (w *Watcher) Start() {
	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".md" {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}

				if w.debug {
					log.Printf("[Watch] Preset changed: %s", filepath.Base(event.Name))
				}
				w.debounce(w.reload)

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[Watch] Error: %v", err)

			case <-w.done:
				return
			}
		}
	}()
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	if err := w.library.Reload(); err != nil {
		log.Printf("[Watch] Reload failed: %v", err)
	}
	if w.onReload != nil {
		w.onReload()
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
