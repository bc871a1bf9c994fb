// Package session owns the single live editing session of a process: the
// persisted document, its undo history, the save indicator, the preview
// scheduler and the supporting preset library, key bindings and exporter.
//
// A Session is created once at startup and torn down with Close.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/config"
	"github.com/livetemplate/themeforge/internal/export"
	"github.com/livetemplate/themeforge/internal/history"
	"github.com/livetemplate/themeforge/internal/indicator"
	"github.com/livetemplate/themeforge/internal/keymap"
	"github.com/livetemplate/themeforge/internal/presets"
	"github.com/livetemplate/themeforge/internal/preview"
	"github.com/livetemplate/themeforge/internal/scheduler"
	"github.com/livetemplate/themeforge/internal/store"
)

const presetReloadDelay = 200 * time.Millisecond

// Options configures New.
type Options struct {
	// BaseDir resolves relative store and preset paths. Usually the
	// directory holding the config file.
	BaseDir string
	// Backend overrides the backend selected by the store config.
	Backend store.Backend
	// Indicator options, for tests that drive the clock.
	IndicatorOptions []indicator.Option
}

// Session wires the editing components together.
type Session struct {
	cfg *config.Config

	adapter   *store.Adapter
	writer    *store.Writer
	history   *history.Engine
	indicator *indicator.Indicator
	scheduler *scheduler.Scheduler
	library   *presets.Library
	watcher   *presets.Watcher
	keymap    *keymap.Keymap
	registry  *keymap.Registry
	exporter  *export.Exporter
	layouts   []themeforge.LayoutMode

	presetMu     sync.Mutex
	presetSubs   map[int]chan struct{}
	nextPresetID int
	closed       bool

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Status is a consistent view of the session for clients.
type Status struct {
	Seq      uint64              `json:"seq"`
	Document themeforge.Document `json:"document"`
	CanUndo  bool                `json:"canUndo"`
	CanRedo  bool                `json:"canRedo"`
	Saved    bool                `json:"saved"`
	Stale    bool                `json:"stale"`
}

// New opens the configured backend, loads the persisted document over the
// defaults and starts the background tasks.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	debug := cfg.Server.Debug

	km, err := keymap.New(cfg.Keymap)
	if err != nil {
		return nil, fmt.Errorf("invalid keymap: %w", err)
	}
	layouts, err := parseLayouts(cfg.Preview.Layouts)
	if err != nil {
		return nil, err
	}

	backend := opts.Backend
	if backend == nil {
		backend, err = store.Open(ctx, cfg.Store, opts.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
	}

	s := &Session{
		cfg:        cfg,
		keymap:     km,
		registry:   keymap.NewRegistry(),
		layouts:    layouts,
		presetSubs: make(map[int]chan struct{}),
	}

	s.adapter = store.NewAdapter(backend, cfg.Store.GetKey(), debug)
	s.writer = store.NewWriter(s.adapter, cfg.Store.GetTimeout())

	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Store.GetTimeout())
	initial := s.adapter.LoadOrDefault(loadCtx)
	cancelLoad()

	s.history = history.New(initial,
		history.WithMaxDepth(cfg.History.MaxDepth),
		history.WithPersister(s.writer),
		history.WithDebug(debug),
	)
	s.indicator = indicator.New(cfg.Indicator.GetQuietPeriod(), cfg.Indicator.GetSavedDuration(), opts.IndicatorOptions...)
	s.scheduler = scheduler.New(s.render)

	s.library, err = presets.NewLibrary(resolveDir(opts.BaseDir, cfg.Presets.Dir), debug)
	if err != nil {
		// Broken preset files are skipped; the rest of the library loads.
		log.Printf("[Presets] %v", err)
	}
	if cfg.Presets.Watch && isDir(s.library.Dir()) {
		s.watcher, err = presets.NewWatcher(s.library, presetReloadDelay, s.notifyPresets, debug)
		if err != nil {
			log.Printf("[Watch] Failed to watch presets: %v", err)
		} else {
			s.watcher.Start()
		}
	}

	s.exporter = export.New(export.Options{
		Title:      cfg.Title,
		Minify:     cfg.Export.Minify,
		ChromePath: cfg.Export.ChromePath,
		Timeout:    cfg.Export.GetTimeout(),
		CacheTTL:   cfg.Export.GetCacheTTL(),
	})

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	indicatorChanges, _ := s.history.Subscribe()
	schedulerChanges, _ := s.history.Subscribe()
	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		s.indicator.Run(runCtx, indicatorChanges)
	}()
	go func() {
		defer s.wg.Done()
		s.scheduler.Follow(runCtx, schedulerChanges)
	}()
	go func() {
		defer s.wg.Done()
		s.scheduler.Run(runCtx)
	}()

	if debug {
		log.Printf("[Session] Started with %s store, %d presets", backend.Name(), len(s.library.List()))
	}
	return s, nil
}

func parseLayouts(names []string) ([]themeforge.LayoutMode, error) {
	if len(names) == 0 {
		return themeforge.LayoutModes, nil
	}
	out := make([]themeforge.LayoutMode, 0, len(names))
	for _, name := range names {
		mode := themeforge.LayoutMode(name)
		if !mode.IsValid() {
			return nil, fmt.Errorf("unknown preview layout %q", name)
		}
		out = append(out, mode)
	}
	return out, nil
}

func resolveDir(baseDir, dir string) string {
	if dir == "" || filepath.IsAbs(dir) || baseDir == "" {
		return dir
	}
	return filepath.Join(baseDir, dir)
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// render is the scheduler's RenderFunc: the multi-layout preview.
func (s *Session) render(ctx context.Context, doc themeforge.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := preview.RenderModes(&buf, doc, s.layouts); err != nil {
		return nil, err
	}
	return buf.Bytes(), ctx.Err()
}

// Config returns the configuration the session was built from.
func (s *Session) Config() *config.Config { return s.cfg }

// History returns the undo history engine.
func (s *Session) History() *history.Engine { return s.history }

// Indicator returns the save indicator.
func (s *Session) Indicator() *indicator.Indicator { return s.indicator }

// Scheduler returns the preview scheduler.
func (s *Session) Scheduler() *scheduler.Scheduler { return s.scheduler }

// Presets returns the preset library.
func (s *Session) Presets() *presets.Library { return s.library }

// Keymap returns the configured key bindings.
func (s *Session) Keymap() *keymap.Keymap { return s.keymap }

// Registry returns the per-connection key binding registry.
func (s *Session) Registry() *keymap.Registry { return s.registry }

// Exporter returns the exporter.
func (s *Session) Exporter() *export.Exporter { return s.exporter }

// Store returns the persistence adapter.
func (s *Session) Store() *store.Adapter { return s.adapter }

// Writer returns the asynchronous persistence writer.
func (s *Session) Writer() *store.Writer { return s.writer }

// Layouts returns the layouts rendered in the live preview.
func (s *Session) Layouts() []themeforge.LayoutMode { return s.layouts }

// Status returns the current document with its history and save flags.
func (s *Session) Status() Status {
	c := s.history.Current()
	return Status{
		Seq:      c.Seq,
		Document: c.Document,
		CanUndo:  c.CanUndo,
		CanRedo:  c.CanRedo,
		Saved:    s.indicator.Saved(),
		Stale:    s.scheduler.IsStale(),
	}
}

// ErrUnknownPreset is returned for a preset name not in the library.
var ErrUnknownPreset = errors.New("unknown preset")

// ApplyPreset applies the named preset as one undoable edit.
func (s *Session) ApplyPreset(name string) (bool, error) {
	p, ok := s.library.Get(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return s.history.Set(history.Updater(p.Apply)), nil
}

// HandleKey runs the command bound to ev for connection id. It reports the
// command and whether it changed the document; ok is false when nothing is
// bound to ev.
func (s *Session) HandleKey(id string, ev keymap.KeyEvent) (cmd keymap.Command, changed, ok bool) {
	cmd, ok = s.registry.Resolve(id, ev)
	if !ok {
		return "", false, false
	}
	switch cmd {
	case keymap.Undo:
		changed = s.history.Undo()
	case keymap.Redo:
		changed = s.history.Redo()
	}
	return cmd, changed, true
}

// SubscribePresets returns a channel that receives a value after the preset
// library reloads. Reloads in quick succession coalesce.
func (s *Session) SubscribePresets() (<-chan struct{}, func()) {
	s.presetMu.Lock()
	defer s.presetMu.Unlock()

	ch := make(chan struct{}, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextPresetID
	s.nextPresetID++
	s.presetSubs[id] = ch

	return ch, func() {
		s.presetMu.Lock()
		defer s.presetMu.Unlock()
		if sub, ok := s.presetSubs[id]; ok {
			delete(s.presetSubs, id)
			close(sub)
		}
	}
}

func (s *Session) notifyPresets() {
	s.presetMu.Lock()
	defer s.presetMu.Unlock()
	for _, ch := range s.presetSubs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Export renders the present document in format.
func (s *Session) Export(ctx context.Context, format export.Format) (*export.Result, error) {
	return s.exporter.Export(ctx, s.history.Present(), format)
}

// Reset discards history and returns to the default document, which is then
// persisted like any other edit.
func (s *Session) Reset() bool {
	return s.history.Reset(themeforge.Default())
}

// Flush waits for pending saves to reach the backend.
func (s *Session) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Close stops the background tasks, flushes pending saves and closes the
// backend. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.watcher != nil {
			if err := s.watcher.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop watcher: %w", err))
			}
		}

		s.presetMu.Lock()
		s.closed = true
		for id, ch := range s.presetSubs {
			delete(s.presetSubs, id)
			close(ch)
		}
		s.presetMu.Unlock()

		s.cancel()
		s.wg.Wait()
		s.scheduler.Close()
		s.indicator.Stop()
		s.history.Close()
		s.exporter.Close()

		if err := s.writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("flush store: %w", err))
		}
		if err := s.adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
