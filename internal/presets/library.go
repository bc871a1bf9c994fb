package presets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
)

//go:embed builtin/*.md
var builtinFS embed.FS

// Library holds the presets currently available.
type Library struct {
	dir   string
	debug bool

	mu      sync.RWMutex
	presets map[string]Preset
}

// NewLibrary creates a library of the built-in presets plus the presets in
// dir. An empty or missing dir only yields the built-ins. A file that fails
// to parse is skipped and reported in the returned error; the library is
// usable either way.
func NewLibrary(dir string, debug bool) (*Library, error) {
	l := &Library{dir: dir, debug: debug}
	return l, l.Reload()
}

// Dir returns the directory user presets are read from.
func (l *Library) Dir() string {
	return l.dir
}

// Reload re-reads every preset and swaps the result in atomically.
func (l *Library) Reload() error {
	presets := make(map[string]Preset)
	var errs []error

	entries, err := fs.Glob(builtinFS, "builtin/*.md")
	if err != nil {
		return err
	}
	for _, name := range entries {
		content, err := builtinFS.ReadFile(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p, err := Parse(path.Base(name), content)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.Builtin = true
		presets[p.Name] = p
	}

	if l.dir != "" {
		files, err := filepath.Glob(filepath.Join(l.dir, "*.md"))
		if err != nil {
			errs = append(errs, err)
		}
		for _, file := range files {
			content, err := os.ReadFile(file)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to read preset: %w", err))
				continue
			}
			p, err := Parse(file, content)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if l.debug {
				if _, exists := presets[p.Name]; exists {
					log.Printf("[Presets] %s overrides a built-in preset", file)
				}
			}
			presets[p.Name] = p
		}
	}

	l.mu.Lock()
	l.presets = presets
	l.mu.Unlock()

	if l.debug {
		log.Printf("[Presets] Loaded %d presets", len(presets))
	}
	return errors.Join(errs...)
}

// List returns every preset sorted by name.
func (l *Library) List() []Preset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Preset, 0, len(l.presets))
	for _, p := range l.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the named preset.
func (l *Library) Get(name string) (Preset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.presets[name]
	return p, ok
}
