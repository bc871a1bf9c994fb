package keymap

import "sync"

// Registry tracks the keymap installed for each live client connection.
// A connection registers when it opens and unregisters when it closes, so
// bindings never outlive the connection that installed them.
type Registry struct {
	mu      sync.RWMutex
	keymaps map[string]*Keymap
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{keymaps: make(map[string]*Keymap)}
}

// Register installs km for the connection id and returns the function that
// removes it.
func (r *Registry) Register(id string, km *Keymap) func() {
	r.mu.Lock()
	r.keymaps[id] = km
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.keymaps[id] == km {
			delete(r.keymaps, id)
		}
	}
}

// Resolve looks up the command bound to ev for the connection id.
func (r *Registry) Resolve(id string, ev KeyEvent) (Command, bool) {
	r.mu.RLock()
	km, ok := r.keymaps[id]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	return km.Resolve(ev)
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keymaps)
}
