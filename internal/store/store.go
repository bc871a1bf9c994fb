// Package store persists the design document to a durable key-value slot.
//
// A Backend only moves bytes. The Adapter owns the document encoding and the
// lenient load rules: anything it cannot make sense of is reported as
// "nothing stored" so the caller falls back to defaults.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/config"
)

// Backend is a durable key-value slot.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources.
	Close() error
}

// StoreError wraps backend errors with operation context
type StoreError struct {
	Backend string // Backend name (e.g., "sqlite")
	Op      string // Operation that failed (e.g., "get", "set")
	Key     string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %s %q failed: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Adapter loads and saves the design document under a fixed key.
type Adapter struct {
	backend Backend
	key     string
	debug   bool
}

// NewAdapter creates an adapter over backend using key as the slot.
func NewAdapter(backend Backend, key string, debug bool) *Adapter {
	if key == "" {
		key = themeforge.StorageKey
	}
	return &Adapter{backend: backend, key: key, debug: debug}
}

// Backend returns the underlying backend.
func (a *Adapter) Backend() Backend {
	return a.backend
}

// Load returns the persisted document merged over the defaults.
//
// The second result is false when nothing usable is stored: an empty slot, a
// backend failure, a corrupt payload or a payload that is not a document.
// None of these is an error for the caller, who starts from defaults.
func (a *Adapter) Load(ctx context.Context) (themeforge.Document, bool) {
	data, ok, err := a.backend.Get(ctx, a.key)
	if err != nil {
		log.Printf("[Store] Failed to load document: %v", &StoreError{Backend: a.backend.Name(), Op: "get", Key: a.key, Err: err})
		return themeforge.Document{}, false
	}
	if !ok {
		return themeforge.Document{}, false
	}

	doc, err := themeforge.MergeJSON(data)
	if err != nil {
		if a.debug {
			log.Printf("[Store] Ignoring unreadable payload under %q: %v", a.key, err)
		}
		return themeforge.Document{}, false
	}
	return doc, true
}

// LoadOrDefault returns the persisted document, or the defaults when nothing
// usable is stored.
func (a *Adapter) LoadOrDefault(ctx context.Context) themeforge.Document {
	if doc, ok := a.Load(ctx); ok {
		return doc
	}
	return themeforge.Default()
}

// Save persists doc.
func (a *Adapter) Save(ctx context.Context, doc themeforge.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return &StoreError{Backend: a.backend.Name(), Op: "encode", Key: a.key, Err: err}
	}
	if err := a.backend.Set(ctx, a.key, data); err != nil {
		return &StoreError{Backend: a.backend.Name(), Op: "set", Key: a.key, Err: err}
	}
	return nil
}

// Clear removes the persisted document.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.backend.Delete(ctx, a.key); err != nil {
		return &StoreError{Backend: a.backend.Name(), Op: "delete", Key: a.key, Err: err}
	}
	return nil
}

// Close closes the backend.
func (a *Adapter) Close() error {
	return a.backend.Close()
}

// ErrUnsupportedBackend is returned by Open for an unknown store type.
var ErrUnsupportedBackend = errors.New("unsupported store type")

// Open creates the backend selected by cfg. Relative paths resolve against baseDir.
func Open(ctx context.Context, cfg config.StoreConfig, baseDir string) (Backend, error) {
	switch cfg.Type {
	case "", "file":
		return NewFileBackend(resolvePath(baseDir, cfg.Path, ".themeforge"))
	case "memory":
		return NewMemoryBackend(), nil
	case "sqlite":
		return NewSQLiteBackend(ctx, resolvePath(baseDir, cfg.Path, "themeforge.db"), cfg.GetTable())
	case "postgres":
		return NewPostgresBackend(ctx, cfg.GetDSN(), cfg.GetTable())
	case "redis":
		return NewRedisBackend(ctx, cfg.GetURL(), cfg.Prefix)
	case "s3":
		return NewS3Backend(ctx, S3Options{
			Endpoint:  cfg.Endpoint,
			Bucket:    cfg.Bucket,
			AccessKey: cfg.GetAccessKey(),
			SecretKey: cfg.GetSecretKey(),
			UseSSL:    cfg.UseSSL,
			Prefix:    cfg.Prefix,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, cfg.Type)
	}
}

func resolvePath(baseDir, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
