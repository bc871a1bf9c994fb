// Package history implements the linear undo/redo history of the design
// document. The Engine is the only mutator of the live document: every edit,
// whatever its origin, enters through Set (or one of the helpers built on it).
package history

import (
	"errors"
	"log"
	"sync"

	"github.com/livetemplate/themeforge"
)

// Kind names the transition that produced a Change.
type Kind string

const (
	KindInit  Kind = "init" // current state delivered on Subscribe
	KindSet   Kind = "set"
	KindUndo  Kind = "undo"
	KindRedo  Kind = "redo"
	KindReset Kind = "reset"
)

// Change is delivered to subscribers after every transition.
type Change struct {
	Seq      uint64
	Document themeforge.Document
	Kind     Kind
	CanUndo  bool
	CanRedo  bool
	// Edited is false when the transition left the present document as it
	// was, as a reset that only clears the stacks does.
	Edited bool
}

// State is a snapshot of the three history stacks.
// Past is ordered oldest to newest, Future nearest to farthest.
type State struct {
	Past    []themeforge.Document
	Present themeforge.Document
	Future  []themeforge.Document
}

// Updater computes the next document from the present one. It must be pure.
type Updater func(themeforge.Document) themeforge.Document

// Replace returns an Updater that ignores the present document.
func Replace(doc themeforge.Document) Updater {
	return func(themeforge.Document) themeforge.Document { return doc }
}

// Persister receives the present document after every transition. It must
// not block.
type Persister interface {
	Persist(doc themeforge.Document)
}

// ErrUnknownAction is returned by HandleAction for an unrecognized action.
var ErrUnknownAction = errors.New("unknown history action")

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth bounds the number of undo entries kept. 0 means unlimited.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithPersister saves the present document after every transition.
func WithPersister(p Persister) Option {
	return func(e *Engine) { e.persister = p }
}

// WithDebug logs every transition.
func WithDebug(debug bool) Option {
	return func(e *Engine) { e.debug = debug }
}

// Engine holds the undo/redo history of one editing session.
// Transitions are serialized; readers never observe a partial transition.
type Engine struct {
	mu      sync.Mutex
	past    []themeforge.Document
	present themeforge.Document
	future  []themeforge.Document
	seq     uint64

	maxDepth  int
	persister Persister
	debug     bool

	subs   map[int]chan Change
	nextID int
	closed bool
}

// New creates an engine whose present is initial and whose stacks are empty.
func New(initial themeforge.Document, opts ...Option) *Engine {
	e := &Engine{
		present: initial,
		subs:    make(map[int]chan Change),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Set moves to the document produced by update. It returns false, and
// records nothing, when the result equals the present document.
func (e *Engine) Set(update Updater) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := update(e.present)
	if next.Equal(e.present) {
		return false
	}

	e.past = append(e.past, e.present)
	if e.maxDepth > 0 && len(e.past) > e.maxDepth {
		e.past = append([]themeforge.Document(nil), e.past[len(e.past)-e.maxDepth:]...)
	}
	e.present = next
	e.future = nil

	e.commit(KindSet, true)
	return true
}

// Apply merges patch into the present document.
func (e *Engine) Apply(patch themeforge.Patch) bool {
	return e.Set(patch.Apply)
}

// Undo steps back one entry. It is a no-op when there is nothing to undo.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.past) == 0 {
		return false
	}

	last := len(e.past) - 1
	prev := e.past[last]
	e.past = e.past[:last:last]
	e.future = append([]themeforge.Document{e.present}, e.future...)
	e.present = prev

	e.commit(KindUndo, true)
	return true
}

// Redo steps forward one entry. It is a no-op when there is nothing to redo.
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.future) == 0 {
		return false
	}

	next := e.future[0]
	e.future = e.future[1:]
	e.past = append(e.past, e.present)
	e.present = next

	e.commit(KindRedo, true)
	return true
}

// Reset replaces the present document and clears both stacks. It returns
// false when there was nothing to change.
func (e *Engine) Reset(doc themeforge.Document) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed := !doc.Equal(e.present)
	if !changed && len(e.past) == 0 && len(e.future) == 0 {
		return false
	}

	e.past = nil
	e.future = nil
	e.present = doc

	e.commit(KindReset, changed)
	return true
}

// commit notifies subscribers and, when the present changed (persist), saves it.
// Callers hold e.mu.
func (e *Engine) commit(kind Kind, persist bool) {
	e.seq++
	if e.debug {
		log.Printf("[History] %s -> seq %d (past=%d, future=%d)", kind, e.seq, len(e.past), len(e.future))
	}
	if persist && e.persister != nil {
		e.persister.Persist(e.present)
	}
	c := e.changeLocked(kind)
	c.Edited = persist
	e.broadcast(c)
}

func (e *Engine) changeLocked(kind Kind) Change {
	return Change{
		Seq:      e.seq,
		Document: e.present,
		Kind:     kind,
		CanUndo:  len(e.past) > 0,
		CanRedo:  len(e.future) > 0,
	}
}

// Present returns the current document.
func (e *Engine) Present() themeforge.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.present
}

// CanUndo reports whether Undo would change the document.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.past) > 0
}

// CanRedo reports whether Redo would change the document.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.future) > 0
}

// Current returns the latest change, as a subscriber would see it.
func (e *Engine) Current() Change {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changeLocked(KindInit)
}

// Snapshot returns a copy of all three stacks taken atomically.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Past:    append([]themeforge.Document(nil), e.past...),
		Present: e.present,
		Future:  append([]themeforge.Document(nil), e.future...),
	}
}
