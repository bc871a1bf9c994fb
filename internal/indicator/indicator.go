// Package indicator implements the debounced "saved" flash shown after edits.
//
// The indicator is idle until edits stop for the quiet period, then shows
// "saved" for the saved duration, then returns to idle. Any edit restarts the
// cycle from idle. The first document observed (the one loaded at start) never
// triggers the flash.
package indicator

import (
	"context"
	"sync"
	"time"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/history"
)

// State is the visible indicator state.
type State int

const (
	Idle State = iota
	JustSaved
)

func (s State) String() string {
	if s == JustSaved {
		return "saved"
	}
	return "idle"
}

// Timer is the part of *time.Timer the indicator needs.
type Timer interface {
	Stop() bool
}

// AfterFunc arms a timer that calls f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures an Indicator.
type Option func(*Indicator)

// WithAfterFunc replaces the timer source, for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(i *Indicator) { i.afterFunc = fn }
}

// Indicator is the {idle, justSaved} state machine.
type Indicator struct {
	quiet     time.Duration
	saved     time.Duration
	afterFunc AfterFunc

	mu      sync.Mutex
	state   State
	seen    bool
	lastSeq uint64
	gen     uint64
	timer   Timer
	stopped bool

	subs   map[int]chan State
	nextID int
}

// New creates an idle indicator.
func New(quiet, saved time.Duration, opts ...Option) *Indicator {
	i := &Indicator{
		quiet:     quiet,
		saved:     saved,
		afterFunc: realAfterFunc,
		subs:      make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Observe records that the document identified by seq is now current.
// The first call only records the baseline. Repeated or older sequence
// numbers are ignored.
func (i *Indicator) Observe(seq uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.stopped {
		return
	}
	if !i.seen {
		i.seen = true
		i.lastSeq = seq
		return
	}
	if seq <= i.lastSeq {
		return
	}
	i.lastSeq = seq

	i.setLocked(Idle)
	i.armLocked(i.quiet, i.onQuiet)
}

// armLocked stops the live timer and arms a new one tagged with a fresh
// generation. A stopped timer that fires anyway sees a stale generation and
// does nothing.
func (i *Indicator) armLocked(d time.Duration, next func(gen uint64)) {
	if i.timer != nil {
		i.timer.Stop()
	}
	i.gen++
	gen := i.gen
	i.timer = i.afterFunc(d, func() { next(gen) })
}

func (i *Indicator) onQuiet(gen uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if gen != i.gen || i.stopped {
		return
	}
	i.setLocked(JustSaved)
	i.armLocked(i.saved, i.onSavedElapsed)
}

func (i *Indicator) onSavedElapsed(gen uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if gen != i.gen || i.stopped {
		return
	}
	i.timer = nil
	i.setLocked(Idle)
}

func (i *Indicator) setLocked(s State) {
	if i.state == s {
		return
	}
	i.state = s
	for _, ch := range i.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// State returns the current state.
func (i *Indicator) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Saved reports whether the "saved" flash is showing.
func (i *Indicator) Saved() bool {
	return i.State() == JustSaved
}

// Subscribe returns a channel that receives the latest state after every
// transition, and a function that cancels the subscription.
func (i *Indicator) Subscribe() (<-chan State, func()) {
	i.mu.Lock()
	defer i.mu.Unlock()

	ch := make(chan State, 1)
	if i.stopped {
		close(ch)
		return ch, func() {}
	}
	id := i.nextID
	i.nextID++
	i.subs[id] = ch

	return ch, func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		if sub, ok := i.subs[id]; ok {
			delete(i.subs, id)
			close(sub)
		}
	}
}

// Run feeds the indicator from a history change stream until ctx is done or
// the stream closes, then stops it.
func (i *Indicator) Run(ctx context.Context, changes <-chan history.Change) {
	defer i.Stop()
	var last themeforge.Document
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			// A reset that only clears the stacks saves nothing. Subscriptions
			// keep the latest change, so an edit coalesced into such a reset
			// still shows up as a different document.
			edited := c.Edited || !c.Document.Equal(last)
			last = c.Document
			if c.Kind != history.KindInit && !edited {
				continue
			}
			i.Observe(c.Seq)
		}
	}
}

// Stop cancels any live timer and closes subscriptions.
func (i *Indicator) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped {
		return
	}
	i.stopped = true
	i.gen++
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
	for id, ch := range i.subs {
		delete(i.subs, id)
		close(ch)
	}
}
