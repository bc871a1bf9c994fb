// Package scheduler renders the preview behind the authoritative document.
//
// Edits are published as they happen; a single consumer goroutine renders at
// its own pace and skips intermediate documents. The last rendered frame (the
// lagging value) only moves forward and converges on the latest published
// document once edits stop.
package scheduler

import (
	"context"
	"log"
	"sync"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/history"
)

// RenderFunc produces the output for one document. It may be slow.
type RenderFunc func(ctx context.Context, doc themeforge.Document) ([]byte, error)

// Frame is one rendered document.
type Frame struct {
	Seq      uint64
	Document themeforge.Document
	Output   []byte
	Err      error
}

type job struct {
	seq uint64
	doc themeforge.Document
}

// Scheduler couples the authoritative sequence with a lagging rendered frame.
type Scheduler struct {
	render RenderFunc

	mu           sync.Mutex
	published    uint64
	hasPublished bool
	lagging      Frame
	hasLagging   bool
	subs         map[int]chan Frame
	nextID       int
	closed       bool

	mailbox chan job
}

// New creates a scheduler. Call Run to start rendering.
func New(render RenderFunc) *Scheduler {
	return &Scheduler{
		render:  render,
		subs:    make(map[int]chan Frame),
		mailbox: make(chan job, 1),
	}
}

// Publish records doc as the authoritative document for seq and queues it for
// rendering, replacing any document still waiting. A seq at or below the
// latest published one is ignored; the result reports whether doc was taken.
func (s *Scheduler) Publish(seq uint64, doc themeforge.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || (s.hasPublished && seq <= s.published) {
		return false
	}
	s.published = seq
	s.hasPublished = true

	select {
	case <-s.mailbox:
	default:
	}
	s.mailbox <- job{seq: seq, doc: doc}
	return true
}

// Follow publishes every change from a history stream until ctx is done or
// the stream closes.
func (s *Scheduler) Follow(ctx context.Context, changes <-chan history.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			s.Publish(c.Seq, c.Document)
		}
	}
}

// Run renders queued documents until ctx is done. A render in progress is
// not interrupted by newer publishes; its frame is still delivered.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.mailbox:
			out, err := s.render(ctx, j.doc)
			if err != nil && ctx.Err() == nil {
				log.Printf("[Render] seq %d failed: %v", j.seq, err)
			}
			s.deliver(Frame{Seq: j.seq, Document: j.doc, Output: out, Err: err})
		}
	}
}

func (s *Scheduler) deliver(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasLagging && f.Seq <= s.lagging.Seq {
		return
	}
	s.lagging = f
	s.hasLagging = true

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- f:
		default:
		}
	}
}

// Lagging returns the last rendered frame, and false if nothing has been
// rendered yet.
func (s *Scheduler) Lagging() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lagging, s.hasLagging
}

// Published returns the latest authoritative sequence number.
func (s *Scheduler) Published() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published
}

// IsStale reports whether the lagging frame trails the authoritative document.
func (s *Scheduler) IsStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasPublished {
		return false
	}
	return !s.hasLagging || s.lagging.Seq != s.published
}

// Subscribe returns a channel receiving the latest frame after every render.
// If a frame already exists it is delivered first.
func (s *Scheduler) Subscribe() (<-chan Frame, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Frame, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	if s.hasLagging {
		ch <- s.lagging
	}

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// Close stops accepting publishes and ends every subscription.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
