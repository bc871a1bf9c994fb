package store

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livetemplate/themeforge"
)

// Writer persists documents in the background.
//
// Writes are coalesced: while a save is in flight only the most recent
// pending document is kept, so a burst of edits results in at most one
// further write. Failures are logged and never reach the caller.
type Writer struct {
	adapter *Adapter
	timeout time.Duration

	mu      sync.Mutex
	pending *themeforge.Document
	busy    bool
	closed  bool
	waiters []chan struct{}

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}

	saves    atomic.Int64
	failures atomic.Int64
}

// NewWriter starts a background writer saving through adapter. Each save is
// bounded by timeout.
func NewWriter(adapter *Adapter, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &Writer{
		adapter: adapter,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Persist schedules doc to be saved and returns immediately.
func (w *Writer) Persist(doc themeforge.Document) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.pending = &doc
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every document handed to Persist so far has been
// written (or has failed), or ctx is done.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.pending == nil && !w.busy {
		w.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	w.waiters = append(w.waiters, ch)
	w.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes any pending document and stops the background goroutine.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	<-w.stopped
	return nil
}

// Saves returns the number of successful writes.
func (w *Writer) Saves() int64 { return w.saves.Load() }

// Failures returns the number of failed writes.
func (w *Writer) Failures() int64 { return w.failures.Load() }

func (w *Writer) loop() {
	defer close(w.stopped)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.done:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		doc := w.pending
		w.pending = nil
		if doc == nil {
			w.busy = false
			waiters := w.waiters
			w.waiters = nil
			w.mu.Unlock()
			for _, ch := range waiters {
				close(ch)
			}
			return
		}
		w.busy = true
		w.mu.Unlock()

		w.save(*doc)
	}
}

func (w *Writer) save(doc themeforge.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.adapter.Save(ctx, doc); err != nil {
		w.failures.Add(1)
		log.Printf("[Store] Failed to persist document: %v", err)
		return
	}
	w.saves.Add(1)
}
