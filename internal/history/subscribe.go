package history

// Subscribe returns a channel of changes and a function that cancels the
// subscription. The current state is delivered first with Kind KindInit.
//
// A subscriber that falls behind only ever sees the latest change: delivery
// never blocks a transition, and intermediate changes may be skipped. The
// channel is closed by the cancel function or by Close.
func (e *Engine) Subscribe() (<-chan Change, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan Change, 1)
	if e.closed {
		close(ch)
		return ch, func() {}
	}

	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	ch <- e.changeLocked(KindInit)

	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if sub, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(sub)
		}
	}
}

// broadcast delivers c to every subscriber, replacing any change the
// subscriber has not read yet. Callers hold e.mu, so there is exactly one
// sender per channel at a time.
func (e *Engine) broadcast(c Change) {
	for _, ch := range e.subs {
		select {
		case ch <- c:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c:
		default:
		}
	}
}

// Close ends every subscription. Transitions keep working afterwards but are
// no longer observed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}
