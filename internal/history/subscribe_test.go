package history

import (
	"testing"
	"time"

	"github.com/livetemplate/themeforge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "channel closed")
		return c
	case <-time.After(time.Second):
		t.Fatal("no change delivered")
		return Change{}
	}
}

func TestSubscribeDeliversCurrentFirst(t *testing.T) {
	e := New(color(0))
	e.Set(Replace(color(1)))

	ch, cancel := e.Subscribe()
	defer cancel()

	c := receive(t, ch)
	assert.Equal(t, KindInit, c.Kind)
	assert.Equal(t, color(1), c.Document)
	assert.Equal(t, uint64(1), c.Seq)
	assert.True(t, c.CanUndo)
	assert.False(t, c.CanRedo)
}

func TestChangesCarryStackFlags(t *testing.T) {
	e := New(color(0))
	ch, cancel := e.Subscribe()
	defer cancel()
	receive(t, ch)

	e.Set(Replace(color(1)))
	c := receive(t, ch)
	assert.Equal(t, KindSet, c.Kind)
	assert.True(t, c.CanUndo)
	assert.False(t, c.CanRedo)

	e.Undo()
	c = receive(t, ch)
	assert.Equal(t, KindUndo, c.Kind)
	assert.Equal(t, color(0), c.Document)
	assert.False(t, c.CanUndo)
	assert.True(t, c.CanRedo)

	e.Redo()
	c = receive(t, ch)
	assert.Equal(t, KindRedo, c.Kind)
	assert.Equal(t, uint64(3), c.Seq)
}

func TestSlowSubscriberSeesLatest(t *testing.T) {
	e := New(color(0))
	ch, cancel := e.Subscribe()
	defer cancel()

	for i := 1; i <= 20; i++ {
		e.Set(Replace(color(i)))
	}

	c := receive(t, ch)
	assert.Equal(t, color(20), c.Document)
	assert.Equal(t, uint64(20), c.Seq)

	select {
	case extra := <-ch:
		t.Fatalf("expected coalesced delivery, got extra %+v", extra)
	default:
	}
}

func TestSeqStrictlyIncreases(t *testing.T) {
	e := New(color(0))
	ch, cancel := e.Subscribe()
	defer cancel()

	last := receive(t, ch).Seq
	for i := 1; i <= 5; i++ {
		e.Set(Replace(color(i)))
		c := receive(t, ch)
		assert.Greater(t, c.Seq, last)
		last = c.Seq
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	e := New(color(0))
	ch, cancel := e.Subscribe()
	receive(t, ch)

	cancel()
	cancel() // idempotent
	_, ok := <-ch
	assert.False(t, ok)

	assert.True(t, e.Set(Replace(color(1))), "engine keeps working without subscribers")
}

func TestCloseEndsSubscriptions(t *testing.T) {
	e := New(themeforge.Default())
	ch, cancel := e.Subscribe()
	defer cancel()
	receive(t, ch)

	e.Close()
	_, ok := <-ch
	assert.False(t, ok)

	late, lateCancel := e.Subscribe()
	defer lateCancel()
	_, ok = <-late
	assert.False(t, ok, "subscribing after Close yields a closed channel")
}

func TestChangesReportEdits(t *testing.T) {
	e := New(color(0))
	ch, cancel := e.Subscribe()
	defer cancel()
	assert.False(t, receive(t, ch).Edited)

	e.Set(Replace(color(1)))
	assert.True(t, receive(t, ch).Edited)

	e.Undo()
	receive(t, ch)

	// Present is color(0) with a redo entry: the reset only clears stacks.
	require.True(t, e.Reset(color(0)))
	c := receive(t, ch)
	assert.Equal(t, KindReset, c.Kind)
	assert.False(t, c.Edited)
	assert.False(t, c.CanRedo)

	e.Set(Replace(color(2)))
	receive(t, ch)
	require.True(t, e.Reset(color(0)))
	assert.True(t, receive(t, ch).Edited)
}
