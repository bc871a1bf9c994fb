package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/livetemplate/themeforge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedBackend blocks every Set until released and records what was written.
type gatedBackend struct {
	*MemoryBackend
	gate chan struct{}

	mu     sync.Mutex
	writes [][]byte
}

func newGatedBackend() *gatedBackend {
	return &gatedBackend{MemoryBackend: NewMemoryBackend(), gate: make(chan struct{})}
}

func (g *gatedBackend) Set(ctx context.Context, key string, value []byte) error {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	g.mu.Lock()
	g.writes = append(g.writes, value)
	g.mu.Unlock()
	return g.MemoryBackend.Set(ctx, key, value)
}

func (g *gatedBackend) writeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.writes)
}

func withColor(c string) themeforge.Document {
	d := themeforge.Default()
	d.PrimaryColor = c
	return d
}

func TestWriterPersistsLatest(t *testing.T) {
	b := NewMemoryBackend()
	a := NewAdapter(b, "", false)
	w := NewWriter(a, time.Second)
	defer w.Close()

	w.Persist(withColor("#000001"))
	w.Persist(withColor("#000002"))
	require.NoError(t, w.Flush(context.Background()))

	doc, ok := a.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "#000002", doc.PrimaryColor)
}

func TestWriterCoalescesBurst(t *testing.T) {
	b := newGatedBackend()
	a := NewAdapter(b, "", false)
	w := NewWriter(a, 5*time.Second)
	defer w.Close()

	// First write blocks in the backend; the rest pile up behind it.
	w.Persist(withColor("#000001"))
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.busy
	}, time.Second, time.Millisecond)

	for i := 2; i <= 9; i++ {
		w.Persist(withColor("#00000" + string(rune('0'+i))))
	}
	close(b.gate)

	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, 2, b.writeCount(), "in-flight write plus one coalesced write")

	doc, ok := a.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "#000009", doc.PrimaryColor)
	assert.Equal(t, int64(2), w.Saves())
}

func TestWriterFailureIsSwallowed(t *testing.T) {
	a := NewAdapter(failingBackend{err: errors.New("disk full")}, "", false)
	w := NewWriter(a, time.Second)
	defer w.Close()

	w.Persist(themeforge.Default())
	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, int64(1), w.Failures())
	assert.Equal(t, int64(0), w.Saves())
}

func TestWriterFlushIdle(t *testing.T) {
	w := NewWriter(NewAdapter(NewMemoryBackend(), "", false), time.Second)
	defer w.Close()

	assert.NoError(t, w.Flush(context.Background()))
}

func TestWriterFlushHonoursContext(t *testing.T) {
	b := newGatedBackend()
	w := NewWriter(NewAdapter(b, "", false), 5*time.Second)

	w.Persist(themeforge.Default())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Flush(ctx), context.DeadlineExceeded)

	close(b.gate)
	require.NoError(t, w.Close())
}

func TestWriterCloseDrainsPending(t *testing.T) {
	b := NewMemoryBackend()
	a := NewAdapter(b, "", false)
	w := NewWriter(a, time.Second)

	w.Persist(withColor("#abcdef"))
	require.NoError(t, w.Close())

	doc, ok := a.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "#abcdef", doc.PrimaryColor)

	// Persist after Close is ignored; Close is idempotent.
	w.Persist(withColor("#000000"))
	assert.NoError(t, w.Close())
}
