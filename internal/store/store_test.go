package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingBackend errors on every operation.
type failingBackend struct{ err error }

func (f failingBackend) Name() string { return "failing" }
func (f failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, f.err
}
func (f failingBackend) Set(context.Context, string, []byte) error { return f.err }
func (f failingBackend) Delete(context.Context, string) error      { return f.err }
func (f failingBackend) Close() error                              { return nil }

// backendContract runs the behaviour every backend must share.
func backendContract(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := b.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok, "missing key reports not found")

	require.NoError(t, b.Set(ctx, "doc", []byte(`{"a":1}`)))
	data, ok, err := b.Get(ctx, "doc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))

	require.NoError(t, b.Set(ctx, "doc", []byte(`{"a":2}`)))
	data, _, err = b.Get(ctx, "doc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(data), "set replaces previous value")

	require.NoError(t, b.Delete(ctx, "doc"))
	_, ok, err = b.Get(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, b.Delete(ctx, "doc"), "deleting a missing key is not an error")
}

func TestMemoryBackend(t *testing.T) {
	backendContract(t, NewMemoryBackend())
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	value := []byte("abc")
	require.NoError(t, b.Set(ctx, "k", value))
	value[0] = 'x'

	got, _, _ := b.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestFileBackend(t *testing.T) {
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	backendContract(t, b)
}

func TestFileBackendRejectsUnsafeKeys(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		assert.Error(t, b.Set(context.Background(), key, []byte("x")), "key %q", key)
	}
}

func TestFileBackendLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, b.Set(context.Background(), "doc", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.json", entries[0].Name())
}

func TestAdapterRoundTrip(t *testing.T) {
	a := NewAdapter(NewMemoryBackend(), "", false)
	ctx := context.Background()

	_, ok := a.Load(ctx)
	assert.False(t, ok, "empty slot")
	assert.Equal(t, themeforge.Default(), a.LoadOrDefault(ctx))

	doc := themeforge.Default()
	doc.PrimaryColor = "#ff0000"
	doc.DarkMode = true
	doc.LayoutMode = themeforge.LayoutDashboard
	require.NoError(t, a.Save(ctx, doc))

	loaded, ok := a.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, doc, loaded)

	require.NoError(t, a.Clear(ctx))
	_, ok = a.Load(ctx)
	assert.False(t, ok)
}

func TestAdapterUsesStorageKey(t *testing.T) {
	b := NewMemoryBackend()
	a := NewAdapter(b, "", false)
	require.NoError(t, a.Save(context.Background(), themeforge.Default()))

	_, ok, _ := b.Get(context.Background(), themeforge.StorageKey)
	assert.True(t, ok)
}

func TestAdapterLoadIsLenient(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		ok      bool
	}{
		{"partial document", `{"primaryColor":"#111111"}`, true},
		{"corrupt", `{"primaryColor":`, false},
		{"array", `[1,2,3]`, false},
		{"null", `null`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewMemoryBackend()
			require.NoError(t, b.Set(context.Background(), themeforge.StorageKey, []byte(tt.payload)))

			doc, ok := NewAdapter(b, "", false).Load(context.Background())
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, "#111111", doc.PrimaryColor)
				assert.Equal(t, themeforge.Default().SecondaryColor, doc.SecondaryColor)
			}
		})
	}
}

func TestAdapterBackendFailure(t *testing.T) {
	boom := errors.New("boom")
	a := NewAdapter(failingBackend{err: boom}, "", false)

	_, ok := a.Load(context.Background())
	assert.False(t, ok, "read failures fall back to defaults")

	err := a.Save(context.Background(), themeforge.Default())
	require.Error(t, err)

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "failing", storeErr.Backend)
	assert.Equal(t, "set", storeErr.Op)
	assert.ErrorIs(t, err, boom)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := Open(ctx, config.StoreConfig{Type: "memory"}, dir)
	require.NoError(t, err)
	assert.Equal(t, "memory", b.Name())

	b, err = Open(ctx, config.StoreConfig{}, dir)
	require.NoError(t, err)
	assert.Equal(t, "file", b.Name())
	assert.Equal(t, filepath.Join(dir, ".themeforge"), b.(*FileBackend).Dir())

	b, err = Open(ctx, config.StoreConfig{Type: "sqlite", Path: "data/tf.db"}, dir)
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "sqlite", b.Name())
	assert.FileExists(t, filepath.Join(dir, "data", "tf.db"))

	_, err = Open(ctx, config.StoreConfig{Type: "etcd"}, dir)
	assert.ErrorIs(t, err, ErrUnsupportedBackend)

	_, err = Open(ctx, config.StoreConfig{Type: "postgres"}, dir)
	assert.Error(t, err, "postgres requires a dsn")
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("base", "x"), resolvePath("base", "x", "fallback"))
	assert.Equal(t, filepath.Join("base", "fallback"), resolvePath("base", "", "fallback"))
	assert.Equal(t, "/abs/x", resolvePath("base", "/abs/x", "fallback"))
	assert.Equal(t, "x", resolvePath("", "x", "fallback"))
}
