package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/config"
	"github.com/livetemplate/themeforge/internal/export"
	"github.com/livetemplate/themeforge/internal/keymap"
	"github.com/livetemplate/themeforge/internal/store"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Store.Type = "memory"
	cfg.Presets.Watch = false
	return cfg
}

func newTestSession(t *testing.T, cfg *config.Config, opts Options) *Session {
	t.Helper()
	s, err := New(context.Background(), cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func waitFresh(t *testing.T, s *Session) {
	t.Helper()
	require.Eventually(t, func() bool { return !s.Scheduler().IsStale() }, 2*time.Second, 5*time.Millisecond)
}

func TestNewStartsFromDefaults(t *testing.T) {
	s := newTestSession(t, testConfig(), Options{})

	st := s.Status()
	assert.Equal(t, themeforge.Default(), st.Document)
	assert.False(t, st.CanUndo)
	assert.False(t, st.CanRedo)
	assert.Equal(t, themeforge.LayoutModes, s.Layouts())
}

func TestNewMergesPersistedDocument(t *testing.T) {
	backend := store.NewMemoryBackend()
	require.NoError(t, backend.Set(context.Background(), themeforge.StorageKey,
		[]byte(`{"primaryColor":"#FF0000","gridColumns":"wide","futureField":1}`)))

	s := newTestSession(t, testConfig(), Options{Backend: backend})

	doc := s.History().Present()
	assert.Equal(t, "#FF0000", doc.PrimaryColor)
	assert.Equal(t, themeforge.Default().GridColumns, doc.GridColumns, "wrong type falls back to the default")
	assert.Equal(t, themeforge.Default().HeadingText, doc.HeadingText)
}

func TestEditsArePersisted(t *testing.T) {
	backend := store.NewMemoryBackend()
	cfg := testConfig()

	s, err := New(context.Background(), cfg, Options{Backend: backend})
	require.NoError(t, err)

	color := "#123456"
	assert.True(t, s.History().Apply(themeforge.Patch{PrimaryColor: &color}))
	require.NoError(t, s.Flush(context.Background()))

	loaded, ok := store.NewAdapter(backend, "", false).Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "#123456", loaded.PrimaryColor)

	// A new session over the same slot starts from the saved document but
	// with empty history.
	s2, err := New(context.Background(), cfg, Options{Backend: backend})
	require.NoError(t, err)
	assert.Equal(t, "#123456", s2.History().Present().PrimaryColor)
	assert.False(t, s2.Status().CanUndo)
	require.NoError(t, s2.Close())
	require.NoError(t, s.Close())
}

func TestPreviewConverges(t *testing.T) {
	s := newTestSession(t, testConfig(), Options{})

	for i := 1; i <= 20; i++ {
		cols := i%4 + 1
		s.History().Apply(themeforge.Patch{GridColumns: &cols})
	}
	waitFresh(t, s)

	frame, ok := s.Scheduler().Lagging()
	require.True(t, ok)
	assert.Equal(t, s.History().Present(), frame.Document)
	assert.Equal(t, s.History().Current().Seq, frame.Seq)
	for _, mode := range themeforge.LayoutModes {
		assert.Contains(t, string(frame.Output), `data-layout="`+string(mode)+`"`)
	}
}

func TestConfiguredLayouts(t *testing.T) {
	cfg := testConfig()
	cfg.Preview.Layouts = []string{"blog"}
	s := newTestSession(t, cfg, Options{})

	color := "#000000"
	s.History().Apply(themeforge.Patch{PrimaryColor: &color})
	waitFresh(t, s)

	frame, _ := s.Scheduler().Lagging()
	assert.Contains(t, string(frame.Output), `data-layout="blog"`)
	assert.NotContains(t, string(frame.Output), `data-layout="landing"`)
}

func TestInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Preview.Layouts = []string{"brochure"}
	_, err := New(context.Background(), cfg, Options{})
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Keymap.Undo = []string{"mod+"}
	_, err = New(context.Background(), cfg, Options{})
	var bindingErr *keymap.BindingError
	assert.ErrorAs(t, err, &bindingErr)

	cfg = testConfig()
	cfg.Store.Type = "floppy"
	_, err = New(context.Background(), cfg, Options{})
	assert.ErrorIs(t, err, store.ErrUnsupportedBackend)
}

func TestApplyPreset(t *testing.T) {
	s := newTestSession(t, testConfig(), Options{})

	changed, err := s.ApplyPreset("terminal")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, s.History().Present().DarkMode)
	assert.True(t, s.History().CanUndo())

	_, err = s.ApplyPreset("missing")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestUserPresetsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "presets"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "presets", "brand.md"), []byte(
		"---\ntitle: Brand\ndocument:\n  primaryColor: \"#AA00AA\"\n---\nOur brand.\n"), 0644))

	cfg := testConfig()
	cfg.Presets.Watch = true
	s := newTestSession(t, cfg, Options{BaseDir: dir})

	_, ok := s.Presets().Get("brand")
	require.True(t, ok)
	require.NotNil(t, s.watcher)

	changes, unsubscribe := s.SubscribePresets()
	defer unsubscribe()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "presets", "night.md"), []byte(
		"---\ndocument:\n  darkMode: true\n---\n"), 0644))
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload notification")
	}
	_, ok = s.Presets().Get("night")
	assert.True(t, ok)

	changed, err := s.ApplyPreset("brand")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "#AA00AA", s.History().Present().PrimaryColor)
}

func TestHandleKey(t *testing.T) {
	s := newTestSession(t, testConfig(), Options{})
	unregister := s.Registry().Register("conn-1", s.Keymap())

	color := "#FFFFFF"
	s.History().Apply(themeforge.Patch{PrimaryColor: &color})

	cmd, changed, ok := s.HandleKey("conn-1", keymap.KeyEvent{Key: "z", Ctrl: true})
	assert.True(t, ok)
	assert.True(t, changed)
	assert.Equal(t, keymap.Undo, cmd)
	assert.Equal(t, themeforge.Default(), s.History().Present())

	// Empty past: bound but a no-op.
	cmd, changed, ok = s.HandleKey("conn-1", keymap.KeyEvent{Key: "z", Meta: true})
	assert.True(t, ok)
	assert.False(t, changed)
	assert.Equal(t, keymap.Undo, cmd)

	cmd, changed, ok = s.HandleKey("conn-1", keymap.KeyEvent{Key: "Z", Meta: true, Shift: true})
	assert.True(t, ok)
	assert.True(t, changed)
	assert.Equal(t, keymap.Redo, cmd)
	assert.Equal(t, "#FFFFFF", s.History().Present().PrimaryColor)

	_, _, ok = s.HandleKey("conn-1", keymap.KeyEvent{Key: "x", Ctrl: true})
	assert.False(t, ok)

	unregister()
	_, _, ok = s.HandleKey("conn-1", keymap.KeyEvent{Key: "z", Ctrl: true})
	assert.False(t, ok, "bindings are removed with the connection")
}

func TestReset(t *testing.T) {
	s := newTestSession(t, testConfig(), Options{})

	size := 20
	s.History().Apply(themeforge.Patch{BaseFontSize: &size})
	s.History().Undo()
	s.History().Redo()

	assert.True(t, s.Reset())
	st := s.Status()
	assert.Equal(t, themeforge.Default(), st.Document)
	assert.False(t, st.CanUndo)
	assert.False(t, st.CanRedo)
}

func TestExport(t *testing.T) {
	s := newTestSession(t, testConfig(), Options{})

	res, err := s.Export(context.Background(), export.FormatCSS)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(res.Data), "--primary:#3B82F6"))
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := New(context.Background(), testConfig(), Options{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	// Subscriptions made after Close end immediately.
	ch, _ := s.History().Subscribe()
	_, open := <-ch
	assert.False(t, open)

	presetsCh, _ := s.SubscribePresets()
	_, open = <-presetsCh
	assert.False(t, open)
}
