package assistant

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/history"
	"github.com/livetemplate/themeforge/internal/presets"
)

var testImpl = &mcp.Implementation{Name: "themeforge-test", Version: "0.1.0"}

func newSession(t *testing.T, engine *history.Engine, library Library) *mcp.ClientSession {
	t.Helper()
	srv := New(engine, library, Options{SanitizeText: true}).NewServer("test")

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		session.Close()
		cancel()
	})
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent")
	return tc.Text, result.IsError
}

func callDocument(t *testing.T, session *mcp.ClientSession, name string, args any) documentResponse {
	t.Helper()
	text, isErr := callTool(t, session, name, args)
	require.False(t, isErr, "tool error: %s", text)
	var resp documentResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	return resp
}

func testLibrary(t *testing.T) *presets.Library {
	t.Helper()
	lib, err := presets.NewLibrary("", false)
	require.NoError(t, err)
	return lib
}

func TestListTools(t *testing.T) {
	session := newSession(t, history.New(themeforge.Default()), testLibrary(t))

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"get_document", "apply_patch", "undo", "redo", "list_presets", "apply_preset"}, names)
}

func TestPresetToolsNeedLibrary(t *testing.T) {
	session := newSession(t, history.New(themeforge.Default()), nil)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Tools, 4)
}

func TestGetDocument(t *testing.T) {
	session := newSession(t, history.New(themeforge.Default()), nil)

	resp := callDocument(t, session, "get_document", map[string]any{})
	assert.Equal(t, themeforge.Default(), resp.Document)
	assert.False(t, resp.CanUndo)
	assert.False(t, resp.CanRedo)
}

func TestApplyPatchUndoRedo(t *testing.T) {
	engine := history.New(themeforge.Default())
	session := newSession(t, engine, nil)

	resp := callDocument(t, session, "apply_patch", map[string]any{
		"primaryColor": "#FF0000",
		"gridColumns":  2,
	})
	assert.True(t, resp.Changed)
	assert.True(t, resp.CanUndo)
	assert.Equal(t, "#FF0000", resp.Document.PrimaryColor)
	assert.Equal(t, 2, resp.Document.GridColumns)
	assert.Equal(t, resp.Document, engine.Present())

	resp = callDocument(t, session, "undo", map[string]any{})
	assert.True(t, resp.Changed)
	assert.Equal(t, themeforge.Default(), resp.Document)
	assert.True(t, resp.CanRedo)

	resp = callDocument(t, session, "redo", map[string]any{})
	assert.True(t, resp.Changed)
	assert.Equal(t, "#FF0000", resp.Document.PrimaryColor)

	resp = callDocument(t, session, "redo", map[string]any{})
	assert.False(t, resp.Changed, "redo with empty future is a no-op")
}

func TestApplyPatchSameValueIsNoop(t *testing.T) {
	engine := history.New(themeforge.Default())
	session := newSession(t, engine, nil)

	resp := callDocument(t, session, "apply_patch", map[string]any{"primaryColor": "#3B82F6"})
	assert.False(t, resp.Changed)
	assert.False(t, resp.CanUndo)
}

func TestApplyPatchSanitizesText(t *testing.T) {
	engine := history.New(themeforge.Default())
	session := newSession(t, engine, nil)

	resp := callDocument(t, session, "apply_patch", map[string]any{
		"headingText": `Hello <script>alert(1)</script>**bold** & <b>co</b>`,
	})
	assert.Equal(t, "Hello **bold** & co", resp.Document.HeadingText)
}

func TestApplyPatchErrors(t *testing.T) {
	engine := history.New(themeforge.Default())
	session := newSession(t, engine, nil)

	_, isErr := callTool(t, session, "apply_patch", map[string]any{})
	assert.True(t, isErr, "empty patch")

	_, isErr = callTool(t, session, "apply_patch", map[string]any{"unknown": 1})
	assert.True(t, isErr, "patch with only unknown keys")

	_, isErr = callTool(t, session, "apply_patch", map[string]any{"gridColumns": "three"})
	assert.True(t, isErr, "wrong type")

	assert.False(t, engine.CanUndo())
}

func TestPresets(t *testing.T) {
	engine := history.New(themeforge.Default())
	session := newSession(t, engine, testLibrary(t))

	text, isErr := callTool(t, session, "list_presets", map[string]any{})
	require.False(t, isErr)
	var list struct {
		Presets []presetSummary `json:"presets"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &list))
	require.NotEmpty(t, list.Presets)

	var names []string
	for _, p := range list.Presets {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "ocean")

	resp := callDocument(t, session, "apply_preset", map[string]any{"name": "ocean"})
	assert.True(t, resp.Changed)
	assert.Equal(t, "#0EA5E9", resp.Document.PrimaryColor)
	assert.Equal(t, themeforge.RadiusLg, resp.Document.BorderRadius)
	assert.Equal(t, themeforge.Default().HeadingText, resp.Document.HeadingText, "fields the preset omits are kept")

	resp = callDocument(t, session, "undo", map[string]any{})
	assert.Equal(t, themeforge.Default(), resp.Document)

	_, isErr = callTool(t, session, "apply_preset", map[string]any{"name": "nope"})
	assert.True(t, isErr)
}

func TestSanitizeDisabled(t *testing.T) {
	a := New(history.New(themeforge.Default()), nil, Options{})
	text := "<b>raw</b>"
	p := themeforge.Patch{HeadingText: &text}
	a.sanitize(&p)
	assert.Equal(t, "<b>raw</b>", *p.HeadingText)
}
