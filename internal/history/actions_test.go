package history

import (
	"testing"

	"github.com/livetemplate/themeforge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAction(t *testing.T) {
	e := New(themeforge.Default())

	changed, err := e.HandleAction("patch", map[string]interface{}{"gridColumns": 2.0, "darkMode": true})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, e.Present().GridColumns)

	changed, err = e.HandleAction("set", map[string]interface{}{"primaryColor": "#000000"})
	require.NoError(t, err)
	assert.True(t, changed)
	doc := e.Present()
	assert.Equal(t, "#000000", doc.PrimaryColor)
	assert.Equal(t, 3, doc.GridColumns, "set fills missing keys from defaults")
	assert.False(t, doc.DarkMode)

	changed, err = e.HandleAction("undo", nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, e.Present().GridColumns)

	changed, err = e.HandleAction("redo", nil)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = e.HandleAction("reset", nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, themeforge.Default(), e.Present())
	assert.False(t, e.CanUndo())
}

func TestHandleActionNoOps(t *testing.T) {
	e := New(themeforge.Default())

	for _, action := range []string{"undo", "redo", "reset"} {
		changed, err := e.HandleAction(action, nil)
		require.NoError(t, err)
		assert.False(t, changed, action)
	}

	changed, err := e.HandleAction("patch", map[string]interface{}{"unknownKey": 1})
	require.NoError(t, err)
	assert.False(t, changed, "unknown keys are ignored")
}

func TestHandleActionErrors(t *testing.T) {
	e := New(themeforge.Default())

	_, err := e.HandleAction("explode", nil)
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = e.HandleAction("patch", map[string]interface{}{"gridColumns": "three"})
	assert.Error(t, err, "wrong type in a patch is rejected")

	_, err = e.HandleAction("set", nil)
	assert.Error(t, err)

	assert.Equal(t, themeforge.Default(), e.Present(), "failed actions leave the document untouched")
	assert.False(t, e.CanUndo())
}
