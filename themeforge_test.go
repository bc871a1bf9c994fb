package themeforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentEqual(t *testing.T) {
	a := Default()
	b := Default()
	assert.True(t, a.Equal(b))

	b.GridGap = 32
	assert.False(t, a.Equal(b))
}

func TestRadiusValue(t *testing.T) {
	tests := []struct {
		radius Radius
		want   string
	}{
		{RadiusNone, "0px"},
		{RadiusSm, "4px"},
		{RadiusMd, "8px"},
		{RadiusLg, "16px"},
		{RadiusFull, "9999px"},
		{Radius("huge"), "8px"},
	}

	for _, tt := range tests {
		t.Run(string(tt.radius), func(t *testing.T) {
			if got := RadiusValue(tt.radius); got != tt.want {
				t.Errorf("RadiusValue(%q) = %q, want %q", tt.radius, got, tt.want)
			}
		})
	}
}

func TestFontStackFallsBackToSans(t *testing.T) {
	assert.Equal(t, FontStack(FontSans), FontStack(FontFamily("Comic Sans")))
	assert.Contains(t, FontStack(FontPlayfair), "Playfair Display")
	assert.Contains(t, FontStack(FontMono), "monospace")
	for _, f := range FontFamilies {
		assert.NotEmpty(t, FontStack(f), f)
	}
}

func TestDisplayColor(t *testing.T) {
	doc := Default()
	doc.PrimaryColor = "#ab12cd"
	assert.Equal(t, "#AB12CD", DisplayColor(doc.PrimaryColor))
	assert.Equal(t, "#ab12cd", doc.PrimaryColor)
}

func TestLayoutModeIsValid(t *testing.T) {
	for _, m := range LayoutModes {
		assert.True(t, m.IsValid(), m)
	}
	assert.False(t, LayoutMode("kanban").IsValid())
}

func TestPatchApply(t *testing.T) {
	color := "#000000"
	cols := 1
	p := Patch{PrimaryColor: &color, GridColumns: &cols}

	base := Default()
	got := p.Apply(base)

	assert.Equal(t, "#000000", got.PrimaryColor)
	assert.Equal(t, 1, got.GridColumns)
	assert.Equal(t, base.SecondaryColor, got.SecondaryColor)
	assert.Equal(t, Default(), base, "Apply must not touch its input")
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	dark := true
	assert.False(t, Patch{DarkMode: &dark}.IsEmpty())
}

func TestParsePatch(t *testing.T) {
	p, err := ParsePatch([]byte(`{"layoutMode":"blog","gridGap":40,"unknown":1}`))
	require.NoError(t, err)
	require.NotNil(t, p.LayoutMode)
	require.NotNil(t, p.GridGap)
	assert.Equal(t, LayoutBlog, *p.LayoutMode)
	assert.Equal(t, 40, *p.GridGap)
	assert.Nil(t, p.PrimaryColor)

	_, err = ParsePatch([]byte(`{"gridGap":"wide"}`))
	assert.Error(t, err)
}

func TestPatchFromMap(t *testing.T) {
	p, err := PatchFromMap(map[string]interface{}{
		"headingText":  "Hello",
		"baseFontSize": float64(18),
	})
	require.NoError(t, err)

	got := p.Apply(Default())
	assert.Equal(t, "Hello", got.HeadingText)
	assert.Equal(t, 18, got.BaseFontSize)
}

func TestDiff(t *testing.T) {
	from := Default()
	to := from
	to.BorderRadius = RadiusFull
	to.BodyText = "changed"

	p := Diff(from, to)
	assert.Equal(t, to, p.Apply(from))
	assert.Nil(t, p.PrimaryColor)
	assert.True(t, Diff(from, from).IsEmpty())
}

func TestPatchTextFields(t *testing.T) {
	heading := "<b>hi</b>"
	body := "body"
	p := Patch{HeadingText: &heading, BodyText: &body}

	fields := p.TextFields()
	require.Len(t, fields, 2)
	*fields[0] = "hi"
	assert.Equal(t, "hi", *p.HeadingText)
}
