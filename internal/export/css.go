package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/preview"
)

// CSS returns the document's custom properties on :root, plus base rules
// that consume them.
func (e *Exporter) CSS(doc themeforge.Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(":root {\n")
	for _, v := range preview.Build(doc, doc.LayoutMode).Vars {
		fmt.Fprintf(&buf, "  %s: %s;\n", v.Name, v.Value)
	}
	buf.WriteString("}\n\n")
	buf.WriteString("body {\n  font-family: var(--font);\n  font-size: var(--base-size);\n}\n\n")
	buf.WriteString("a, .accent {\n  color: var(--primary);\n}\n\n")
	buf.WriteString(".grid {\n  display: grid;\n  grid-template-columns: repeat(var(--grid-columns), minmax(0, 1fr));\n  gap: var(--grid-gap);\n}\n\n")
	buf.WriteString(".card, .button {\n  border-radius: var(--radius);\n}\n")

	return e.minify("text/css", buf.Bytes())
}

// TokenSet is the JSON design token export.
type TokenSet struct {
	Color struct {
		Primary   string `json:"primary"`
		Secondary string `json:"secondary"`
	} `json:"color"`
	Radius struct {
		Name  themeforge.Radius `json:"name"`
		Value string            `json:"value"`
	} `json:"radius"`
	Typography struct {
		Family   themeforge.FontFamily `json:"family"`
		Stack    string                `json:"stack"`
		BaseSize string                `json:"baseSize"`
	} `json:"typography"`
	Layout struct {
		Mode        themeforge.LayoutMode `json:"mode"`
		GridColumns int                   `json:"gridColumns"`
		GridGap     string                `json:"gridGap"`
	} `json:"layout"`
	DarkMode bool                `json:"darkMode"`
	Document themeforge.Document `json:"document"`
}

// BuildTokens resolves doc into design tokens.
func BuildTokens(doc themeforge.Document) TokenSet {
	var t TokenSet
	t.Color.Primary = themeforge.DisplayColor(doc.PrimaryColor)
	t.Color.Secondary = themeforge.DisplayColor(doc.SecondaryColor)
	t.Radius.Name = doc.BorderRadius
	t.Radius.Value = themeforge.RadiusValue(doc.BorderRadius)
	t.Typography.Family = doc.FontFamily
	t.Typography.Stack = themeforge.FontStack(doc.FontFamily)
	t.Typography.BaseSize = strconv.Itoa(doc.BaseFontSize) + "px"
	t.Layout.Mode = doc.LayoutMode
	t.Layout.GridColumns = doc.GridColumns
	t.Layout.GridGap = strconv.Itoa(doc.GridGap) + "px"
	t.DarkMode = doc.DarkMode
	t.Document = doc
	return t
}

// Tokens returns the design tokens as indented JSON.
func Tokens(doc themeforge.Document) ([]byte, error) {
	data, err := json.MarshalIndent(BuildTokens(doc), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
