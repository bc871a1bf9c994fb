package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/preview"
)

var guideTemplate = template.Must(template.New("guide").Parse(`<h1>{{.Title}}</h1>
<h2>Tokens</h2>
<ul>
<li><strong>Primary color</strong>: <code>{{.Tokens.Color.Primary}}</code></li>
<li><strong>Secondary color</strong>: <code>{{.Tokens.Color.Secondary}}</code></li>
<li><strong>Font</strong>: {{.Tokens.Typography.Family}} at {{.Tokens.Typography.BaseSize}}</li>
<li><strong>Border radius</strong>: {{.Tokens.Radius.Name}} ({{.Tokens.Radius.Value}})</li>
<li><strong>Grid</strong>: {{.Tokens.Layout.GridColumns}} columns, {{.Tokens.Layout.GridGap}} gap</li>
<li><strong>Layout</strong>: {{.Tokens.Layout.Mode}}</li>
<li><strong>Dark mode</strong>: {{if .Tokens.DarkMode}}on{{else}}off{{end}}</li>
</ul>
<h2>Preview</h2>
{{.Preview}}`))

// styleGuideHTML renders the tokens and the live layout as one HTML page body.
func (e *Exporter) styleGuideHTML(doc themeforge.Document) ([]byte, error) {
	fragment, err := preview.Fragment(doc, doc.LayoutMode)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = guideTemplate.Execute(&buf, struct {
		Title   string
		Tokens  TokenSet
		Preview template.HTML
	}{e.opts.Title, BuildTokens(doc), template.HTML(fragment)})
	if err != nil {
		return nil, fmt.Errorf("render style guide: %w", err)
	}
	return buf.Bytes(), nil
}

// Markdown returns a Markdown style guide of doc.
func (e *Exporter) Markdown(doc themeforge.Document) ([]byte, error) {
	page, err := e.styleGuideHTML(doc)
	if err != nil {
		return nil, err
	}
	md, err := e.markdown.ConvertString(string(page))
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}
	return []byte(md + "\n"), nil
}

// HTML returns a standalone HTML page of the document's layout.
func (e *Exporter) HTML(doc themeforge.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := preview.RenderPage(&buf, doc, doc.LayoutMode, e.opts.Title); err != nil {
		return nil, err
	}
	return e.minify("text/html", buf.Bytes())
}
