package preview

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/livetemplate/themeforge"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Render writes the HTML fragment of doc in the given layout.
func Render(w io.Writer, doc themeforge.Document, mode themeforge.LayoutMode) error {
	v := Build(doc, mode)
	if err := templates.ExecuteTemplate(w, string(v.Mode), v); err != nil {
		return fmt.Errorf("render %s: %w", v.Mode, err)
	}
	return nil
}

// Fragment renders doc in the given layout to a byte slice.
func Fragment(doc themeforge.Document, mode themeforge.LayoutMode) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, doc, mode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderModes writes one fragment per mode, in order.
func RenderModes(w io.Writer, doc themeforge.Document, modes []themeforge.LayoutMode) error {
	for _, mode := range modes {
		if err := Render(w, doc, mode); err != nil {
			return err
		}
	}
	return nil
}

// RenderAll writes every layout, in display order.
func RenderAll(w io.Writer, doc themeforge.Document) error {
	return RenderModes(w, doc, themeforge.LayoutModes)
}

// Styles returns the shared preview stylesheet as a <style> element.
func Styles() template.HTML {
	var buf bytes.Buffer
	// The styles template takes no data and cannot fail once parsed.
	_ = templates.ExecuteTemplate(&buf, "styles", nil)
	return template.HTML(buf.String())
}

// RenderPage writes a standalone HTML document containing the given layout,
// suitable for printing.
func RenderPage(w io.Writer, doc themeforge.Document, mode themeforge.LayoutMode, title string) error {
	body, err := Fragment(doc, mode)
	if err != nil {
		return err
	}
	data := struct {
		Title string
		Body  template.HTML
	}{title, template.HTML(body)}

	if err := templates.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
