// Package assets embeds the editor page and its client JavaScript and CSS
package assets

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/livetemplate/themeforge"
)

//go:embed client/*
var clientFS embed.FS

var editorTemplate = template.Must(template.ParseFS(clientFS, "client/editor.html"))

// ClientFS returns the embedded client files
func ClientFS() fs.FS {
	sub, err := fs.Sub(clientFS, "client")
	if err != nil {
		panic(err)
	}
	return sub
}

// GetClientJS returns the editor JavaScript
func GetClientJS() ([]byte, error) {
	return clientFS.ReadFile("client/themeforge.js")
}

// GetClientCSS returns the editor CSS
func GetClientCSS() ([]byte, error) {
	return clientFS.ReadFile("client/themeforge.css")
}

// Editor returns the editor page template. It expects EditorData.
func Editor() *template.Template {
	return editorTemplate
}

// Option is one choice of a select control.
type Option struct {
	Value string
	Label string
}

// EditorData is the data the editor page renders with.
type EditorData struct {
	Title    string
	Styles   template.HTML // Shared preview stylesheet
	Preview  template.HTML // Initial multi-layout preview
	Fonts    []Option
	Radii    []Option
	Layouts  []Option
	Presets  []Option
	Exports  []Option
	Document themeforge.Document
}
