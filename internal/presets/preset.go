// Package presets loads the library of named design presets.
//
// A preset is a markdown file whose YAML frontmatter holds a partial document
// and whose body describes the preset. Built-in presets ship with the binary;
// files in the configured directory add to them or replace them by name.
package presets

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/livetemplate/themeforge"
)

// Preset is a named partial document.
type Preset struct {
	Name        string           `json:"name"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	HTML        template.HTML    `json:"html"`
	Patch       themeforge.Patch `json:"document"`
	Builtin     bool             `json:"builtin"`
	File        string           `json:"-"`
}

// Apply returns base with the preset's fields applied.
func (p Preset) Apply(base themeforge.Document) themeforge.Document {
	return p.Patch.Apply(base)
}

type frontmatter struct {
	Title    string           `yaml:"title"`
	Document themeforge.Patch `yaml:"document"`
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// yamlLinePattern pulls the line number out of yaml.v3 error text.
var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// Parse reads a preset from file content. The name is the file's base name
// without extension.
func Parse(file string, content []byte) (Preset, error) {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	if !bytes.HasPrefix(content, []byte("---\n")) {
		return Preset{}, themeforge.NewParseError(file, 1, "missing frontmatter").
			WithHint("Start the file with a --- line, then title: and document: keys, then another ---")
	}

	// Find the closing ---
	endIdx := bytes.Index(content[4:], []byte("\n---\n"))
	if endIdx == -1 {
		if bytes.HasSuffix(content, []byte("\n---")) {
			endIdx = len(content) - 4 - 4
		} else {
			return Preset{}, themeforge.NewParseError(file, 1, "unclosed frontmatter").
				WithHint("Add a closing --- line after the document block")
		}
	}

	yamlContent := content[4 : 4+endIdx]
	var body []byte
	if start := 4 + endIdx + 5; start < len(content) {
		body = content[start:]
	}

	var fm frontmatter
	if err := yaml.Unmarshal(yamlContent, &fm); err != nil {
		return Preset{}, themeforge.NewParseError(file, yamlErrorLine(err), "invalid frontmatter").WithCause(err)
	}
	if fm.Document.IsEmpty() {
		return Preset{}, themeforge.NewParseError(file, 1, "preset sets no document fields").
			WithHint("Add a document: block with at least one field, e.g. primaryColor")
	}

	description := strings.TrimSpace(string(body))
	var html bytes.Buffer
	if err := md.Convert([]byte(description), &html); err != nil {
		return Preset{}, themeforge.NewParseError(file, 0, "invalid description").WithCause(err)
	}

	title := fm.Title
	if title == "" {
		title = name
	}

	return Preset{
		Name:        name,
		Title:       title,
		Description: description,
		HTML:        template.HTML(html.String()),
		Patch:       fm.Document,
		File:        file,
	}, nil
}

// yamlErrorLine maps a yaml error inside the frontmatter to a file line.
// The frontmatter starts on line 2, after the opening ---.
func yamlErrorLine(err error) int {
	m := yamlLinePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return n + 1
}

func (p Preset) String() string {
	return fmt.Sprintf("%s (%s)", p.Title, p.Name)
}
