// Package richtext parses the inline emphasis markup allowed in free-text
// document fields: **bold** and *italic*.
package richtext

import (
	"regexp"
	"strings"
)

// Style tells a renderer how to present a segment.
type Style int

const (
	// Plain text is rendered as-is.
	Plain Style = iota
	// Bold text is rendered strong, in the document's primary color.
	Bold
	// Italic text is rendered emphasized, in the document's secondary color.
	Italic
)

// String returns the style name used in templates and JSON.
func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	default:
		return "plain"
	}
}

// Segment is a run of text with a single style.
type Segment struct {
	Text  string `json:"text"`
	Style Style  `json:"style"`
}

// IsPlain reports whether the segment carries no emphasis.
func (s Segment) IsPlain() bool { return s.Style == Plain }

// IsBold reports whether the segment is bold.
func (s Segment) IsBold() bool { return s.Style == Bold }

// IsItalic reports whether the segment is italic.
func (s Segment) IsItalic() bool { return s.Style == Italic }

// emphasisPattern matches a bold run or an italic run, shortest first.
// The bold alternative is tried first so "**" is never read as two empty
// italic delimiters.
var emphasisPattern = regexp.MustCompile(`\*\*(.+?)\*\*|\*(.+?)\*`)

// Parse splits text into plain and emphasized segments.
//
// Runs do not nest, and a delimiter without a partner is kept as a literal
// character. Adjacent plain runs are merged. Empty input yields nil.
func Parse(text string) []Segment {
	if text == "" {
		return nil
	}

	var segments []Segment
	appendPlain := func(s string) {
		if s == "" {
			return
		}
		if n := len(segments); n > 0 && segments[n-1].Style == Plain {
			segments[n-1].Text += s
			return
		}
		segments = append(segments, Segment{Text: s, Style: Plain})
	}

	last := 0
	for _, m := range emphasisPattern.FindAllStringSubmatchIndex(text, -1) {
		appendPlain(text[last:m[0]])
		switch {
		case m[2] >= 0:
			segments = append(segments, Segment{Text: text[m[2]:m[3]], Style: Bold})
		case m[4] >= 0:
			segments = append(segments, Segment{Text: text[m[4]:m[5]], Style: Italic})
		}
		last = m[1]
	}
	appendPlain(text[last:])

	return segments
}

// PlainText returns text with all emphasis markup removed.
func PlainText(text string) string {
	var b strings.Builder
	for _, seg := range Parse(text) {
		b.WriteString(seg.Text)
	}
	return b.String()
}
