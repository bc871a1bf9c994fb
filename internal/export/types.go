// Package export renders a design document into shareable artifacts:
// CSS custom properties, JSON design tokens, a Markdown style guide, a PDF
// style sheet and a printed PDF of the live preview.
//
// Every exporter takes a Document value and never mutates it.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatCSS      Format = "css"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatPagePDF  Format = "page.pdf"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSS, FormatJSON, FormatMarkdown, FormatHTML, FormatPDF, FormatPagePDF}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// Options configures an Exporter.
type Options struct {
	Title      string        // Used in filenames and document metadata
	Minify     bool          // Minify CSS and HTML output
	ChromePath string        // Browser for page PDFs; looked up on PATH when empty
	Timeout    time.Duration // Page PDF timeout
	CacheTTL   time.Duration // Reuse identical exports for this long; 0 disables
}

var (
	// ErrUnknownFormat indicates an export format that is not supported.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// sanitizeFilename creates a safe filename from a title
func sanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		case r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	result := b.String()
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "theme"
	}
	return result
}
