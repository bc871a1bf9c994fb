package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/cespare/xxhash/v2"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/cache"
)

// maxCachedExports bounds the export cache.
const maxCachedExports = 64

// Exporter produces every export format.
type Exporter struct {
	opts     Options
	minifier *minify.M
	markdown *converter.Converter
	cache    *cache.MemoryCache[*Result]
}

// New creates an exporter.
func New(opts Options) *Exporter {
	if opts.Title == "" {
		opts.Title = "themeforge"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)

	e := &Exporter{
		opts:     opts,
		minifier: m,
		markdown: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
	if opts.CacheTTL > 0 {
		e.cache = cache.NewMemoryCache[*Result](maxCachedExports)
	}
	return e
}

// Close releases the export cache.
func (e *Exporter) Close() {
	if e.cache != nil {
		e.cache.Stop()
	}
}

// cacheKey identifies an export by format and document content.
func cacheKey(doc themeforge.Document, format Format) (string, bool) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", false
	}
	return string(format) + ":" + strconv.FormatUint(xxhash.Sum64(data), 16), true
}

// Export generates doc in the requested format. Identical requests within
// the cache TTL return the earlier result.
func (e *Exporter) Export(ctx context.Context, doc themeforge.Document, format Format) (*Result, error) {
	if e.cache == nil {
		return e.render(ctx, doc, format)
	}
	key, ok := cacheKey(doc, format)
	if !ok {
		return e.render(ctx, doc, format)
	}
	if res, found := e.cache.Get(key); found {
		return res, nil
	}
	res, err := e.render(ctx, doc, format)
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, res, e.opts.CacheTTL)
	return res, nil
}

func (e *Exporter) render(ctx context.Context, doc themeforge.Document, format Format) (*Result, error) {
	name := sanitizeFilename(e.opts.Title)

	var (
		data []byte
		mime string
		ext  = string(format)
		err  error
	)
	switch format {
	case FormatCSS:
		data, err = e.CSS(doc)
		mime = "text/css; charset=utf-8"
	case FormatJSON:
		data, err = Tokens(doc)
		mime = "application/json"
	case FormatMarkdown:
		data, err = e.Markdown(doc)
		mime = "text/markdown; charset=utf-8"
	case FormatHTML:
		data, err = e.HTML(doc)
		mime = "text/html; charset=utf-8"
	case FormatPDF:
		data, err = e.StyleSheetPDF(doc)
		mime = "application/pdf"
	case FormatPagePDF:
		data, err = e.PagePDF(ctx, doc)
		mime = "application/pdf"
		name += "-page"
		ext = string(FormatPDF)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	return &Result{
		Data:     data,
		Filename: name + "." + ext,
		MimeType: mime,
	}, nil
}

func (e *Exporter) minify(mediatype string, data []byte) ([]byte, error) {
	if !e.opts.Minify {
		return data, nil
	}
	return e.minifier.Bytes(mediatype, data)
}
