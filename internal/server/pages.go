package server

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/assets"
	"github.com/livetemplate/themeforge/internal/export"
	"github.com/livetemplate/themeforge/internal/preview"
)

var radiusLabels = map[themeforge.Radius]string{
	themeforge.RadiusNone: "None",
	themeforge.RadiusSm:   "Small",
	themeforge.RadiusMd:   "Medium",
	themeforge.RadiusLg:   "Large",
	themeforge.RadiusFull: "Full",
}

var exportLabels = map[export.Format]string{
	export.FormatCSS:      "CSS variables",
	export.FormatJSON:     "JSON tokens",
	export.FormatMarkdown: "Style guide (Markdown)",
	export.FormatHTML:     "HTML page",
	export.FormatPDF:      "Style sheet (PDF)",
	export.FormatPagePDF:  "Page (PDF)",
}

// serveEditor renders the editor with the authoritative document.
func (s *Server) serveEditor(w http.ResponseWriter, r *http.Request) {
	doc := s.session.History().Present()

	var previewBuf bytes.Buffer
	if err := preview.RenderModes(&previewBuf, doc, s.session.Layouts()); err != nil {
		log.Printf("[Server] Failed to render preview: %v", err)
		http.Error(w, "failed to render preview", http.StatusInternalServerError)
		return
	}

	data := assets.EditorData{
		Title:    s.config.Title,
		Styles:   preview.Styles(),
		Preview:  template.HTML(previewBuf.String()),
		Document: doc,
	}
	for _, f := range themeforge.FontFamilies {
		data.Fonts = append(data.Fonts, assets.Option{Value: string(f), Label: titleCase(string(f))})
	}
	for _, rad := range themeforge.Radii {
		data.Radii = append(data.Radii, assets.Option{Value: string(rad), Label: radiusLabels[rad]})
	}
	for _, m := range themeforge.LayoutModes {
		data.Layouts = append(data.Layouts, assets.Option{Value: string(m), Label: titleCase(string(m))})
	}
	for _, p := range s.session.Presets().List() {
		data.Presets = append(data.Presets, assets.Option{Value: p.Name, Label: p.Title})
	}
	for _, f := range export.Formats {
		data.Exports = append(data.Exports, assets.Option{Value: string(f), Label: exportLabels[f]})
	}

	var buf bytes.Buffer
	if err := assets.Editor().Execute(&buf, data); err != nil {
		log.Printf("[Server] Failed to render editor: %v", err)
		http.Error(w, "failed to render editor", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// servePreview renders one layout of the lagging document, or of the
// authoritative one with ?fresh=1. Unknown layouts render as landing.
func (s *Server) servePreview(w http.ResponseWriter, r *http.Request) {
	mode := themeforge.LayoutMode(chi.URLParam(r, "mode"))

	doc := s.session.History().Present()
	if r.URL.Query().Get("fresh") != "1" {
		if frame, ok := s.session.Scheduler().Lagging(); ok {
			doc = frame.Document
		}
	}

	html, err := preview.Fragment(doc, mode)
	if err != nil {
		log.Printf("[Server] Failed to render preview %s: %v", mode, err)
		http.Error(w, "failed to render preview", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if s.session.Scheduler().IsStale() {
		w.Header().Set("X-Preview-Stale", "1")
	}
	w.Write(html)
}

func (s *Server) serveExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	res, err := s.session.Export(r.Context(), format)
	switch {
	case err == nil:
	case errors.Is(err, export.ErrPDFDependencyMissing):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	default:
		log.Printf("[Server] Export %s failed: %v", format, err)
		writeJSONError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", res.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Write(res.Data)
}
