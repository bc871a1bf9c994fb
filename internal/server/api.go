package server

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/livetemplate/themeforge"
	"github.com/livetemplate/themeforge/internal/history"
	"github.com/livetemplate/themeforge/internal/presets"
	"github.com/livetemplate/themeforge/internal/session"
)

// maxBodySize bounds document request bodies.
const maxBodySize = 1 << 20

// documentResponse is returned by every document endpoint.
type documentResponse struct {
	session.Status
	Changed bool `json:"changed"`
}

func (s *Server) respond(w http.ResponseWriter, changed bool) {
	writeJSON(w, http.StatusOK, documentResponse{Status: s.session.Status(), Changed: changed})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	return body, true
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	s.respond(w, false)
}

// putDocument replaces the document. Missing keys take their default value,
// like a persisted document would.
func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, err := themeforge.MergeJSON(body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respond(w, s.session.History().Set(history.Replace(doc)))
}

// patchDocument applies a partial document.
func (s *Server) patchDocument(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	patch, err := themeforge.ParsePatch(body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if patch.IsEmpty() {
		writeJSONError(w, http.StatusBadRequest, "patch sets no document fields")
		return
	}
	s.respond(w, s.session.History().Apply(patch))
}

func (s *Server) postUndo(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.session.History().Undo())
}

func (s *Server) postRedo(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.session.History().Redo())
}

func (s *Server) postReset(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.session.Reset())
}

func (s *Server) getPresets(w http.ResponseWriter, r *http.Request) {
	list := s.session.Presets().List()
	if list == nil {
		list = []presets.Preset{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"presets": list})
}

func (s *Server) applyPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	changed, err := s.session.ApplyPreset(name)
	if err != nil {
		if errors.Is(err, session.ErrUnknownPreset) {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("[API] Failed to apply preset %s: %v", name, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to apply preset")
		return
	}
	s.respond(w, changed)
}

func (s *Server) getKeymap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"bindings": s.session.Keymap().Describe()})
}
