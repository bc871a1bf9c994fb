// Package server serves the editor: the HTTP API, the live preview websocket,
// exports and the assistant endpoint, all backed by one session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/livetemplate/themeforge/internal/assets"
	"github.com/livetemplate/themeforge/internal/assistant"
	"github.com/livetemplate/themeforge/internal/config"
	"github.com/livetemplate/themeforge/internal/session"
)

// Server is the themeforge HTTP server.
type Server struct {
	session *session.Session
	config  *config.Config
	version string
	router  chi.Router

	upgrader *websocket.Upgrader

	connections map[*wsClient]bool // Track connected WebSocket clients
	connMu      sync.RWMutex

	cancel      context.CancelFunc
	rateDone    <-chan struct{}
	presetsDone chan struct{}
	closeOnce   sync.Once
}

// New creates a server for sess.
func New(sess *session.Session, version string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		session:     sess,
		config:      sess.Config(),
		version:     version,
		connections: make(map[*wsClient]bool),
		cancel:      cancel,
		presetsDone: make(chan struct{}),
	}
	s.router = s.routes(ctx)
	go s.watchPresets(ctx)
	return s
}

func (s *Server) routes(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeadersMiddleware())
	if s.config.Server.Debug {
		r.Use(middleware.Logger)
	}

	api := s.config.API
	rateLimit, done := RateLimitMiddleware(ctx, api.GetRateLimitRPS(), api.GetRateLimitBurst(), api.GetMaxTrackedIPs())
	s.rateDone = done

	var authCfg *config.AuthConfig
	if api != nil {
		authCfg = api.Auth
	}

	// Long-lived connections are not compressed. The socket carries the same
	// intents as the document API, so it needs the key for every handshake.
	s.upgrader = newUpgrader(api.GetCORSOrigins())
	r.With(AuthMiddleware(authCfg, true)).Get("/ws", s.serveWebSocket)
	if s.config.Assistant.Enabled {
		mcp := assistant.New(s.session.History(), s.session.Presets(), assistant.Options{
			SanitizeText: s.config.Assistant.ShouldSanitizeText(),
			Debug:        s.config.Server.Debug,
		}).Handler(s.version)
		r.With(AuthMiddleware(authCfg, true)).Handle(s.config.Assistant.GetPath(), mcp)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))

		r.Get("/", s.serveEditor)
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assets.ClientFS()))))
		r.Get("/preview/{mode}", s.servePreview)
		r.Get("/export/{format}", s.serveExport)

		r.Route("/api", func(r chi.Router) {
			r.Use(CORSMiddleware(api.GetCORSOrigins(), authCfg.GetHeaderName()))
			r.Use(rateLimit)
			r.Use(AuthMiddleware(authCfg, false))

			r.Get("/document", s.getDocument)
			r.Put("/document", s.putDocument)
			r.Patch("/document", s.patchDocument)
			r.Post("/document", s.patchDocument)
			r.Post("/undo", s.postUndo)
			r.Post("/redo", s.postRedo)
			r.Post("/reset", s.postReset)
			r.Get("/presets", s.getPresets)
			r.Post("/presets/{name}/apply", s.applyPreset)
			r.Get("/keymap", s.getKeymap)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeConnections()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Close stops the server's background tasks and closes every websocket.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.rateDone
		<-s.presetsDone
		s.closeConnections()
	})
}

// RegisterConnection adds a WebSocket connection to the tracked connections.
func (s *Server) RegisterConnection(c *wsClient) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.connections[c] = true
	if s.config.Server.Debug {
		log.Printf("[Server] WebSocket connection registered: %d active connections", len(s.connections))
	}
}

// UnregisterConnection removes a WebSocket connection from tracked connections.
func (s *Server) UnregisterConnection(c *wsClient) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.connections, c)
	if s.config.Server.Debug {
		log.Printf("[Server] WebSocket connection unregistered: %d active connections", len(s.connections))
	}
}

// ConnectionCount returns the number of connected websocket clients.
func (s *Server) ConnectionCount() int {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return len(s.connections)
}

// Broadcast sends a message to all connected WebSocket clients.
func (s *Server) Broadcast(action string, data interface{}) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()

	for c := range s.connections {
		if err := c.send(action, data); err != nil && s.config.Server.Debug {
			log.Printf("[Server] Failed to send %s to connection: %v", action, err)
		}
	}
}

func (s *Server) closeConnections() {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	for c := range s.connections {
		c.close()
	}
}

// watchPresets tells clients to reload when the preset library changes.
func (s *Server) watchPresets(ctx context.Context) {
	defer close(s.presetsDone)
	changes, unsubscribe := s.session.SubscribePresets()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			log.Printf("[Server] Presets changed, notifying %d connections", s.ConnectionCount())
			s.Broadcast("presets", nil)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// titleCase upper-cases the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
