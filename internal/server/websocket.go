package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/livetemplate/themeforge/internal/keymap"
)

const writeWait = 10 * time.Second

// newUpgrader accepts same-origin handshakes, handshakes from the configured
// CORS origins, and clients that send no Origin header at all.
func newUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r, origins)
		},
	}
}

func originAllowed(r *http.Request, origins []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	allowed, _ := matchOrigin(origins, origin)
	return allowed
}

var connSeq atomic.Uint64

// Message is the envelope for every websocket message in both directions.
type Message struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// frameMessage is the payload of a "frame" message.
type frameMessage struct {
	Seq   uint64 `json:"seq"`
	HTML  string `json:"html"`
	Stale bool   `json:"stale"`
}

// wsClient is one editor connection. Writes are serialized by mu.
type wsClient struct {
	id    string
	conn  *websocket.Conn
	debug bool
	mu    sync.Mutex
}

func (c *wsClient) send(action string, data interface{}) error {
	msg := Message{Action: action}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", action, err)
		}
		msg.Data = raw
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		return err
	}
	if c.debug {
		log.Printf("[WS] Sent %s to %s", action, c.id)
	}
	return nil
}

func (c *wsClient) sendError(err error) {
	if sendErr := c.send("error", map[string]string{"message": err.Error()}); sendErr != nil && c.debug {
		log.Printf("[WS] Failed to send error to %s: %v", c.id, sendErr)
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(time.Second))
	c.conn.Close()
}

// serveWebSocket upgrades the connection, sends the greeting and current
// state, then streams status and preview updates while reading intents.
func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Failed to upgrade connection from %s: %v", r.Header.Get("Origin"), err)
		return
	}

	c := &wsClient{
		id:    "conn-" + strconv.FormatUint(connSeq.Add(1), 10),
		conn:  conn,
		debug: s.config.Server.Debug,
	}
	unregister := s.session.Registry().Register(c.id, s.session.Keymap())
	s.RegisterConnection(c)
	defer func() {
		unregister()
		s.UnregisterConnection(c)
		conn.Close()
	}()

	if c.debug {
		log.Printf("[WS] Client connected: %s (%s)", c.id, conn.RemoteAddr())
	}

	if err := c.send("hello", map[string]interface{}{
		"id":       c.id,
		"bindings": s.session.Keymap().Describe(),
		"layouts":  s.session.Layouts(),
		"version":  s.version,
	}); err != nil {
		log.Printf("[WS] Failed to greet %s: %v", c.id, err)
		return
	}

	done := make(chan struct{})
	var pumpDone sync.WaitGroup
	pumpDone.Add(1)
	go func() {
		defer pumpDone.Done()
		s.pump(c, done)
	}()
	defer func() {
		close(done)
		pumpDone.Wait()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Unexpected close: %v", err)
			}
			return
		}
		if err := s.handleMessage(c, message); err != nil {
			if c.debug {
				log.Printf("[WS] Error handling message from %s: %v", c.id, err)
			}
			c.sendError(err)
		}
	}
}

// handleMessage dispatches one client intent. Results reach the client
// through the pump, not as direct replies.
func (s *Server) handleMessage(c *wsClient, message []byte) error {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if c.debug {
		log.Printf("[WS] Received %s from %s", msg.Action, c.id)
	}

	switch msg.Action {
	case "key":
		var ev keymap.KeyEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return fmt.Errorf("key: %w", err)
		}
		if _, _, ok := s.session.HandleKey(c.id, ev); !ok && c.debug {
			log.Printf("[WS] No binding for %+v", ev)
		}
		return nil

	case "preset":
		var req struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return fmt.Errorf("preset: %w", err)
		}
		_, err := s.session.ApplyPreset(req.Name)
		return err

	default:
		var data map[string]interface{}
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				return fmt.Errorf("%s: %w", msg.Action, err)
			}
		}
		_, err := s.session.History().HandleAction(msg.Action, data)
		return err
	}
}

// pump forwards history, preview and indicator updates to c until done.
func (s *Server) pump(c *wsClient, done <-chan struct{}) {
	changes, stopChanges := s.session.History().Subscribe()
	defer stopChanges()
	frames, stopFrames := s.session.Scheduler().Subscribe()
	defer stopFrames()
	states, stopStates := s.session.Indicator().Subscribe()
	defer stopStates()

	for {
		var err error
		select {
		case <-done:
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			err = c.send("status", s.session.Status())
		case f, ok := <-frames:
			if !ok {
				return
			}
			if f.Err != nil {
				log.Printf("[WS] Preview render failed at seq %d: %v", f.Seq, f.Err)
				continue
			}
			err = c.send("frame", frameMessage{
				Seq:   f.Seq,
				HTML:  string(f.Output),
				Stale: s.session.Scheduler().IsStale(),
			})
		case _, ok := <-states:
			if !ok {
				return
			}
			err = c.send("status", s.session.Status())
		}
		if err != nil {
			if c.debug {
				log.Printf("[WS] Failed to send to %s: %v", c.id, err)
			}
			return
		}
	}
}
