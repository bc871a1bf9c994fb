package server

import (
	"container/list"
	"context"
	"crypto/subtle"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/livetemplate/themeforge/internal/config"
)

// matchOrigin reports whether origin is listed in origins, and whether it
// matched through the "*" wildcard.
func matchOrigin(origins []string, origin string) (allowed, wildcard bool) {
	for _, o := range origins {
		if o == "*" {
			return true, true
		}
		if o == origin {
			allowed = true
		}
	}
	return allowed, false
}

// CORSMiddleware lets the configured origins call the document API from the
// browser. With no origins configured it adds nothing.
func CORSMiddleware(origins []string, authHeaderName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(origins) == 0 {
			return next
		}

		allowHeaders := "Content-Type, Authorization, X-API-Key"
		if authHeaderName != "" && authHeaderName != "Authorization" && authHeaderName != "X-API-Key" {
			allowHeaders += ", " + authHeaderName
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowed, wildcard := matchOrigin(origins, origin); allowed && origin != "" {
				h := w.Header()
				if wildcard {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				h.Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// editorCSP allows the editor's own script and styles. Preview sections carry
// their tokens in inline style attributes; connect-src 'self' covers the
// same-origin websocket.
const editorCSP = "default-src 'self'; " +
	"script-src 'self'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"font-src 'self' data:; " +
	"connect-src 'self'; " +
	"frame-ancestors 'none'"

// SecurityHeadersMiddleware adds security headers to all responses.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", editorCSP)
			next.ServeHTTP(w, r)
		})
	}
}

const (
	// evictionLogInterval is the minimum time between eviction log messages.
	evictionLogInterval = 30 * time.Second
	sweepInterval       = 5 * time.Minute
	idleClientTTL       = 10 * time.Minute
)

// clientBucket is one client's token bucket and its place in the LRU list.
type clientBucket struct {
	ip       string
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter hands out per-client token buckets, keeping at most capacity
// clients and forgetting the least recently seen one when full.
type clientLimiter struct {
	rps      rate.Limit
	burst    int
	capacity int

	mu      sync.Mutex
	buckets map[string]*list.Element
	order   *list.List // front = most recent

	lastEvictLog time.Time
	evictCount   int
}

func newClientLimiter(rps float64, burst, capacity int) *clientLimiter {
	if capacity <= 0 {
		capacity = 10000
	}
	return &clientLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		capacity: capacity,
		buckets:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// allow takes a token from ip's bucket.
func (l *clientLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if elem, ok := l.buckets[ip]; ok {
		l.order.MoveToFront(elem)
		b := elem.Value.(*clientBucket)
		b.lastSeen = now
		return b.limiter.Allow()
	}

	if l.order.Len() >= l.capacity {
		l.evictOldest(now)
	}
	b := &clientBucket{ip: ip, limiter: rate.NewLimiter(l.rps, l.burst), lastSeen: now}
	l.buckets[ip] = l.order.PushFront(b)
	return b.limiter.Allow()
}

func (l *clientLimiter) evictOldest(now time.Time) {
	back := l.order.Back()
	if back == nil {
		return
	}
	l.order.Remove(back)
	delete(l.buckets, back.Value.(*clientBucket).ip)
	l.evictCount++
	if now.Sub(l.lastEvictLog) >= evictionLogInterval {
		log.Printf("[RateLimit] Evicted %d least-recent client(s) (at capacity: %d)", l.evictCount, l.capacity)
		l.lastEvictLog = now
		l.evictCount = 0
	}
}

// sweep drops clients idle for longer than ttl. LRU order follows access
// recency, so the whole list is scanned.
func (l *clientLimiter) sweep(now time.Time, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for e := l.order.Back(); e != nil; {
		prev := e.Prev()
		if b := e.Value.(*clientBucket); now.Sub(b.lastSeen) > ttl {
			l.order.Remove(e)
			delete(l.buckets, b.ip)
		}
		e = prev
	}
}

func (l *clientLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

// RateLimitMiddleware limits each client to rps requests per second with the
// given burst, tracking at most maxIPs clients. Idle clients are swept until
// ctx is done; the returned channel closes when the sweeper exits.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, maxIPs int) (func(http.Handler) http.Handler, <-chan struct{}) {
	limiter := newClientLimiter(rps, burst, maxIPs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				limiter.sweep(now, idleClientTTL)
			case <-ctx.Done():
				return
			}
		}
	}()

	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(getClientIP(r), time.Now()) {
				w.Header().Set("Retry-After", "1")
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	return middleware, done
}

// getClientIP extracts the client IP from the request.
// It only trusts X-Forwarded-For / X-Real-IP when the immediate peer is a
// loopback or private address (i.e., behind a reverse proxy).
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	peerIP := net.ParseIP(host)
	trustedProxy := peerIP != nil && (peerIP.IsLoopback() || peerIP.IsPrivate())

	if trustedProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if parts := strings.SplitN(xff, ",", 2); len(parts) > 0 {
				return strings.TrimSpace(parts[0])
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	if peerIP != nil {
		return peerIP.String()
	}
	return host
}

// keyParam is the query parameter holding the API key on websocket handshakes.
const keyParam = "key"

// AuthMiddleware validates the configured API key. If no key is configured,
// authentication is disabled and all requests pass through. Unless all is
// set, GET, HEAD and OPTIONS requests pass without a key. Websocket
// handshakes may carry the key in the "key" query parameter instead.
func AuthMiddleware(authCfg *config.AuthConfig, all bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		apiKey := authCfg.GetAPIKey()
		if apiKey == "" {
			return next
		}

		headerName := authCfg.GetHeaderName()

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !all {
				switch r.Method {
				case http.MethodGet, http.MethodHead, http.MethodOptions:
					next.ServeHTTP(w, r)
					return
				}
			}

			token := r.Header.Get(headerName)
			fromQuery := false
			if token == "" && websocket.IsWebSocketUpgrade(r) {
				// Browsers cannot set headers on a websocket handshake.
				token = r.URL.Query().Get(keyParam)
				fromQuery = true
			}
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			// Handle "Authorization: Bearer <token>" format
			if headerName == "Authorization" && !fromQuery {
				const bearerPrefix = "Bearer "
				if len(token) > len(bearerPrefix) && token[:len(bearerPrefix)] == bearerPrefix {
					token = token[len(bearerPrefix):]
				} else {
					writeJSONError(w, http.StatusUnauthorized, "invalid authorization format, expected Bearer token")
					return
				}
			}

			if !secureCompare(token, apiKey) {
				writeJSONError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// secureCompare compares in constant time.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
