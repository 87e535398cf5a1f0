package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server is the ambient admin/spectator HTTP surface: health, Prometheus
// metrics, and a read-only /spectate snapshot feed. It sits beside, and
// never replaces, the raw TCP authoritative wire protocol the game
// itself speaks.
type Server struct {
	source      SpectatorSource
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
}

// NewServer builds an API server reading from source.
//
// The websocket hub and its broadcast loop do not start until Start() is
// called, and no listener is opened before then, so tests can construct a
// Server and use Router(). The rate limiter's cleanup goroutine starts
// here; Stop() ends it.
func NewServer(source SpectatorSource) *Server {
	s := &Server{
		source: source,
		wsHub:  NewWebSocketHub(),
	}
	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	s.router = NewRouter(RouterConfig{Source: source, RateLimiter: s.rateLimiter})
	s.router.Get("/spectate", s.handleSpectate)
	return s
}

// Start launches background workers and blocks serving HTTP on addr.
// Call this only once; signal the process to stop.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.source)

	log.Printf("admin surface listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler, for use with httptest.NewServer.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) handleSpectate(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}
