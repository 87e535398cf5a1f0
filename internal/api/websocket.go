package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"fight-club/internal/netcore"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal bounds concurrent spectate connections.
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP bounds spectate connections from one address.
	MaxWSConnectionsPerIP = 10

	// spectateInterval is how often the hub pushes a snapshot frame.
	spectateInterval = 100 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("spectate connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// WebSocketHub fans a throttled stream of Snapshot frames out to every
// connected /spectate client. It never touches the authoritative solver
// itself — only whatever SpectatorSource.Latest() last published.
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	wsLimiter *WebSocketRateLimiter
}

// NewWebSocketHub creates a hub with per-IP connection limiting.
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// Run services the hub's register/unregister/broadcast channels. Meant
// to be launched as its own goroutine.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			h.mu.Unlock()
			UpdateWSConnections(h.ClientCount())

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				h.wsLimiter.Release(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
			UpdateWSConnections(h.ClientCount())

		case message := <-h.broadcast:
			h.mu.RLock()
			dead := make([]*websocket.Conn, 0)
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					dead = append(dead, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range dead {
				h.unregister <- conn
			}
		}
	}
}

// ClientCount returns the number of connected spectate clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop periodically pulls the latest Snapshot from source
// and fans it out to every connected spectator.
func (h *WebSocketHub) StartBroadcastLoop(source SpectatorSource) {
	ticker := time.NewTicker(spectateInterval)

	go func() {
		for range ticker.C {
			if h.ClientCount() == 0 {
				continue
			}

			snap := source.Latest()
			body, err := json.Marshal(snapshotWire{
				Tick:        snap.Tick,
				Particles:   snap.Particles,
				PlayerCount: len(snap.Players),
				Players:     snap.Players,
			})
			if err != nil {
				continue
			}

			select {
			case h.broadcast <- body:
			default:
				// hub is backed up; drop this frame rather than block the ticker
			}
		}
	}()
}

type snapshotWire struct {
	Tick        uint64                  `json:"tick"`
	Particles   []netcore.ParticleView  `json:"particles"`
	PlayerCount int                     `json:"playerCount"`
	Players     []netcore.PlayerView    `json:"players"`
}

// HandleWebSocket upgrades r into a /spectate connection, subject to the
// total and per-IP connection caps.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		RecordConnectionRejected("ws_limit")
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.wsLimiter.Allow(ip) {
		RecordConnectionRejected("ws_limit")
		http.Error(w, "too many connections from your address", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.wsLimiter.Release(ip)
		return
	}

	client := &wsClient{conn: conn, ip: ip}
	h.register <- client

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			// spectate is read-only from the client's perspective; any
			// inbound frame is drained and discarded.
		}
	}()
}
