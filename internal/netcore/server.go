package netcore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"fight-club/internal/mapassembly"
	"fight-club/internal/wire"

	"go.uber.org/zap"
)

// LobbyPlayer is an authenticated-but-unplaced participant handed from
// the lobby phase to the game phase.
type LobbyPlayer struct {
	ID   uint8
	Name string
	Team uint8
	conn net.Conn
}

// LobbyServer runs the accept-and-handshake phase: every connection is
// read for SetName, handed an id and the map, and optionally streamed
// the map's asset files before the lobby is closed by operator command.
type LobbyServer struct {
	listener net.Listener
	mapDir   string
	mp       mapassembly.Map
	log      *zap.SugaredLogger
	limiter  *HandshakeRateLimiter

	mu      sync.Mutex
	players []*LobbyPlayer
	nextID  uint8

	running atomic.Bool
}

// NewLobbyServer binds addr and prepares to hand out mp (backed by the
// files under mapDir) to joining clients.
func NewLobbyServer(addr string, mp mapassembly.Map, mapDir string, log *zap.SugaredLogger) (*LobbyServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netcore: listen %s: %w", addr, err)
	}
	s := &LobbyServer{
		listener: ln,
		mapDir:   mapDir,
		mp:       mp,
		log:      log,
		limiter:  NewHandshakeRateLimiter(DefaultHandshakeRateLimitConfig),
	}
	s.running.Store(true)
	return s, nil
}

// Addr returns the bound listen address.
func (s *LobbyServer) Addr() net.Addr { return s.listener.Addr() }

// Run accepts connections until Close is called, polling the listener
// every 100ms so shutdown is observed promptly (deadlines on a
// net.Listener substitute for a non-blocking try_accept).
func (s *LobbyServer) Run() {
	tcp, ok := s.listener.(*net.TCPListener)
	for s.running.Load() {
		if ok {
			tcp.SetDeadline(time.Now().Add(100 * time.Millisecond))
		}
		conn, err := s.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if !s.running.Load() {
				return
			}
			continue
		}
		go s.handshake(conn)
	}
}

// Close stops Run and releases the listener. Idempotent.
func (s *LobbyServer) Close() {
	if s.running.CompareAndSwap(true, false) {
		s.listener.Close()
		s.limiter.Stop()
	}
}

// Players returns the roster accumulated so far.
func (s *LobbyServer) Players() []*LobbyPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*LobbyPlayer, len(s.players))
	copy(out, s.players)
	return out
}

// Swap exchanges the roster slots at i and j, letting an operator
// reorder players before the spawn-by-slot team assignment is made.
func (s *LobbyServer) Swap(i, j int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || j < 0 || i >= len(s.players) || j >= len(s.players) {
		return fmt.Errorf("netcore: swap index out of range (roster has %d players)", len(s.players))
	}
	s.players[i], s.players[j] = s.players[j], s.players[i]
	return nil
}

// TeamPreview names the team a roster slot will receive once the game
// starts.
type TeamPreview struct {
	ID   uint8
	Name string
	Team uint8
}

// TeamAssignment previews the team each roster slot will receive once
// the game starts: round-robin over the map's spawn points, the same
// assignment the game phase applies when placing tanks.
func (s *LobbyServer) TeamAssignment() []TeamPreview {
	s.mu.Lock()
	defer s.mu.Unlock()
	spawns := s.mp.Spawns
	out := make([]TeamPreview, len(s.players))
	for i, p := range s.players {
		team := uint8(0)
		if len(spawns) > 0 {
			team = spawns[i%len(spawns)].Team
		}
		out[i] = TeamPreview{ID: p.ID, Name: p.Name, Team: team}
	}
	return out
}

func (s *LobbyServer) handshake(conn net.Conn) {
	if !s.limiter.Allow(conn.RemoteAddr().String()) {
		s.logf("handshake rate limit exceeded for %s", conn.RemoteAddr())
		conn.Close()
		return
	}

	var cp wire.ClientPacket
	if err := wire.ReadControlPacket(conn, &cp); err != nil {
		s.logf("handshake read failed: %v", err)
		conn.Close()
		return
	}
	if cp.Kind != wire.ClientSetName {
		// a client whose first packet is not SetName never joins the roster.
		s.logf("first packet was not SetName, dropping connection")
		conn.Close()
		return
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	player := &LobbyPlayer{ID: id, Name: cp.Name, conn: conn}
	s.players = append(s.players, player)
	s.mu.Unlock()

	if err := wire.WriteControlPacket(conn, wire.ServerPacket{Kind: wire.ServerSetID, ID: id}); err != nil {
		s.logf("write SetId to %s: %v", cp.Name, err)
		return
	}
	if err := wire.WriteControlPacket(conn, wire.ServerPacket{Kind: wire.ServerSetMap, MapName: s.mp.Name}); err != nil {
		s.logf("write SetMap to %s: %v", cp.Name, err)
		return
	}

	var reply wire.ClientPacket
	if err := wire.ReadControlPacket(conn, &reply); err != nil {
		s.logf("read map reply from %s: %v", cp.Name, err)
		return
	}
	if reply.Kind == wire.ClientRequestMap {
		if err := s.streamMapFiles(conn); err != nil {
			s.logf("stream map to %s: %v", cp.Name, err)
			return
		}
	}
}

func (s *LobbyServer) streamMapFiles(conn net.Conn) error {
	entries, err := os.ReadDir(s.mapDir)
	if err != nil {
		return fmt.Errorf("read map dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(s.mapDir, e.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		pkt := wire.ServerPacket{Kind: wire.ServerCreateFile, FileName: e.Name(), FileContents: contents}
		if err := wire.WriteControlPacket(conn, pkt); err != nil {
			return fmt.Errorf("write %s: %w", e.Name(), err)
		}
	}
	return nil
}

// CloseLobbyAndAnnounce sends SetPlayers and StartGame to every roster
// member and returns the per-connection sockets for the game phase.
func (s *LobbyServer) CloseLobbyAndAnnounce() ([]*LobbyPlayer, error) {
	roster := s.Players()

	ids := make([]wire.RosterEntry, len(roster))
	for i, p := range roster {
		ids[i] = wire.RosterEntry{ID: p.ID, Name: p.Name}
	}

	for _, p := range roster {
		if err := wire.WriteControlPacket(p.conn, wire.ServerPacket{Kind: wire.ServerSetPlayers, Players: ids}); err != nil {
			s.logf("SetPlayers to %s: %v", p.Name, err)
			continue
		}
		if err := wire.WriteControlPacket(p.conn, wire.ServerPacket{Kind: wire.ServerStartGame}); err != nil {
			s.logf("StartGame to %s: %v", p.Name, err)
		}
	}
	return roster, nil
}

func (s *LobbyServer) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Warnf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// GameServer runs the in-game phase: one listener goroutine per player
// reading fixed-size GamePackets into a shared TimedQueue, and one
// broadcaster goroutine serializing batches out to every peer.
type GameServer struct {
	players []*LobbyPlayer

	mu    sync.Mutex
	queue *wire.TimedQueue[wire.IndexedPacket]

	slotDuration time.Duration
	slotsStored  int

	// shadow is an optional local replica the broadcaster replays every
	// batch into, purely so the admin surface has something to read —
	// the wire protocol itself never depends on it.
	shadow   *ShadowReplica
	snapshot *SnapshotSource

	running atomic.Bool
	wg      sync.WaitGroup
	log     *zap.SugaredLogger
}

// NewGameServer builds a game-phase server over the given roster.
func NewGameServer(players []*LobbyPlayer, slotDuration time.Duration, slotsStored int, log *zap.SugaredLogger) *GameServer {
	return &GameServer{
		players:      players,
		queue:        wire.NewTimedQueue[wire.IndexedPacket](slotDuration),
		slotDuration: slotDuration,
		slotsStored:  slotsStored,
		log:          log,
	}
}

// WithShadow attaches a local replica and snapshot sink so the admin
// surface can observe match state without touching per-connection I/O.
func (g *GameServer) WithShadow(shadow *ShadowReplica, snapshot *SnapshotSource) *GameServer {
	g.shadow = shadow
	g.snapshot = snapshot
	return g
}

// Start launches N listener goroutines plus one broadcaster goroutine.
func (g *GameServer) Start() {
	g.running.Store(true)

	for _, p := range g.players {
		g.wg.Add(1)
		go g.listen(p)
	}

	g.wg.Add(1)
	go g.broadcast()
}

// Stop flips the running flag; every task observes it between
// iterations and exits. Idempotent.
func (g *GameServer) Stop() {
	if g.running.CompareAndSwap(true, false) {
		for _, p := range g.players {
			p.conn.Close()
		}
	}
	g.wg.Wait()
}

func (g *GameServer) listen(p *LobbyPlayer) {
	defer g.wg.Done()

	r := bufio.NewReaderSize(p.conn, wire.GamePacketSize*4)
	for g.running.Load() {
		var frame [wire.GamePacketSize]byte
		if _, err := io.ReadFull(r, frame[:]); err != nil {
			if g.running.Load() {
				g.logf("player %d disconnected: %v", p.ID, err)
			}
			return
		}
		gp, ok := wire.FromBytes(frame)
		if !ok {
			g.logf("player %d sent an unrecognized tag, downgraded to None", p.ID)
		}

		g.mu.Lock()
		g.queue.Push(wire.IndexedPacket{ID: p.ID, Contents: gp})
		g.mu.Unlock()
	}
}

func (g *GameServer) broadcast() {
	defer g.wg.Done()

	interval := g.slotDuration * time.Duration(g.slotsStored)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for g.running.Load() {
		<-ticker.C
		if !g.running.Load() {
			return
		}

		g.mu.Lock()
		buckets := g.queue.Take(g.slotsStored)
		g.mu.Unlock()

		batch := wire.SerializeQueue(buckets)
		for _, p := range g.players {
			if _, err := p.conn.Write(batch); err != nil {
				g.logf("broadcast to player %d dropped: %v", p.ID, err)
			}
		}

		if g.shadow != nil {
			for _, bucket := range buckets {
				g.shadow.Apply(bucket)
			}
			if g.snapshot != nil {
				g.snapshot.Update(g.shadow.Snapshot())
			}
		}
	}
}

func (g *GameServer) logf(format string, args ...any) {
	if g.log != nil {
		g.log.Warnf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
