package netcore

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"fight-club/internal/mapassembly"
	"fight-club/internal/solver"
	"fight-club/internal/wire"

	"go.uber.org/zap"
)

// Session is a handshaked client connection: its assigned id, the
// roster and map the server announced, and the socket the game phase
// speaks 9-byte GamePackets over.
type Session struct {
	conn    net.Conn
	ID      uint8
	MapName string
	Roster  []wire.RosterEntry
	Map     mapassembly.Map
}

// Handshake dials addr, performs the lobby handshake as nick, caches any
// map assets the server streams down under assetsRoot/maps/<name>/, and
// blocks until the server sends StartGame.
func Handshake(addr, nick, assetsRoot string) (*Session, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netcore: dial %s: %w", addr, err)
	}

	if err := wire.WriteControlPacket(conn, wire.ClientPacket{Kind: wire.ClientSetName, Name: nick}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("netcore: send SetName: %w", err)
	}

	var idPkt wire.ServerPacket
	if err := wire.ReadControlPacket(conn, &idPkt); err != nil || idPkt.Kind != wire.ServerSetID {
		conn.Close()
		return nil, fmt.Errorf("netcore: expected SetId: %w", err)
	}

	var mapPkt wire.ServerPacket
	if err := wire.ReadControlPacket(conn, &mapPkt); err != nil || mapPkt.Kind != wire.ServerSetMap {
		conn.Close()
		return nil, fmt.Errorf("netcore: expected SetMap: %w", err)
	}

	mapDir := filepath.Join(assetsRoot, "maps", mapPkt.MapName)
	mapPath := filepath.Join(mapDir, "map.smog")

	if _, err := os.Stat(mapPath); err == nil {
		if err := wire.WriteControlPacket(conn, wire.ClientPacket{Kind: wire.ClientOk}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("netcore: send Ok: %w", err)
		}
	} else {
		if err := os.MkdirAll(mapDir, 0o755); err != nil {
			conn.Close()
			return nil, fmt.Errorf("netcore: create %s: %w", mapDir, err)
		}
		if err := wire.WriteControlPacket(conn, wire.ClientPacket{Kind: wire.ClientRequestMap}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("netcore: send RequestMap: %w", err)
		}
	}

	var roster []wire.RosterEntry
	for {
		var pkt wire.ServerPacket
		if err := wire.ReadControlPacket(conn, &pkt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("netcore: handshake read: %w", err)
		}
		switch pkt.Kind {
		case wire.ServerCreateFile:
			if err := os.WriteFile(filepath.Join(mapDir, pkt.FileName), pkt.FileContents, 0o644); err != nil {
				conn.Close()
				return nil, fmt.Errorf("netcore: write asset %s: %w", pkt.FileName, err)
			}
		case wire.ServerSetPlayers:
			roster = pkt.Players
		case wire.ServerStartGame:
			data, err := os.ReadFile(mapPath)
			if err != nil {
				conn.Close()
				return nil, fmt.Errorf("netcore: read cached map %s: %w", mapPath, err)
			}
			mp, err := mapassembly.Deserialize(data)
			if err != nil {
				conn.Close()
				return nil, fmt.Errorf("netcore: decode cached map: %w", err)
			}
			return &Session{
				conn:    conn,
				ID:      idPkt.ID,
				MapName: mapPkt.MapName,
				Roster:  roster,
				Map:     mp,
			}, nil
		}
	}
}

// GameLoop owns the three post-handshake tasks (send, receive, stop)
// plus the foreground FixedUpdate physics loop: every tick it drains up
// to subTicks buckets and, for each, calls controller.HandlePackets
// then solver.Solve(1/tickHz/subTicks).
type GameLoop struct {
	sess       *Session
	solver     *solver.Solver
	controller *Controller
	snapshot   *SnapshotSource
	log        *zap.SugaredLogger

	tickHz   int
	subTicks int

	outbound chan wire.GamePacket
	inbound  chan []wire.IndexedPacket
	stop     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

// NewGameLoop builds the client-side replica from sess's announced map
// and roster, ready to Run().
func NewGameLoop(sess *Session, tickHz, subTicks, sendQueueCapacity int, log *zap.SugaredLogger) *GameLoop {
	s, players := NewMatch(sess.Map, sess.Roster)
	return &GameLoop{
		sess:       sess,
		solver:     s,
		controller: NewController(players),
		snapshot:   &SnapshotSource{},
		log:        log,
		tickHz:     tickHz,
		subTicks:   subTicks,
		outbound:   make(chan wire.GamePacket, sendQueueCapacity),
		inbound:    make(chan []wire.IndexedPacket, 64),
		stop:       make(chan struct{}),
	}
}

// Snapshot exposes the replica's latest render/admin state.
func (g *GameLoop) Snapshot() *SnapshotSource { return g.snapshot }

// Winner reports the winning team, if any, per the same rule every
// peer evaluates identically against its own replica.
func (g *GameLoop) Winner() (uint8, bool) {
	return g.controller.GetWinners(g.solver)
}

// Send enqueues a packet for the send task. Non-blocking: if the
// outbound queue is full, the oldest un-sent packet is dropped with a
// warning to make room for this one rather than stalling the caller.
func (g *GameLoop) Send(p wire.GamePacket) {
	select {
	case g.outbound <- p:
		return
	default:
	}
	select {
	case old := <-g.outbound:
		g.log.Warnf("outbound queue full, dropping oldest packet tag %d", old.Tag)
	default:
	}
	select {
	case g.outbound <- p:
	default:
		g.log.Warnf("outbound queue full, dropping packet tag %d", p.Tag)
	}
}

// Run starts the send, receive, and FixedUpdate tasks and blocks until
// Stop is called or the connection dies.
func (g *GameLoop) Run() {
	g.running.Store(true)
	var wg sync.WaitGroup

	wg.Add(2)
	go g.sendTask(&wg)
	go g.receiveTask(&wg)

	g.fixedUpdateLoop()

	g.Stop()
	wg.Wait()
}

// Stop signals every task to exit and closes the connection. Idempotent.
func (g *GameLoop) Stop() {
	g.stopOnce.Do(func() {
		g.running.Store(false)
		close(g.stop)
		g.sess.conn.Close()
	})
}

func (g *GameLoop) sendTask(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-g.stop:
			return
		case p := <-g.outbound:
			frame := p.ToBytes()
			if _, err := g.sess.conn.Write(frame[:]); err != nil {
				g.log.Warnf("send failed: %v", err)
				return
			}
		}
	}
}

func (g *GameLoop) receiveTask(wg *sync.WaitGroup) {
	defer wg.Done()
	var residualFrame []byte

	for {
		buf := make([]byte, 4096)
		n, err := g.sess.conn.Read(buf)
		if err != nil {
			if err != io.EOF {
				g.log.Warnf("receive failed: %v", err)
			}
			return
		}

		data := append(residualFrame, buf[:n]...)
		buckets, residual := wire.DeserializeQueue(data)
		if residual > 0 {
			// DeserializeQueue already slid the unconsumed tail to the
			// front of data; copy it out so the next read can safely
			// append without aliasing into a reused buffer.
			residualFrame = append([]byte(nil), data[:residual]...)
		} else {
			residualFrame = nil
		}

		for _, bucket := range buckets {
			select {
			case g.inbound <- bucket:
			case <-g.stop:
				return
			}
		}
	}
}

// fixedUpdateLoop runs at tickHz, draining up to subTicks buckets per
// tick. An inbound underflow skips the tick with no extrapolation; an
// overflow leaves excess buckets queued for later ticks.
func (g *GameLoop) fixedUpdateLoop() {
	dt := float32(1) / (float32(g.tickHz) * float32(g.subTicks))
	interval := time.Second / time.Duration(g.tickHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stop:
			return
		case <-ticker.C:
			for i := 0; i < g.subTicks; i++ {
				select {
				case bucket := <-g.inbound:
					g.controller.HandlePackets(g.solver, bucket)
					g.solver.Solve(dt)
				default:
					break
				}
			}
			g.snapshot.Update(g.buildSnapshot())
		}
	}
}

func (g *GameLoop) buildSnapshot() Snapshot {
	particles := make([]ParticleView, len(g.solver.Particles))
	for i, p := range g.solver.Particles {
		particles[i] = ParticleView{X: p.Pos.X, Y: p.Pos.Y, Color: p.Color}
	}
	players := make([]PlayerView, len(g.controller.Players))
	for i, p := range g.controller.Players {
		players[i] = PlayerView{ID: p.ID, Team: p.Team, Name: p.Name, Alive: p.Alive(g.solver)}
	}
	return Snapshot{Tick: g.controller.Tick, Particles: particles, Players: players}
}
