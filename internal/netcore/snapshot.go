package netcore

import "sync"

// ParticleView is an immutable copy of one particle's render-relevant
// state, decoupled from solver.Particle so the admin/spectator surface
// never aliases the authoritative solver.
type ParticleView struct {
	X, Y  float32
	Color [4]float32
}

// PlayerView is an immutable copy of one player's scoreboard state.
type PlayerView struct {
	ID    uint8
	Team  uint8
	Name  string
	Alive bool
}

// Snapshot is a point-in-time, render-only copy of game state. It is
// produced by the owning tick loop (client or server) and consumed by
// the admin/spectator HTTP surface — the snapshot is the only channel
// between the authoritative single-owner solver and anything running on
// another goroutine.
type Snapshot struct {
	Tick      uint64
	Particles []ParticleView
	Players   []PlayerView
}

// SnapshotSource holds the latest Snapshot behind a RWMutex. Update is
// called once per tick (or at a throttled rate) by the owning loop;
// Latest is called by HTTP/WebSocket handlers on other goroutines.
type SnapshotSource struct {
	mu     sync.RWMutex
	latest Snapshot
}

// Update replaces the latest snapshot.
func (s *SnapshotSource) Update(snap Snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()
}

// Latest returns the most recently published snapshot.
func (s *SnapshotSource) Latest() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
