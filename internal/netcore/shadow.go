package netcore

import (
	"fight-club/internal/solver"
	"fight-club/internal/wire"
)

// ShadowReplica applies the exact same bucket stream the game server
// broadcasts to clients into a local Solver/Controller pair, so the
// server's admin surface can publish Snapshots without the spectate
// path ever reaching into the authoritative per-connection state.
type ShadowReplica struct {
	solver     *solver.Solver
	controller *Controller
	dt         float32
}

// NewShadowReplica builds a replica over s and its matching roster,
// stepping dt seconds per bucket it consumes.
func NewShadowReplica(s *solver.Solver, players []*Player, dt float32) *ShadowReplica {
	return &ShadowReplica{
		solver:     s,
		controller: NewController(players),
		dt:         dt,
	}
}

// Apply replays one bucket of IndexedPackets and advances the replica's
// solver by one sub-step.
func (r *ShadowReplica) Apply(bucket []wire.IndexedPacket) {
	r.controller.HandlePackets(r.solver, bucket)
	r.solver.Solve(r.dt)
}

// Snapshot renders the replica's current state into an immutable,
// render/admin-safe value.
func (r *ShadowReplica) Snapshot() Snapshot {
	particles := make([]ParticleView, len(r.solver.Particles))
	for i, p := range r.solver.Particles {
		particles[i] = ParticleView{
			X:     p.Pos.X,
			Y:     p.Pos.Y,
			Color: p.Color,
		}
	}

	playerViews := make([]PlayerView, len(r.controller.Players))
	for i, p := range r.controller.Players {
		playerViews[i] = PlayerView{
			ID:    p.ID,
			Team:  p.Team,
			Name:  p.Name,
			Alive: p.Alive(r.solver),
		}
	}

	return Snapshot{
		Tick:      r.controller.Tick,
		Particles: particles,
		Players:   playerViews,
	}
}

// Winner reports the winning team, if any, per the same rule the
// controller's GetWinners uses.
func (r *ShadowReplica) Winner() (uint8, bool) {
	return r.controller.GetWinners(r.solver)
}
