// Package netcore implements the authoritative rule layer (Controller),
// player bookkeeping, and the server/client network loops that drive a
// solver.Solver in lock-step across peers.
package netcore

import "fight-club/internal/solver"

// MaxGear bounds Player.Gear.
const MaxGear = 5

// PlayerModel names the indices of a stamped tank within a shared
// solver: the particle range the model occupies, its motor/pistol
// controls, and its center/muzzle/hit-point anchors.
type PlayerModel struct {
	RangeStart, RangeEnd int // [RangeStart, RangeEnd)

	LeftMotors  []int
	RightMotors []int
	Pistols     []int

	Center           int
	Muzzle           int
	CenterConnection int
}

// ForEach invokes f once per particle index in the model's range.
func (m PlayerModel) ForEach(f func(idx int)) {
	for i := m.RangeStart; i < m.RangeEnd; i++ {
		f(i)
	}
}

// PlaceTank stamps a freshly built tank into solver s at pos and returns
// its index-shifted PlayerModel.
func PlaceTank(raw solver.RawPlayerModel, pos solver.Vec2, s *solver.Solver) PlayerModel {
	particlesBefore := s.Size()
	connectionsBefore := len(s.Connections)

	shift := func(indices []int) []int {
		out := make([]int, len(indices))
		for i, v := range indices {
			out[i] = v + particlesBefore
		}
		return out
	}

	pm := PlayerModel{
		RangeStart:       particlesBefore,
		RangeEnd:         particlesBefore + len(raw.Particles),
		LeftMotors:       shift(raw.LeftMotors),
		RightMotors:      shift(raw.RightMotors),
		Pistols:          shift(raw.Pistols),
		Center:           raw.Center + particlesBefore,
		Muzzle:           raw.Muzzle + particlesBefore,
		CenterConnection: raw.CenterConnection + connectionsBefore,
	}

	s.AddModel(raw.ToModel(), pos)
	return pm
}

// Player is per-participant state on every peer.
type Player struct {
	ID   uint8
	Team uint8
	Name string

	Model PlayerModel

	Gear      int
	Projectile uint8

	ReloadTimer int
	DashTimer   int

	ThrustLeft, ThrustRight float32

	HasAim bool
	Aim    solver.Vec2
}

// Alive reports whether the player's tank center connection still has
// positive durability.
func (p *Player) Alive(s *solver.Solver) bool {
	return s.Connections[p.Model.CenterConnection].Link.Durability > 0
}
