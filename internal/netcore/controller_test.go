package netcore

import (
	"testing"

	"fight-club/internal/solver"
	"fight-club/internal/wire"
)

func newTestMatch(t *testing.T, n int) (*solver.Solver, []*Player) {
	t.Helper()
	s := solver.NewSolver(solver.Constraint{BottomLeft: solver.Vec2{X: -100, Y: -100}, TopRight: solver.Vec2{X: 100, Y: 100}}, nil, nil)

	players := make([]*Player, n)
	for i := 0; i < n; i++ {
		raw := solver.BuildTank()
		model := PlaceTank(raw, solver.Vec2{X: float32(i) * 20, Y: 0}, s)
		players[i] = &Player{ID: uint8(i), Team: uint8(i), Name: "p", Model: model}
	}
	return s, players
}

func TestHPColorEndpoints(t *testing.T) {
	full := hpColor(1)
	if full[0] > 0.3 || full[1] < 0.5 {
		t.Fatalf("full HP should read green-dominant, got %v", full)
	}
	empty := hpColor(0)
	if empty[1] > 0.3 || empty[0] < 0.5 {
		t.Fatalf("zero HP should read red-dominant, got %v", empty)
	}
}

func TestGetWinnersSingleTeamAlive(t *testing.T) {
	s, players := newTestMatch(t, 2)
	c := NewController(players)

	if _, ok := c.GetWinners(s); ok {
		t.Fatalf("both players alive: expected no winner yet")
	}

	conn := &s.Connections[players[1].Model.CenterConnection]
	conn.Link.Durability = 0

	team, ok := c.GetWinners(s)
	if !ok || team != players[0].Team {
		t.Fatalf("expected team %d to win, got team=%d ok=%v", players[0].Team, team, ok)
	}
}

func TestGetWinnersNoneWhenAllDead(t *testing.T) {
	s, players := newTestMatch(t, 2)
	c := NewController(players)

	for _, p := range players {
		s.Connections[p.Model.CenterConnection].Link.Durability = 0
	}

	if _, ok := c.GetWinners(s); ok {
		t.Fatalf("expected no winner once every team is eliminated")
	}
}

func TestHandlePacketsIgnoresDeadPlayers(t *testing.T) {
	s, players := newTestMatch(t, 1)
	c := NewController(players)
	s.Connections[players[0].Model.CenterConnection].Link.Durability = 0

	before := s.Size()
	bucket := []wire.IndexedPacket{{ID: 0, Contents: wire.GamePacket{Tag: wire.TagFire, Bullet: 0}}}
	c.HandlePackets(s, bucket)

	if s.Size() != before {
		t.Fatalf("dead player's Fire packet should not spawn a projectile")
	}
}

func TestHandlePacketsFireSpawnsProjectileAndRecoils(t *testing.T) {
	s, players := newTestMatch(t, 1)
	c := NewController(players)
	p := players[0]

	beforeCount := s.Size()

	bucket := []wire.IndexedPacket{{ID: 0, Contents: wire.GamePacket{Tag: wire.TagFire, Bullet: 0}}}
	c.HandlePackets(s, bucket)

	if s.Size() != beforeCount+1 {
		t.Fatalf("expected exactly one projectile spawned, size went from %d to %d", beforeCount, s.Size())
	}
	if s.Particles[p.Model.Center].Acc == (solver.Vec2{}) {
		t.Fatalf("expected recoil to accelerate the tank model")
	}
	if p.ReloadTimer != projectileTable[0].reloadTicks {
		// updateTimers runs before the packet dispatch loop, so the
		// reload timer this Fire sets is not itself decremented until
		// the next HandlePackets call.
		t.Fatalf("expected ReloadTimer set to %d after firing, got %d", projectileTable[0].reloadTicks, p.ReloadTimer)
	}
}

func TestHandlePacketsFireGatedByReloadTimer(t *testing.T) {
	s, players := newTestMatch(t, 1)
	c := NewController(players)
	p := players[0]
	p.ReloadTimer = 5

	before := s.Size()
	bucket := []wire.IndexedPacket{{ID: 0, Contents: wire.GamePacket{Tag: wire.TagFire, Bullet: 0}}}
	c.HandlePackets(s, bucket)

	if s.Size() != before {
		t.Fatalf("expected Fire to be ignored while ReloadTimer is still positive")
	}
	if p.ReloadTimer != 4 {
		t.Fatalf("expected ReloadTimer to still tick down even while gating Fire, got %d", p.ReloadTimer)
	}
}

func TestHandlePacketsDashGatedByDashTimer(t *testing.T) {
	s, players := newTestMatch(t, 1)
	c := NewController(players)
	p := players[0]
	p.DashTimer = 10

	before := s.Particles[p.Model.Center].PosOld
	bucket := []wire.IndexedPacket{{ID: 0, Contents: wire.GamePacket{Tag: wire.TagDash, Coeff: 1}}}
	c.HandlePackets(s, bucket)

	if s.Particles[p.Model.Center].PosOld != before {
		t.Fatalf("expected Dash to be ignored while DashTimer is still positive")
	}
}

func TestHandlePacketsMotorAndThrust(t *testing.T) {
	s, players := newTestMatch(t, 1)
	c := NewController(players)
	p := players[0]

	bucket := []wire.IndexedPacket{
		{ID: 0, Contents: wire.GamePacket{Tag: wire.TagThrust, Left: 0.5, Right: -0.5}},
	}
	c.HandlePackets(s, bucket)

	if p.ThrustLeft != 0.5 || p.ThrustRight != -0.5 {
		t.Fatalf("thrust not recorded: left=%v right=%v", p.ThrustLeft, p.ThrustRight)
	}

	// Continuous effects apply every SubTicks ticks; drive the tick
	// counter there and confirm the outer motor picked up the thrust.
	for i := uint64(0); i < SubTicks-1; i++ {
		c.HandlePackets(s, nil)
	}
	if len(p.Model.LeftMotors) == 0 {
		t.Fatalf("test fixture tank has no left motors")
	}
	outer := p.Model.LeftMotors[len(p.Model.LeftMotors)-1]
	if s.Particles[outer].Kind.MotorAcc != 0.5 {
		t.Fatalf("expected outer left motor to pick up ThrustLeft=0.5, got %v", s.Particles[outer].Kind.MotorAcc)
	}
}

func TestHandlePacketsUnknownTagIsNoop(t *testing.T) {
	s, players := newTestMatch(t, 1)
	c := NewController(players)

	before := s.Size()
	bucket := []wire.IndexedPacket{{ID: 0, Contents: wire.GamePacket{Tag: wire.Tag(200)}}}
	c.HandlePackets(s, bucket)

	if s.Size() != before {
		t.Fatalf("unrecognized tag should be a no-op, not mutate the solver")
	}
}
