package solver

import (
	"math"
	"testing"
)

func newBoxSolver(bl, tr Vec2) *Solver {
	return NewSolver(Constraint{BottomLeft: bl, TopRight: tr}, nil, nil)
}

func TestSpawnFall(t *testing.T) {
	s := newBoxSolver(Vec2{-10, -10}, Vec2{10, 10})
	s.AddParticle(Ground.WithPosition(Vec2{0, 5}).WithVelocity(Vec2{0, -0.5}))

	const dt = 1.0 / 480.0
	for i := 0; i < 120; i++ {
		s.Solve(dt)
	}

	p := s.Particles[0]
	floor := float32(-10) + p.Radius
	if p.Pos.Y > floor+1e-3 {
		t.Fatalf("particle did not settle on the floor: y=%v want <= %v", p.Pos.Y, floor+1e-3)
	}
	if math.Abs(float64(p.Pos.X)) > 1e-4 {
		t.Fatalf("particle drifted in x: %v", p.Pos.X)
	}
}

func TestRigidPairConservation(t *testing.T) {
	s := newBoxSolver(Vec2{-100, -100}, Vec2{100, 100})
	a := s.AddParticle(Ground.WithPosition(Vec2{0, 0}))
	b := s.AddParticle(Ground.WithPosition(Vec2{1, 0}))
	s.AddRib(a, b, Link{Tag: LinkRigid, Length: 1, Durability: 1e9, Elasticity: 50})

	const dt = 1.0 / 480.0
	for i := 0; i < 1000; i++ {
		s.Solve(dt)
		dist := s.Particles[a].Pos.Sub(s.Particles[b].Pos).Length()
		if dist < 0.5 || dist > 1.5 {
			t.Fatalf("tick %d: distance %v out of bounds [0.5, 1.5]", i, dist)
		}
	}
}

func TestMotorSpikeNonCollision(t *testing.T) {
	s := newBoxSolver(Vec2{-100, -100}, Vec2{100, 100})
	motor := s.AddParticle(Motor.WithPosition(Vec2{0, 0}))
	spike := s.AddParticle(Spike.WithPosition(Vec2{0.3, 0}))

	before := s.Particles[motor].Pos.Sub(s.Particles[spike].Pos).Length()
	s.Solve(1.0 / 480.0)
	after := s.Particles[motor].Pos.Sub(s.Particles[spike].Pos).Length()

	// No projection should have occurred: separation only moves by the
	// free-fall drift, which at this dt is far smaller than a projection
	// jump would be.
	if math.Abs(float64(after-before)) > 1e-3 {
		t.Fatalf("motor/spike pair projected despite incompatibility: before=%v after=%v", before, after)
	}
}

func TestGroundPairDoesCollide(t *testing.T) {
	s := newBoxSolver(Vec2{-100, -100}, Vec2{100, 100})
	a := s.AddParticle(Ground.WithPosition(Vec2{0, 0}))
	b := s.AddParticle(Ground.WithPosition(Vec2{0.3, 0}))

	before := s.Particles[a].Pos.Sub(s.Particles[b].Pos).Length()
	// Run only the broad phase and the collision pass: Solve's later
	// integration step turns the projection displacement into implicit
	// Verlet velocity, carrying the pair well past r1+r2 within the tick.
	s.populateGrid()
	s.resolveCollisions()
	after := s.Particles[a].Pos.Sub(s.Particles[b].Pos).Length()

	if after <= before {
		t.Fatalf("expected overlapping ground particles to separate: before=%v after=%v", before, after)
	}

	// Resolution must push the pair apart by exactly the overlap, not by
	// the raw separation vector: the resulting distance should land at
	// r1+r2. The tolerance here is far smaller than the gap a
	// raw-separation bug would leave (it would land near 0.6, well short
	// of the 1.0 this assertion wants).
	wantDist := s.Particles[a].Radius + s.Particles[b].Radius
	if diff := after - wantDist; diff > 0.01 || diff < -0.01 {
		t.Fatalf("expected resolved distance ~= r1+r2 (%v), got %v", wantDist, after)
	}
}

func TestStickyBindsOnce(t *testing.T) {
	s := newBoxSolver(Vec2{-100, -100}, Vec2{100, 100})
	sticky := s.AddParticle(NullParticle().WithPosition(Vec2{0, 0}))
	s.Particles[sticky].Kind = Kind{Tag: KindSticky, StickyRemaining: 1}
	ground := s.AddParticle(Ground.WithPosition(Vec2{0.3, 0}))

	startConns := len(s.Connections)
	s.Solve(1.0 / 480.0)
	if len(s.Connections) != startConns+1 {
		t.Fatalf("expected exactly one new connection after first tick, got %d new", len(s.Connections)-startConns)
	}
	last := s.Connections[len(s.Connections)-1]
	if !(last.I == sticky && last.J == ground) && !(last.I == ground && last.J == sticky) {
		t.Fatalf("new connection does not bind sticky particle to its partner: %+v", last)
	}

	afterFirst := len(s.Connections)
	s.Solve(1.0 / 480.0)
	if len(s.Connections) != afterFirst {
		t.Fatalf("expected no further connection on second tick, got %d", len(s.Connections)-afterFirst)
	}
}

func TestGridCellCapacity(t *testing.T) {
	s := newBoxSolver(Vec2{-10, -10}, Vec2{10, 10})
	for i := 0; i < 10; i++ {
		s.AddParticle(Ground.WithPosition(Vec2{0, 0}))
	}
	s.populateGrid()
	col, row := s.grid.CellCoords(Vec2{0, 0})
	cell := s.grid.At(col, row)
	if cell.len != CellCapacity {
		t.Fatalf("expected cell to cap at %d entries, got %d", CellCapacity, cell.len)
	}
}

func TestBuildTankShape(t *testing.T) {
	tank := BuildTank()
	if len(tank.Particles) == 0 || len(tank.Connections) == 0 {
		t.Fatalf("expected a non-empty tank model")
	}
	if len(tank.LeftMotors) != 6 {
		t.Fatalf("expected 6 left motors, got %d", len(tank.LeftMotors))
	}
	if len(tank.RightMotors) != 3 {
		t.Fatalf("expected 3 right motors, got %d", len(tank.RightMotors))
	}
	if len(tank.Pistols) != 2 {
		t.Fatalf("expected 2 pistols, got %d", len(tank.Pistols))
	}
	if tank.Center < 0 || tank.Center >= len(tank.Particles) {
		t.Fatalf("center index out of range: %d", tank.Center)
	}
	if tank.Muzzle < 0 || tank.Muzzle >= len(tank.Particles) {
		t.Fatalf("muzzle index out of range: %d", tank.Muzzle)
	}
	if tank.CenterConnection < 0 || tank.CenterConnection >= len(tank.Connections) {
		t.Fatalf("center connection index out of range: %d", tank.CenterConnection)
	}
}

func TestAddModelStampsAtCenter(t *testing.T) {
	s := newBoxSolver(Vec2{-100, -100}, Vec2{100, 100})
	m := Model{
		Center: Vec2{0, 0},
		Particles: []Particle{
			Ground.WithPosition(Vec2{-1, 0}),
			Ground.WithPosition(Vec2{1, 0}),
		},
		Connections: []Connection{{I: 0, J: 1, Link: Link{Tag: LinkRigid, Length: 2, Durability: 1, Elasticity: 10}}},
	}
	s.AddModel(m, Vec2{10, 10})
	if s.Particles[0].Pos != (Vec2{9, 10}) {
		t.Fatalf("expected first stamped particle at (9,10), got %+v", s.Particles[0].Pos)
	}
	if s.Particles[1].Pos != (Vec2{11, 10}) {
		t.Fatalf("expected second stamped particle at (11,10), got %+v", s.Particles[1].Pos)
	}
	if s.Connections[0].I != 0 || s.Connections[0].J != 1 {
		t.Fatalf("expected connection indices unshifted for first model: %+v", s.Connections[0])
	}
}

func TestDeterminismAcrossIdenticalSolvers(t *testing.T) {
	build := func() *Solver {
		s := newBoxSolver(Vec2{-20, -20}, Vec2{20, 20})
		s.AddParticle(Ground.WithPosition(Vec2{0, 5}))
		s.AddParticle(Metal.WithPosition(Vec2{0.2, 5}))
		s.AddRib(0, 1, Link{Tag: LinkRigid, Length: 1, Durability: 10, Elasticity: 20})
		return s
	}

	a := build()
	b := build()

	for i := 0; i < 200; i++ {
		a.Solve(1.0 / 480.0)
		b.Solve(1.0 / 480.0)
	}

	for i := range a.Particles {
		if a.Particles[i].Pos != b.Particles[i].Pos {
			t.Fatalf("solvers diverged at particle %d: %+v vs %+v", i, a.Particles[i].Pos, b.Particles[i].Pos)
		}
	}
}
