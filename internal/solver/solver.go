package solver

import "math"

// ImpulseVelocity is the speed an Impulse kind imparts to whatever it
// collides with, consuming the same amount of its own budget.
const ImpulseVelocity float32 = 6

// Solver owns the particle and connection arrays, the bounding
// constraint, and the broad-phase grid. Indices are stable for the
// solver's lifetime: particles and connections are only ever appended,
// never removed or reordered.
type Solver struct {
	Particles   []Particle
	Connections []Connection
	Constraint  Constraint
	grid        *Grid

	// special lists particle indices whose Kind requires a post-
	// collision sweep this tick (currently only Sticky with a pending
	// partner recorded during collision).
	special []int
}

// NewSolver builds a solver over the given constraint, starting from an
// initial particle/connection set (typically loaded from a Map).
func NewSolver(constraint Constraint, particles []Particle, connections []Connection) *Solver {
	return &Solver{
		Particles:   particles,
		Connections: connections,
		Constraint:  constraint,
		grid:        NewGrid(constraint, PlayerRadius*2),
	}
}

// Size returns the current particle count.
func (s *Solver) Size() int { return len(s.Particles) }

// AddParticle appends a single particle and returns its index.
func (s *Solver) AddParticle(p Particle) int {
	idx := len(s.Particles)
	s.Particles = append(s.Particles, p)
	return idx
}

// AddRib appends a single connection and returns its index.
func (s *Solver) AddRib(i, j int, link Link) int {
	idx := len(s.Connections)
	s.Connections = append(s.Connections, Connection{I: i, J: j, Link: link})
	return idx
}

// AddSpring is an alias for AddRib using a Force link, kept distinct to
// mirror the vocabulary of the original gameplay code (springs vs ribs).
func (s *Solver) AddSpring(i, j int, force float32) int {
	return s.AddRib(i, j, Link{Tag: LinkForce, Force: force})
}

// AddModel stamps m into the solver at world position pos, translating
// particles and shifting connection indices past the solver's current
// size.
func (s *Solver) AddModel(m Model, pos Vec2) {
	offset := pos.Sub(m.Center)
	base := len(s.Particles)

	for _, p := range m.Particles {
		s.Particles = append(s.Particles, p.WithPosition(p.Pos.Add(offset)))
	}
	for _, c := range m.Connections {
		s.Connections = append(s.Connections, Connection{I: c.I + base, J: c.J + base, Link: c.Link})
	}
}

// Solve advances the simulation by one sub-step of size dt:
//  1. clear and repopulate the grid,
//  2. resolve collisions (two four-colored groups, sequential fallback),
//  3. resolve connections in insertion order,
//  4. run the special post-sweep (Sticky binds),
//  5. apply gravity, integrate, and project onto the constraint.
//
// Peers invoking Solve on solvers with equal state and equal prior
// handle_packets application produce equal state — this is the
// determinism covenant lock-step networking depends on.
func (s *Solver) Solve(dt float32) {
	s.populateGrid()
	s.resolveCollisions()
	s.resolveConnections()
	s.specialSweep()
	s.integrate(dt)
}

func (s *Solver) populateGrid() {
	s.grid.Clear()
	for i := range s.Particles {
		s.grid.Insert(i, s.Particles[i].Pos)
	}
}

// resolveCollisions partitions interior columns by col%4 into two
// independent groups ({1,2 mod 4}, {3,0 mod 4}) so that within a group no
// two processed columns share a neighbor. The groups are resolved in
// sequence; per spec Design Notes §9 and DESIGN.md §6 this repo takes the
// sequential-fallback option within each group rather than fan out
// across goroutines, since partitioning writes safely across goroutines
// here would require either per-goroutine copies (which would hide
// same-tick neighbor writes from each other, changing the result) or
// unsafe aliasing, both rejected. The column partitioning itself is still
// performed, preserving the deterministic iteration order the covenant
// requires.
func (s *Solver) resolveCollisions() {
	cols := s.grid.Cols()
	rows := s.grid.Rows()

	groupA := make([]int, 0, cols/2+1)
	groupB := make([]int, 0, cols/2+1)
	for col := 1; col < cols-1; col++ {
		switch col % 4 {
		case 1, 2:
			groupA = append(groupA, col)
		default:
			groupB = append(groupB, col)
		}
	}

	resolveGroup := func(group []int) {
		for _, col := range group {
			for row := 1; row < rows-1; row++ {
				s.resolveCell(col, row)
			}
		}
	}
	resolveGroup(groupA)
	resolveGroup(groupB)
}

func (s *Solver) resolveCell(col, row int) {
	cell := s.grid.At(col, row)
	for _, i := range cell.Indices() {
		for dc := -1; dc <= 1; dc++ {
			for dr := -1; dr <= 1; dr++ {
				neighbor := s.grid.At(col+dc, row+dr)
				for _, j := range neighbor.Indices() {
					if i == j {
						continue
					}
					s.resolvePair(i, j)
				}
			}
		}
	}
}

func (s *Solver) resolvePair(i, j int) {
	pa := &s.Particles[i]
	pb := &s.Particles[j]

	if !CanCollide(pa.Kind, pb.Kind) {
		return
	}

	v := pa.Pos.Sub(pb.Pos)
	length := v.Length()
	if length >= pa.Radius+pb.Radius || length < 0.03 {
		return
	}

	overlap := pa.Radius + pb.Radius - length
	v = v.Normalize().Scale(overlap)

	c1 := pb.Mass / (pa.Mass + pb.Mass)
	c2 := 1 - c1
	pa.SetPosition(pa.Pos.Add(v.Scale(c1)), true)
	pb.SetPosition(pb.Pos.Sub(v.Scale(c2)), true)

	s.applyKindEffect(i, j)
	s.applyKindEffect(j, i)
}

// applyKindEffect dispatches self's Kind acting on other.
func (s *Solver) applyKindEffect(self, other int) {
	kind := s.Particles[self].Kind
	switch kind.Tag {
	case KindMotor:
		dir := s.Particles[other].Pos.Sub(s.Particles[self].Pos).Normalize()
		accel := dir.Perp().Scale(kind.MotorAcc)
		s.Particles[other].Accelerate(accel)
		s.Particles[self].Accelerate(accel.Scale(-0.5))

	case KindImpulse:
		if kind.ImpulseBudget <= 0 {
			return
		}
		dir := s.Particles[other].Pos.Sub(s.Particles[self].Pos).Normalize()
		s.Particles[other].SetVelocity(dir.Scale(ImpulseVelocity))
		kind.ImpulseBudget -= ImpulseVelocity
		s.Particles[self].Kind = kind
		c := s.Particles[self].Color
		c[0] *= 0.95
		c[1] *= 0.95
		c[2] *= 0.95
		s.Particles[self].Color = c

	case KindSticky:
		if kind.StickyRemaining > 0 && !kind.StickyHasPending {
			kind.StickyRemaining--
			kind.StickyHasPending = true
			kind.StickyPending = other
			s.Particles[self].Kind = kind
			s.markSpecial(self)
		}

	case KindNone, KindSpike:
		// no effect from self
	}
}

func (s *Solver) markSpecial(idx int) {
	for _, existing := range s.special {
		if existing == idx {
			return
		}
	}
	s.special = append(s.special, idx)
}

// resolveConnections resolves every connection sequentially, in
// insertion order — this order is part of the deterministic contract.
func (s *Solver) resolveConnections() {
	for k := range s.Connections {
		c := &s.Connections[k]
		if c.Link.Inert() {
			continue
		}
		i, j := c.I, c.J
		if i > j {
			i, j = j, i
		}

		switch c.Link.Tag {
		case LinkForce:
			pi := &s.Particles[i]
			pj := &s.Particles[j]
			dir := pj.Pos.Sub(pi.Pos).Normalize()
			f := dir.Scale(c.Link.Force)
			pi.Accelerate(f)
			pj.Accelerate(f.Scale(-1))

		case LinkRigid:
			pi := &s.Particles[i]
			pj := &s.Particles[j]
			diff := pi.Pos.Sub(pj.Pos)
			dist := diff.Length()
			o := (c.Link.Length - dist) / 2
			if dist > 0 {
				axis := diff.Scale(1 / dist)
				pi.SetPosition(pi.Pos.Add(axis.Scale(o)), true)
				pj.SetPosition(pj.Pos.Sub(axis.Scale(o)), true)
			}

			limit := c.Link.Elasticity * c.Link.Length / 100
			absO := float32(math.Abs(float64(o)))
			if limit > 0 && 2*absO > limit {
				c.Link.Durability -= 2*absO/limit - 1
			}
		}
	}
}

// specialSweep dispatches every index recorded in s.special. Currently
// the only kind needing this is Sticky: a pending partner recorded
// during collision becomes a new connection here, later in the same
// Solve call that saw the contact (the grid is not re-populated within a
// tick, so particles appended this tick are first seen by next tick's
// broad phase).
func (s *Solver) specialSweep() {
	for _, idx := range s.special {
		kind := s.Particles[idx].Kind
		if kind.Tag == KindSticky && kind.StickyHasPending {
			partner := kind.StickyPending
			s.AddRib(idx, partner, Link{Tag: LinkRigid, Length: 1, Durability: 1, Elasticity: 5})
			kind.StickyHasPending = false
			s.Particles[idx].Kind = kind
		}
	}
	s.special = s.special[:0]
}

func (s *Solver) integrate(dt float32) {
	for i := range s.Particles {
		p := &s.Particles[i]
		p.ApplyGravity()
		p.Update(dt)
		s.Constraint.Apply(p)
	}
}
