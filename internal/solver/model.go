package solver

// Hex lattice basis vectors used by triangular particle packing (map
// assembly) and by procedurally built prefabs such as the tank tread.
var (
	ShiftX = Vec2{1, 0}
	ShiftY = Vec2{0.5, 0.86602540378443864676372317075294}
)

// Model is a detachable prefab: a cluster of particles and connections
// (indices local to the model) plus a center anchor point. Stamping a
// model into a solver translates its particles so Center lands at the
// requested world position and offsets its connection indices by the
// solver's current size.
type Model struct {
	Center      Vec2
	Particles   []Particle
	Connections []Connection
}

// Combine appends rhs onto m, translating rhs's particles by the offset
// between the two centers and shifting rhs's connection indices past m's
// existing particles. Mirrors the original's additive Model composition.
func (m Model) Combine(rhs Model) Model {
	offset := m.Center.Sub(rhs.Center)
	base := len(m.Particles)

	for _, p := range rhs.Particles {
		m.Particles = append(m.Particles, p.WithPosition(p.Pos.Add(offset)))
	}
	for _, c := range rhs.Connections {
		m.Connections = append(m.Connections, Connection{
			I:    c.I + base,
			J:    c.J + base,
			Link: c.Link,
		})
	}
	return m
}

// hexPoint places a particle at hex-lattice coordinates (x, y) relative
// to offset, using the ShiftX/ShiftY basis.
func hexPoint(x, y float32, offset Vec2) Vec2 {
	return ShiftX.Scale(x).Add(ShiftY.Scale(y)).Add(offset)
}
