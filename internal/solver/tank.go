package solver

// Tank tuning constants, grounded on the original tank prefab's
// hand-authored values.
const (
	TankHP         float32 = 7
	TankElasticity float32 = 10

	MuzzleElasticity float32 = 100

	TreadElasticity float32 = 30
	TreadHP         float32 = 3

	BaseHP         float32 = 4
	BaseElasticity float32 = 30

	PistolHP         float32 = 7
	PistolElasticity float32 = 20
)

// RawPlayerModel is the output of BuildTank: a self-contained particle
// cluster with named indices local to the model, not yet stamped into a
// solver.
type RawPlayerModel struct {
	Particles   []Particle
	Connections []Connection

	LeftMotors  []int
	RightMotors []int
	Pistols     []int

	Center           int
	Muzzle           int
	CenterConnection int
}

func vecAt(x, y float32) Vec2 { return Vec2{x, y} }

// BuildTank assembles the tank topology: a hull polygon with left/center/
// right base anchors, a muzzle arm, a pair of pistol Rigid links from
// each base to the muzzle tip, a center Rigid connection used as the
// tank's hit-point link, a motor hex-cluster driving left/right treads,
// and a spiked tread chain wrapped around the hull. This is a hand-
// written equivalent of the editor-only model-construction DSL's
// expansion — the DSL itself is out of scope, the resulting shape is not.
func BuildTank() RawPlayerModel {
	baseLink := Link{Tag: LinkRigid, Length: 1, Durability: BaseHP, Elasticity: BaseElasticity}

	var particles []Particle
	var connections []Connection

	add := func(p Particle, pos Vec2) int {
		idx := len(particles)
		particles = append(particles, p.WithPosition(pos))
		return idx
	}
	link := func(i, j int, l Link) {
		length := particles[i].Pos.Sub(particles[j].Pos).Length()
		connections = append(connections, Connection{I: i, J: j, Link: l.WithLength(length)})
	}

	hull := Metal.WithColor([4]float32{0.5, 0.8, 0, 1})

	leftBase := add(hull, vecAt(-4, 0))
	h1 := add(hull, vecAt(-3, -0.5))
	h2 := add(hull, vecAt(-3, 0.5))
	h3 := add(hull, vecAt(-2, 0))
	h4 := add(hull, vecAt(-1, -0.5))
	h5 := add(hull, vecAt(-1, 0.5))
	h6 := add(hull, vecAt(0, 0))
	centerBase := add(hull, vecAt(0, 1))
	h8 := add(hull, vecAt(1, -0.5))
	h9 := add(hull, vecAt(1, 0.5))
	h10 := add(hull, vecAt(2, 0))
	h11 := add(hull, vecAt(3, -0.5))
	h12 := add(hull, vecAt(3, 0.5))
	rightBase := add(hull, vecAt(4, 0))

	link(leftBase, h1, baseLink)
	link(leftBase, h2, baseLink)
	link(h1, h3, baseLink)
	link(h2, h3, baseLink)
	link(h3, h4, baseLink)
	link(h3, h5, baseLink)
	link(h4, h6, baseLink)
	link(h4, centerBase, baseLink)
	link(h5, h6, baseLink)
	link(h5, centerBase, baseLink)
	link(h6, h8, baseLink)
	link(h6, h9, baseLink)
	link(centerBase, h8, baseLink)
	link(centerBase, h9, baseLink)
	link(h8, h10, baseLink)
	link(h9, h10, baseLink)
	link(h10, h11, baseLink)
	link(h10, h12, baseLink)
	link(h11, rightBase, baseLink)
	link(h12, rightBase, baseLink)
	link(leftBase, rightBase, baseLink)

	muzzleHull := Metal.WithColor([4]float32{0.25, 0.4, 0, 1})
	muzzleLink := baseLink.WithElasticity(MuzzleElasticity)

	main := add(muzzleHull, vecAt(0, 2))
	m1 := add(muzzleHull, vecAt(0, 3))
	m2 := add(muzzleHull, vecAt(0, 4))
	m3 := add(muzzleHull, vecAt(0, 5))
	m4 := add(muzzleHull, vecAt(0, 6))
	m5 := add(muzzleHull, vecAt(0, 7))
	muzzleEnd := add(muzzleHull, vecAt(0, 8))

	link(main, m1, muzzleLink)
	link(m1, m2, muzzleLink)
	link(m2, m3, muzzleLink)
	link(m3, m4, muzzleLink)
	link(m4, m5, muzzleLink)
	link(m5, muzzleEnd, muzzleLink)

	pistolLink := baseLink.withDurabilityElasticity(PistolHP, PistolElasticity)
	link(leftBase, main, pistolLink)
	link(rightBase, main, pistolLink)
	pistol1 := len(connections)
	link(leftBase, muzzleEnd, pistolLink)
	pistol2 := len(connections)
	link(rightBase, muzzleEnd, pistolLink)

	hpLink := baseLink.withDurabilityElasticity(TankHP, TankElasticity)
	centerConnection := len(connections)
	link(centerBase, main, hpLink)

	motor := Motor.WithColor([4]float32{0.25, 0.25, 0.25, 1})
	motorOffset := Vec2{0, -3}
	mp := func(x, y float32) int { return add(motor, hexPoint(x, y, motorOffset)) }

	l0 := mp(-7.5, 2)
	l1 := mp(-5.5, 0)
	l2 := mp(-2, 0)
	l3 := mp(2, 0)
	l4 := mp(5.5, 0)
	l5 := mp(5.5, 2)
	r0 := mp(-5.5, 2)
	r1 := mp(-1, 2)
	r2 := mp(3.5, 2)

	link(l0, l1, baseLink)
	link(l1, l2, baseLink)
	link(l2, l3, baseLink)
	link(l3, l4, baseLink)
	link(l4, l5, baseLink)
	link(l0, l5, baseLink)
	link(l1, l4, baseLink)
	link(l0, l4, baseLink)
	link(l0, r0, baseLink)
	link(l1, r0, baseLink)
	link(l4, r2, baseLink)
	link(l5, r2, baseLink)
	link(l2, r1, baseLink)
	link(l3, r1, baseLink)
	link(leftBase, l0, baseLink)
	link(leftBase, l1, baseLink)
	link(centerBase, l2, baseLink)
	link(centerBase, l3, baseLink)
	link(rightBase, l4, baseLink)
	link(rightBase, l5, baseLink)

	raw := RawPlayerModel{
		Particles:        particles,
		Connections:      connections,
		LeftMotors:       []int{l0, l1, l2, l3, l4, l5},
		RightMotors:      []int{r0, r1, r2},
		Pistols:          []int{pistol1, pistol2},
		Center:           main,
		Muzzle:           muzzleEnd,
		CenterConnection: centerConnection,
	}

	tread := buildTread()
	base := len(raw.Particles)
	raw.Particles = append(raw.Particles, tread.Particles...)
	for _, c := range tread.Connections {
		raw.Connections = append(raw.Connections, Connection{I: c.I + base, J: c.J + base, Link: c.Link})
	}

	return raw
}

func (l Link) withDurabilityElasticity(d, e float32) Link {
	l.Durability = d
	l.Elasticity = e
	return l
}

type chainDirection int

const (
	dirR chainDirection = iota
	dirUR
	dirUL
	dirL
	dirDL
	dirDR
)

func (d chainDirection) vector() Vec2 {
	switch d {
	case dirR:
		return ShiftX
	case dirUR:
		return ShiftY
	case dirUL:
		return ShiftX.Scale(-1).Add(ShiftY)
	case dirL:
		return ShiftX.Scale(-1)
	case dirDL:
		return ShiftY.Scale(-1)
	case dirDR:
		return ShiftX.Sub(ShiftY)
	}
	return Vec2{}
}

type chainStep struct {
	dir   chainDirection
	count int
}

// chainedParticles is the Go equivalent of chain_model!: it walks a hex
// lattice in the given directions, placing one particle per step and
// wiring consecutive particles with mainLink, while every adjStep-th
// particle additionally gets an adjacent particle (perpendicular to the
// direction of travel) connected with adjLink. The chain closes on
// itself: the last particle links back to the first.
func chainedParticles(p Particle, mainLink Link, adjStep int, adjParticle Particle, adjLink Link, start Vec2, steps []chainStep) Model {
	var particles []Particle
	var connections []Connection

	total := 0
	lastPos := start
	lastInd := -1
	firstInd := -1

	for _, step := range steps {
		dir := step.dir.vector()
		for i := 0; i < step.count; i++ {
			ind := len(particles)
			particles = append(particles, p.WithPosition(lastPos))
			if firstInd == -1 {
				firstInd = ind
			}

			if total%adjStep == 0 {
				offset := p.Radius + adjParticle.Radius
				perp := dir.Perp()
				adjPos := lastPos.Sub(perp.Scale(offset))
				adjInd := len(particles)
				particles = append(particles, adjParticle.WithPosition(adjPos))
				connections = append(connections, Connection{
					I: ind, J: adjInd, Link: adjLink.WithLength(offset),
				})
			}

			lastPos = lastPos.Add(dir)
			if lastInd >= 0 {
				connections = append(connections, Connection{
					I: lastInd, J: ind, Link: mainLink.WithLength(1),
				})
			}
			lastInd = ind
			total++
		}
	}

	if lastInd > 0 {
		connections = append(connections, Connection{I: lastInd, J: firstInd, Link: mainLink.WithLength(1)})
	}

	return Model{Particles: particles, Connections: connections}
}

// buildTread assembles the spiked tread loop wrapped around the tank
// hull. Indices are local to the returned model; BuildTank offsets them
// when splicing the tread onto the hull.
func buildTread() Model {
	mainLink := Link{Tag: LinkRigid}.withDurabilityElasticity(TreadHP, TreadElasticity)
	spikeLink := Link{Tag: LinkRigid}.withDurabilityElasticity(TreadHP, 100)

	start := Vec2{-6, -3 - ShiftY.Y}
	steps := []chainStep{
		{dirR, 12}, {dirUR, 3}, {dirUL, 1}, {dirL, 1}, {dirDL, 2},
		{dirL, 10}, {dirUL, 2}, {dirL, 1}, {dirDL, 1}, {dirDR, 3},
	}

	return chainedParticles(Metal, mainLink, 2, Spike, spikeLink, start, steps)
}

// ToModel converts the raw tank into a Model suitable for AddModel,
// using the tank's main particle as the stamping anchor.
func (r RawPlayerModel) ToModel() Model {
	return Model{
		Center:      r.Particles[r.Center].Pos,
		Particles:   r.Particles,
		Connections: r.Connections,
	}
}
