package mapassembly

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"fight-club/internal/solver"
)

// Spawn is a named (pos, team) anchor where a player's tank is created.
type Spawn struct {
	Pos  solver.Vec2
	Team uint8
}

// Map is the persisted state for one battle arena: its bounding
// constraint, the baked particle/connection arrays, spawn points, and
// a texture manifest count. The map directory additionally holds
// TexturesNum sprite PNGs and an optional background PNG, discovered by
// convention (texture_<i>.png, background.png) alongside map.smog.
type Map struct {
	Name        string
	Constraint  solver.Constraint
	Particles   []solver.Particle
	Connections []solver.Connection
	Spawns      []Spawn
	TexturesNum int
}

// Builder assembles a Map from one or more baked Layers, mirroring the
// original editor's MapBuilder. It takes layers, spawns and a texture
// count only; it has no way to stamp additional models into the map.
type Builder struct {
	name        string
	constraint  solver.Constraint
	layers      []*Layer
	spawns      []Spawn
	texturesNum int
}

// NewBuilder starts a map assembly under the given name and constraint.
func NewBuilder(name string, constraint solver.Constraint) *Builder {
	return &Builder{name: name, constraint: constraint}
}

// AddLayer registers a baked Layer to be flattened into the final map.
func (b *Builder) AddLayer(l *Layer) { b.layers = append(b.layers, l) }

// AddSpawn registers a spawn point.
func (b *Builder) AddSpawn(pos solver.Vec2, team uint8) {
	b.spawns = append(b.spawns, Spawn{Pos: pos, Team: team})
}

// SetTexturesNum records how many texture_<i>.png files this map ships.
func (b *Builder) SetTexturesNum(n int) { b.texturesNum = n }

// Bake flattens every registered layer into one particle/connection
// array and returns the finished Map.
func (b *Builder) Bake() Map {
	var particles []solver.Particle
	var connections []solver.Connection

	for _, layer := range b.layers {
		base := len(particles)
		particles = append(particles, layer.GetParticles()...)
		for _, c := range layer.GetConnections(10, 5) {
			connections = append(connections, solver.Connection{I: c.I + base, J: c.J + base, Link: c.Link})
		}
	}

	return Map{
		Name:        b.name,
		Constraint:  b.constraint,
		Particles:   particles,
		Connections: connections,
		Spawns:      b.spawns,
		TexturesNum: b.texturesNum,
	}
}

// Solver constructs a fresh Solver seeded from this map's particles and
// connections.
func (m Map) Solver() *solver.Solver {
	particles := make([]solver.Particle, len(m.Particles))
	copy(particles, m.Particles)
	connections := make([]solver.Connection, len(m.Connections))
	copy(connections, m.Connections)
	return solver.NewSolver(m.Constraint, particles, connections)
}

// Serialize encodes the map to its compact binary on-disk form
// (map.smog): name, constraint, particle array, connection array, spawn
// array, texture count — each a length-prefixed fixed-field record.
func (m Map) Serialize() []byte {
	var buf bytes.Buffer

	writeString(&buf, m.Name)
	writeF32(&buf, m.Constraint.BottomLeft.X)
	writeF32(&buf, m.Constraint.BottomLeft.Y)
	writeF32(&buf, m.Constraint.TopRight.X)
	writeF32(&buf, m.Constraint.TopRight.Y)

	binary.Write(&buf, binary.BigEndian, uint32(len(m.Particles)))
	for _, p := range m.Particles {
		writeParticle(&buf, p)
	}

	binary.Write(&buf, binary.BigEndian, uint32(len(m.Connections)))
	for _, c := range m.Connections {
		writeConnection(&buf, c)
	}

	binary.Write(&buf, binary.BigEndian, uint32(len(m.Spawns)))
	for _, s := range m.Spawns {
		writeF32(&buf, s.Pos.X)
		writeF32(&buf, s.Pos.Y)
		buf.WriteByte(s.Team)
	}

	binary.Write(&buf, binary.BigEndian, uint32(m.TexturesNum))

	return buf.Bytes()
}

// Deserialize parses the on-disk form produced by Serialize.
func Deserialize(data []byte) (Map, error) {
	r := bytes.NewReader(data)
	var m Map

	name, err := readString(r)
	if err != nil {
		return Map{}, fmt.Errorf("mapassembly: read name: %w", err)
	}
	m.Name = name

	bl := solver.Vec2{X: readF32(r), Y: readF32(r)}
	tr := solver.Vec2{X: readF32(r), Y: readF32(r)}
	m.Constraint = solver.Constraint{BottomLeft: bl, TopRight: tr}

	var particleCount uint32
	if err := binary.Read(r, binary.BigEndian, &particleCount); err != nil {
		return Map{}, fmt.Errorf("mapassembly: read particle count: %w", err)
	}
	m.Particles = make([]solver.Particle, particleCount)
	for i := range m.Particles {
		m.Particles[i] = readParticle(r)
	}

	var connCount uint32
	if err := binary.Read(r, binary.BigEndian, &connCount); err != nil {
		return Map{}, fmt.Errorf("mapassembly: read connection count: %w", err)
	}
	m.Connections = make([]solver.Connection, connCount)
	for i := range m.Connections {
		m.Connections[i] = readConnection(r)
	}

	var spawnCount uint32
	if err := binary.Read(r, binary.BigEndian, &spawnCount); err != nil {
		return Map{}, fmt.Errorf("mapassembly: read spawn count: %w", err)
	}
	m.Spawns = make([]Spawn, spawnCount)
	for i := range m.Spawns {
		x, y := readF32(r), readF32(r)
		team, _ := r.ReadByte()
		m.Spawns[i] = Spawn{Pos: solver.Vec2{X: x, Y: y}, Team: team}
	}

	var texturesNum uint32
	if err := binary.Read(r, binary.BigEndian, &texturesNum); err != nil {
		return Map{}, fmt.Errorf("mapassembly: read texture count: %w", err)
	}
	m.TexturesNum = int(texturesNum)

	return m, nil
}

func writeF32(buf *bytes.Buffer, v float32) {
	binary.Write(buf, binary.BigEndian, math.Float32bits(v))
}

func readF32(r *bytes.Reader) float32 {
	var bits uint32
	binary.Read(r, binary.BigEndian, &bits)
	return math.Float32frombits(bits)
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint32(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	b := make([]byte, length)
	if _, err := r.Read(b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeParticle(buf *bytes.Buffer, p solver.Particle) {
	writeF32(buf, p.Radius)
	writeF32(buf, p.Mass)
	writeF32(buf, p.Pos.X)
	writeF32(buf, p.Pos.Y)
	writeF32(buf, p.PosOld.X)
	writeF32(buf, p.PosOld.Y)
	binary.Write(buf, binary.BigEndian, p.Texture)
	buf.WriteByte(byte(p.Kind.Tag))
	writeF32(buf, p.Kind.MotorAcc)
	writeF32(buf, p.Kind.ImpulseBudget)
	buf.WriteByte(p.Kind.StickyRemaining)
	for _, c := range p.Color {
		writeF32(buf, c)
	}
}

func readParticle(r *bytes.Reader) solver.Particle {
	var p solver.Particle
	p.Radius = readF32(r)
	p.Mass = readF32(r)
	p.Pos = solver.Vec2{X: readF32(r), Y: readF32(r)}
	p.PosOld = solver.Vec2{X: readF32(r), Y: readF32(r)}
	binary.Read(r, binary.BigEndian, &p.Texture)
	tag, _ := r.ReadByte()
	p.Kind.Tag = solver.KindTag(tag)
	p.Kind.MotorAcc = readF32(r)
	p.Kind.ImpulseBudget = readF32(r)
	p.Kind.StickyRemaining, _ = r.ReadByte()
	for i := range p.Color {
		p.Color[i] = readF32(r)
	}
	return p
}

func writeConnection(buf *bytes.Buffer, c solver.Connection) {
	binary.Write(buf, binary.BigEndian, uint32(c.I))
	binary.Write(buf, binary.BigEndian, uint32(c.J))
	buf.WriteByte(byte(c.Link.Tag))
	writeF32(buf, c.Link.Force)
	writeF32(buf, c.Link.Length)
	writeF32(buf, c.Link.Durability)
	writeF32(buf, c.Link.Elasticity)
}

func readConnection(r *bytes.Reader) solver.Connection {
	var i, j uint32
	binary.Read(r, binary.BigEndian, &i)
	binary.Read(r, binary.BigEndian, &j)
	tag, _ := r.ReadByte()
	link := solver.Link{Tag: solver.LinkTag(tag)}
	link.Force = readF32(r)
	link.Length = readF32(r)
	link.Durability = readF32(r)
	link.Elasticity = readF32(r)
	return solver.Connection{I: int(i), J: int(j), Link: link}
}
