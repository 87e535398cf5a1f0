package mapassembly

import (
	"reflect"
	"testing"

	"fight-club/internal/solver"
)

func TestMapSerializeRoundTrip(t *testing.T) {
	m := Map{
		Name:       "default",
		Constraint: solver.Constraint{BottomLeft: solver.Vec2{X: -10, Y: -10}, TopRight: solver.Vec2{X: 10, Y: 10}},
		Particles: []solver.Particle{
			solver.Ground.WithPosition(solver.Vec2{X: 1, Y: 2}),
			solver.Metal.WithPosition(solver.Vec2{X: 3, Y: 4}),
		},
		Connections: []solver.Connection{
			{I: 0, J: 1, Link: solver.Link{Tag: solver.LinkRigid, Length: 1, Durability: 10, Elasticity: 20}},
		},
		Spawns:      []Spawn{{Pos: solver.Vec2{X: 5, Y: 6}, Team: 1}},
		TexturesNum: 3,
	}

	bytes := m.Serialize()
	got, err := Deserialize(bytes)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	if got.Name != m.Name || got.TexturesNum != m.TexturesNum {
		t.Fatalf("scalar fields mismatch: got %+v want %+v", got, m)
	}
	if !reflect.DeepEqual(got.Constraint, m.Constraint) {
		t.Fatalf("constraint mismatch: got %+v want %+v", got.Constraint, m.Constraint)
	}
	if !reflect.DeepEqual(got.Particles, m.Particles) {
		t.Fatalf("particles mismatch: got %+v want %+v", got.Particles, m.Particles)
	}
	if !reflect.DeepEqual(got.Connections, m.Connections) {
		t.Fatalf("connections mismatch: got %+v want %+v", got.Connections, m.Connections)
	}
	if !reflect.DeepEqual(got.Spawns, m.Spawns) {
		t.Fatalf("spawns mismatch: got %+v want %+v", got.Spawns, m.Spawns)
	}
}

func TestLayerConnectionsSkipEmptyCells(t *testing.T) {
	layer := NewLayer(3, 1, solver.Vec2{})
	p := solver.Ground.WithPosition(solver.Vec2{X: 0, Y: 0})
	layer.cells[0] = &p
	p2 := solver.Ground.WithPosition(solver.Vec2{X: 1, Y: 0})
	layer.cells[2] = &p2 // cell 1 (between them) stays empty, so they are not adjacent

	conns := layer.GetConnections(10, 5)
	if len(conns) != 0 {
		t.Fatalf("expected no connections across a gap left by an empty cell, got %+v", conns)
	}
}

func TestLayerConnectionsLinkAdjacentCells(t *testing.T) {
	layer := NewLayer(2, 1, solver.Vec2{})
	p := solver.Ground.WithPosition(solver.Vec2{X: 0, Y: 0})
	layer.cells[0] = &p
	p2 := solver.Ground.WithPosition(solver.Vec2{X: 1, Y: 0})
	layer.cells[1] = &p2

	conns := layer.GetConnections(10, 5)
	if len(conns) != 1 {
		t.Fatalf("expected exactly one connection between adjacent cells, got %d", len(conns))
	}
}
