package mapassembly

import (
	"fmt"
	"os"
	"path/filepath"

	"fight-club/internal/solver"
)

// DefaultMap synthesizes a minimal two-team arena for servers that have
// not been pointed at a map directory: a flat ground strip bounded by a
// constraint box, with one spawn per team at opposite ends. It exists
// so `cmd/server` has something to bind to out of the box; any real
// match should ship its own assets/maps/<name>/map.smog instead.
func DefaultMap() Map {
	const (
		width   = 80
		height  = 40
		spacing = 2 * solver.PlayerRadius
	)

	constraint := solver.Constraint{
		BottomLeft: solver.Vec2{X: 0, Y: 0},
		TopRight:   solver.Vec2{X: width, Y: height},
	}

	var particles []solver.Particle
	groundY := float32(2)
	for x := float32(1); x < width-1; x += spacing {
		particles = append(particles, solver.Ground.WithPosition(solver.Vec2{X: x, Y: groundY}))
	}

	spawns := []Spawn{
		{Pos: solver.Vec2{X: 8, Y: groundY + 3}, Team: 0},
		{Pos: solver.Vec2{X: width - 8, Y: groundY + 3}, Team: 1},
	}

	return Map{
		Name:        "default",
		Constraint:  constraint,
		Particles:   particles,
		Connections: nil,
		Spawns:      spawns,
		TexturesNum: 0,
	}
}

// LoadOrCreate reads assets/maps/<name>/map.smog under assetsRoot; if the
// directory or file doesn't exist yet, it synthesizes DefaultMap() (with
// its name overridden to match) and writes it out so later runs and
// connecting clients see a stable on-disk map.
func LoadOrCreate(assetsRoot, name string) (Map, string, error) {
	dir := filepath.Join(assetsRoot, "maps", name)
	mapPath := filepath.Join(dir, "map.smog")

	if data, err := os.ReadFile(mapPath); err == nil {
		m, err := Deserialize(data)
		if err != nil {
			return Map{}, "", fmt.Errorf("mapassembly: decode %s: %w", mapPath, err)
		}
		return m, dir, nil
	}

	m := DefaultMap()
	m.Name = name

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Map{}, "", fmt.Errorf("mapassembly: create %s: %w", dir, err)
	}
	if err := os.WriteFile(mapPath, m.Serialize(), 0o644); err != nil {
		return Map{}, "", fmt.Errorf("mapassembly: write %s: %w", mapPath, err)
	}
	return m, dir, nil
}
