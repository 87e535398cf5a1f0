package mapassembly

import (
	"path/filepath"
	"testing"
)

func TestDefaultMapHasTwoOpposingSpawns(t *testing.T) {
	mp := DefaultMap()

	if len(mp.Spawns) != 2 {
		t.Fatalf("expected 2 spawns, got %d", len(mp.Spawns))
	}
	if mp.Spawns[0].Team == mp.Spawns[1].Team {
		t.Fatalf("expected opposing teams, got %d and %d", mp.Spawns[0].Team, mp.Spawns[1].Team)
	}
	if len(mp.Particles) == 0 {
		t.Fatalf("expected a non-empty ground strip")
	}
}

func TestDefaultMapSerializeRoundTrips(t *testing.T) {
	mp := DefaultMap()

	decoded, err := Deserialize(mp.Serialize())
	if err != nil {
		t.Fatalf("Deserialize(Serialize(DefaultMap())): %v", err)
	}
	if decoded.Name != mp.Name {
		t.Fatalf("name mismatch: %q vs %q", decoded.Name, mp.Name)
	}
	if len(decoded.Particles) != len(mp.Particles) {
		t.Fatalf("particle count mismatch: %d vs %d", len(decoded.Particles), len(mp.Particles))
	}
	if len(decoded.Spawns) != len(mp.Spawns) {
		t.Fatalf("spawn count mismatch: %d vs %d", len(decoded.Spawns), len(mp.Spawns))
	}
}

func TestLoadOrCreateWritesThenReusesMap(t *testing.T) {
	root := t.TempDir()

	created, dir, err := LoadOrCreate(root, "testmap")
	if err != nil {
		t.Fatalf("LoadOrCreate (create path): %v", err)
	}
	if created.Name != "testmap" {
		t.Fatalf("expected created map name to be overridden to %q, got %q", "testmap", created.Name)
	}
	if dir != filepath.Join(root, "maps", "testmap") {
		t.Fatalf("unexpected map dir: %s", dir)
	}

	loaded, _, err := LoadOrCreate(root, "testmap")
	if err != nil {
		t.Fatalf("LoadOrCreate (load path): %v", err)
	}
	if loaded.Name != created.Name || len(loaded.Particles) != len(created.Particles) {
		t.Fatalf("loaded map does not match the one just created: %+v vs %+v", loaded, created)
	}
}
