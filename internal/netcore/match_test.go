package netcore

import (
	"testing"

	"fight-club/internal/mapassembly"
	"fight-club/internal/wire"
)

func TestNewMatchAssignsSpawnsRoundRobin(t *testing.T) {
	mp := mapassembly.DefaultMap()
	roster := []wire.RosterEntry{{ID: 0, Name: "a"}, {ID: 1, Name: "b"}, {ID: 2, Name: "c"}}

	_, players := NewMatch(mp, roster)
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}
	for i, p := range players {
		want := mp.Spawns[i%len(mp.Spawns)].Team
		if p.Team != want {
			t.Fatalf("player %d: expected team %d (spawn %d), got %d", i, want, i%len(mp.Spawns), p.Team)
		}
	}
}

// Two independent replicas fed the exact same ordered bucket stream must
// reach identical state: this is the deterministic-replay guarantee the
// whole lock-step design rests on.
func TestLockStepReplayConverges(t *testing.T) {
	mp := mapassembly.DefaultMap()
	roster := []wire.RosterEntry{{ID: 0, Name: "a"}, {ID: 1, Name: "b"}}

	sA, playersA := NewMatch(mp, roster)
	sB, playersB := NewMatch(mp, roster)
	replicaA := NewShadowReplica(sA, playersA, 1.0/64)
	replicaB := NewShadowReplica(sB, playersB, 1.0/64)

	buckets := [][]wire.IndexedPacket{
		{{ID: 0, Contents: wire.GamePacket{Tag: wire.TagThrust, Left: 0.2, Right: 0.1}}},
		{{ID: 1, Contents: wire.GamePacket{Tag: wire.TagMuzzle, X: 5, Y: 1}}},
		{{ID: 0, Contents: wire.GamePacket{Tag: wire.TagFire, Bullet: 0}}},
		nil,
		{{ID: 1, Contents: wire.GamePacket{Tag: wire.TagDash, Coeff: 1}}},
	}

	for _, bucket := range buckets {
		replicaA.Apply(bucket)
		replicaB.Apply(bucket)
	}

	snapA := replicaA.Snapshot()
	snapB := replicaB.Snapshot()

	if len(snapA.Particles) != len(snapB.Particles) {
		t.Fatalf("particle counts diverged: %d vs %d", len(snapA.Particles), len(snapB.Particles))
	}
	for i := range snapA.Particles {
		a, b := snapA.Particles[i], snapB.Particles[i]
		if a.X != b.X || a.Y != b.Y {
			t.Fatalf("particle %d diverged: (%v,%v) vs (%v,%v)", i, a.X, a.Y, b.X, b.Y)
		}
	}
	for i := range snapA.Players {
		if snapA.Players[i].Alive != snapB.Players[i].Alive {
			t.Fatalf("player %d alive-state diverged", i)
		}
	}
}
