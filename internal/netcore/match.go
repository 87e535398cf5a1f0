package netcore

import (
	"fight-club/internal/mapassembly"
	"fight-club/internal/solver"
	"fight-club/internal/wire"
)

// NewMatch builds the authoritative solver for one game session: it
// bakes mp into a fresh Solver, then stamps one tank per roster slot at
// the spawn the slot round-robins onto, assigning that spawn's team.
// Slot order is exactly the order the server announced in SetPlayers,
// which is itself exactly the LobbyServer roster order — so the `swap`
// stdin command is how an operator controls team placement, and every
// peer (server shadow replica and every client) stamps tanks identically.
func NewMatch(mp mapassembly.Map, roster []wire.RosterEntry) (*solver.Solver, []*Player) {
	s := mp.Solver()

	players := make([]*Player, len(roster))
	for i, member := range roster {
		spawn := mapassembly.Spawn{}
		if len(mp.Spawns) > 0 {
			spawn = mp.Spawns[i%len(mp.Spawns)]
		}

		raw := solver.BuildTank()
		model := PlaceTank(raw, spawn.Pos, s)

		players[i] = &Player{
			ID:         member.ID,
			Team:       spawn.Team,
			Name:       member.Name,
			Model:      model,
			Projectile: 0,
		}
	}

	return s, players
}
