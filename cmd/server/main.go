// Command server runs the lobby-then-game authoritative server: it
// accepts TCP connections, handshakes each into a roster, takes
// operator commands on stdin to reorder players and start the match,
// then relays the ordered packet stream for the rest of the session.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"fight-club/internal/api"
	"fight-club/internal/config"
	"fight-club/internal/logging"
	"fight-club/internal/mapassembly"
	"fight-club/internal/netcore"
	"fight-club/internal/wire"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load() // absence of a .env file is not an error

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}

	zlog, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "server: logger init: %v\n", err)
		os.Exit(1)
	}
	defer zlog.Sync()
	sugar := zlog.Sugar()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: server <addr> [map_name]")
		os.Exit(1)
	}
	addr := os.Args[1]
	mapName := cfg.MapName
	if len(os.Args) >= 3 {
		mapName = os.Args[2]
	}

	mp, mapDir, err := mapassembly.LoadOrCreate("assets", mapName)
	if err != nil {
		sugar.Errorf("load map %s: %v", mapName, err)
		os.Exit(1)
	}

	lobby, err := netcore.NewLobbyServer(addr, mp, mapDir, sugar)
	if err != nil {
		sugar.Errorf("bind %s: %v", addr, err)
		os.Exit(1)
	}
	sugar.Infof("lobby listening on %s (map %q)", lobby.Addr(), mp.Name)

	go lobby.Run()

	os.Exit(runOperatorConsole(lobby, cfg, mp, sugar))
}

// runOperatorConsole reads stdin commands until `start` hands the
// roster to the game phase, or `stop` ends the process cleanly.
func runOperatorConsole(lobby *netcore.LobbyServer, cfg config.Config, mp mapassembly.Map, sugar *zap.SugaredLogger) int {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("commands: swap <i> <j> | teams | start | stop")

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "swap":
			if len(fields) != 3 {
				fmt.Println("usage: swap <i> <j>")
				continue
			}
			i, erri := strconv.Atoi(fields[1])
			j, errj := strconv.Atoi(fields[2])
			if erri != nil || errj != nil {
				fmt.Println("swap: indices must be integers")
				continue
			}
			if err := lobby.Swap(i, j); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("swapped slots %d and %d\n", i, j)

		case "teams":
			for _, t := range lobby.TeamAssignment() {
				fmt.Printf("  #%-3d %-20s team %d\n", t.ID, t.Name, t.Team)
			}

		case "start":
			lobby.Close()
			roster, err := lobby.CloseLobbyAndAnnounce()
			if err != nil {
				sugar.Errorf("start: %v", err)
				continue
			}
			if len(roster) == 0 {
				fmt.Println("start: no players in roster")
				continue
			}
			runGamePhase(roster, cfg, mp, sugar)
			return 0

		case "stop":
			lobby.Close()
			fmt.Println("server stopped")
			return 0

		default:
			fmt.Println("unknown command; try: swap <i> <j> | teams | start | stop")
		}
	}
	return 0
}

// runGamePhase builds the shadow replica, starts the relay server and
// (optionally) the admin HTTP surface, and blocks until `stop`.
func runGamePhase(roster []*netcore.LobbyPlayer, cfg config.Config, mp mapassembly.Map, sugar *zap.SugaredLogger) {
	entries := make([]wire.RosterEntry, len(roster))
	for i, p := range roster {
		entries[i] = wire.RosterEntry{ID: p.ID, Name: p.Name}
	}
	shadowSolver, shadowPlayers := netcore.NewMatch(mp, entries)
	dt := float32(1) / float32(cfg.TickHz*cfg.SubTicks)
	shadow := netcore.NewShadowReplica(shadowSolver, shadowPlayers, dt)
	snapshot := &netcore.SnapshotSource{}

	game := netcore.NewGameServer(roster, cfg.SlotDuration, cfg.SlotsStored, sugar).
		WithShadow(shadow, snapshot)
	game.Start()

	if cfg.AdminAddr != "" {
		admin := api.NewServer(snapshot)
		go func() {
			if err := admin.Start(cfg.AdminAddr); err != nil {
				sugar.Warnf("admin surface stopped: %v", err)
			}
		}()
		defer admin.Stop()
	}

	sugar.Infof("game phase started with %d players", len(roster))

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "stop" {
			break
		}
	}
	game.Stop()
	fmt.Println("match ended")
}
