// Command client connects to a server, performs the lobby handshake,
// and runs the deterministic replica loop headlessly: input is taken
// from stdin as simple verb commands, since the render pipeline this
// core drives is out of scope here.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"fight-club/internal/config"
	"fight-club/internal/logging"
	"fight-club/internal/netcore"
	"fight-club/internal/wire"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "client: %v\n", err)
		os.Exit(1)
	}

	zlog, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "client: logger init: %v\n", err)
		os.Exit(1)
	}
	defer zlog.Sync()
	sugar := zlog.Sugar()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: client <addr> [nick]")
		os.Exit(1)
	}
	addr := os.Args[1]
	nick := "player"
	if len(os.Args) >= 3 {
		nick = os.Args[2]
	}

	sess, err := netcore.Handshake(addr, nick, "assets")
	if err != nil {
		sugar.Errorf("connect %s: %v", addr, err)
		os.Exit(1)
	}
	sugar.Infof("joined as id %d on map %q with %d players", sess.ID, sess.MapName, len(sess.Roster))

	loop := netcore.NewGameLoop(sess, cfg.TickHz, cfg.SubTicks, cfg.SendQueueCapacity, sugar)

	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	fmt.Println("commands: motor <index> <acc> | muzzle <x> <y> | fire <bullet> | thrust <left> <right> | dash <coeff> | reset | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		pkt, ok := parseCommand(fields)
		if !ok {
			if fields[0] == "quit" {
				break
			}
			fmt.Println("unrecognized command")
			continue
		}
		loop.Send(pkt)
	}

	loop.Stop()
	<-done

	if team, ok := loop.Winner(); ok {
		fmt.Printf("team %d wins\n", team)
	}
}

func parseCommand(fields []string) (wire.GamePacket, bool) {
	switch fields[0] {
	case "motor":
		if len(fields) != 3 {
			return wire.GamePacket{}, false
		}
		idx, err1 := strconv.Atoi(fields[1])
		acc, err2 := strconv.ParseFloat(fields[2], 32)
		if err1 != nil || err2 != nil {
			return wire.GamePacket{}, false
		}
		return wire.GamePacket{Tag: wire.TagMotor, Index: uint32(idx), Acc: float32(acc)}, true

	case "muzzle":
		if len(fields) != 3 {
			return wire.GamePacket{}, false
		}
		x, err1 := strconv.ParseFloat(fields[1], 32)
		y, err2 := strconv.ParseFloat(fields[2], 32)
		if err1 != nil || err2 != nil {
			return wire.GamePacket{}, false
		}
		return wire.GamePacket{Tag: wire.TagMuzzle, X: float32(x), Y: float32(y)}, true

	case "fire":
		if len(fields) != 2 {
			return wire.GamePacket{}, false
		}
		bullet, err := strconv.Atoi(fields[1])
		if err != nil {
			return wire.GamePacket{}, false
		}
		return wire.GamePacket{Tag: wire.TagFire, Bullet: uint8(bullet)}, true

	case "thrust":
		if len(fields) != 3 {
			return wire.GamePacket{}, false
		}
		left, err1 := strconv.ParseFloat(fields[1], 32)
		right, err2 := strconv.ParseFloat(fields[2], 32)
		if err1 != nil || err2 != nil {
			return wire.GamePacket{}, false
		}
		return wire.GamePacket{Tag: wire.TagThrust, Left: float32(left), Right: float32(right)}, true

	case "dash":
		if len(fields) != 2 {
			return wire.GamePacket{}, false
		}
		coeff, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			return wire.GamePacket{}, false
		}
		return wire.GamePacket{Tag: wire.TagDash, Coeff: float32(coeff)}, true

	case "reset":
		return wire.GamePacket{Tag: wire.TagResetMuzzle}, true

	default:
		return wire.GamePacket{}, false
	}
}
