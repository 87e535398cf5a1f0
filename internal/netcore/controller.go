package netcore

import (
	"math"

	"fight-club/internal/solver"
	"fight-club/internal/wire"
)

// SubTicks is the number of physics sub-steps per rendered frame.
const SubTicks = 8

// TankHP mirrors solver.TankHP; kept local for the HP-color formula so
// this file reads standalone.
const TankHP = solver.TankHP

// Projectile table: tag -> (force, particle preset, reload ticks).
var projectileTable = map[uint8]struct {
	force       float32
	particle    solver.Particle
	reloadTicks int
}{
	0: {0.6, solver.ProjectileHeavy, 400},
	1: {0.25, solver.ProjectileImpulse, 1500},
	2: {0.1, stickyProjectile(), 16},
}

func stickyProjectile() solver.Particle {
	p := solver.NullParticle()
	p.Mass = 2
	p.Kind = solver.Kind{Tag: solver.KindSticky, StickyRemaining: 1}
	return p
}

const (
	maxAimDeltaRad = 0.04
	muzzleLength   = 6.0
	aimUpDotFloor  = -0.1

	// bulletSpawnOffset clears the newly spawned projectile past the
	// muzzle tip so it doesn't immediately collide with its own tank.
	bulletSpawnOffset = 10.0

	// dashReloadTicks is the cooldown applied after a successful dash.
	dashReloadTicks = 4800
)

// Controller is the authoritative rule layer living beside a Solver on
// every peer. It owns the local tick counter, the local player, and the
// full roster, and translates GamePackets into solver mutations.
type Controller struct {
	Tick    uint64
	Players []*Player
	byID    map[uint8]*Player
}

// NewController builds a controller over the given roster.
func NewController(players []*Player) *Controller {
	c := &Controller{Players: players, byID: make(map[uint8]*Player, len(players))}
	for _, p := range players {
		c.byID[p.ID] = p
	}
	return c
}

func (c *Controller) playerFor(id uint8) (*Player, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// HandlePackets advances the tick counter, refreshes HP color indicators,
// applies continuous per-player effects every 8 ticks, then dispatches
// every packet in the bucket.
func (c *Controller) HandlePackets(s *solver.Solver, bucket []wire.IndexedPacket) {
	c.Tick++
	c.refreshHPColors(s)
	c.updateTimers()

	if c.Tick%SubTicks == 0 {
		for _, p := range c.Players {
			c.applyContinuousEffects(s, p)
		}
	}

	for _, ip := range bucket {
		player, ok := c.playerFor(ip.ID)
		if !ok || !player.Alive(s) {
			continue
		}
		c.handlePacket(s, player, ip.Contents)
	}
}

// refreshHPColors interpolates each player's center particle color from
// green to red as their tank's hit-point connection durability falls
// from TankHP to zero.
func (c *Controller) refreshHPColors(s *solver.Solver) {
	for _, p := range c.Players {
		durability := s.Connections[p.Model.CenterConnection].Link.Durability
		frac := float32(durability) / TankHP
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		s.Particles[p.Model.Center].Color = hpColor(frac)
	}
}

// updateTimers ticks every player's reload/dash cooldowns down toward
// zero, once per HandlePackets call so every peer decrements them on the
// same schedule.
func (c *Controller) updateTimers() {
	for _, p := range c.Players {
		if p.ReloadTimer > 0 {
			p.ReloadTimer--
		}
		if p.DashTimer > 0 {
			p.DashTimer--
		}
	}
}

// hpColor maps frac in [0,1] to a green(1)->red(0) HSL-style interpolation,
// hue sweeping 120deg (green) down to 0deg (red).
func hpColor(frac float32) [4]float32 {
	hue := 120 * frac
	r, g, b := hslToRGB(hue, 0.8, 0.5)
	return [4]float32{r, g, b, 1}
}

func hslToRGB(h, s, l float32) (float32, float32, float32) {
	c := (1 - abs32(2*l-1)) * s
	hp := h / 60
	x := c * (1 - abs32(float32(math.Mod(float64(hp), 2))-1))

	var r1, g1, b1 float32
	switch {
	case hp < 1:
		r1, g1, b1 = c, x, 0
	case hp < 2:
		r1, g1, b1 = x, c, 0
	case hp < 3:
		r1, g1, b1 = 0, c, x
	case hp < 4:
		r1, g1, b1 = 0, x, c
	case hp < 5:
		r1, g1, b1 = x, 0, c
	default:
		r1, g1, b1 = c, 0, x
	}
	m := l - c/2
	return r1 + m, g1 + m, b1 + m
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// applyContinuousEffects applies thrust to the outermost motor particles
// and clamps aim toward the recorded target, run once every SubTicks.
func (c *Controller) applyContinuousEffects(s *solver.Solver, p *Player) {
	if len(p.Model.LeftMotors) > 0 {
		outer := p.Model.LeftMotors[len(p.Model.LeftMotors)-1]
		s.Particles[outer].Kind.MotorAcc = p.ThrustLeft
	}
	if len(p.Model.RightMotors) > 0 {
		outer := p.Model.RightMotors[len(p.Model.RightMotors)-1]
		s.Particles[outer].Kind.MotorAcc = p.ThrustRight
	}

	if !p.HasAim {
		return
	}

	muzzleBase := s.Particles[p.Model.Center].Pos
	current := s.Particles[p.Model.Muzzle].Pos.Sub(muzzleBase)
	target := p.Aim.Sub(muzzleBase).Normalize()

	currentAngle := math.Atan2(float64(current.Y), float64(current.X))
	targetAngle := math.Atan2(float64(target.Y), float64(target.X))

	delta := targetAngle - currentAngle
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta < -math.Pi {
		delta += 2 * math.Pi
	}
	if delta > maxAimDeltaRad {
		delta = maxAimDeltaRad
	}
	if delta < -maxAimDeltaRad {
		delta = -maxAimDeltaRad
	}

	newAngle := currentAngle + delta
	dir := solver.Vec2{X: float32(math.Cos(newAngle)), Y: float32(math.Sin(newAngle))}

	up := solver.Vec2{X: 0, Y: 1}
	if dir.Dot(up) < aimUpDotFloor {
		return
	}

	s.Particles[p.Model.Muzzle].SetPosition(muzzleBase.Add(dir.Scale(muzzleLength)), true)
}

func (c *Controller) handlePacket(s *solver.Solver, player *Player, gp wire.GamePacket) {
	switch gp.Tag {
	case wire.TagNone:
		// wire-safe filler

	case wire.TagSpawn:
		s.AddParticle(solver.Ground.WithPosition(solver.Vec2{X: gp.X, Y: gp.Y}).WithVelocity(solver.Vec2{X: 0, Y: -0.5}))

	case wire.TagMotor:
		idx := int(gp.Index)
		if idx >= 0 && idx < len(s.Particles) && s.Particles[idx].Kind.IsMotor() {
			s.Particles[idx].Kind.MotorAcc = gp.Acc
		}

	case wire.TagMuzzle:
		player.HasAim = true
		player.Aim = solver.Vec2{X: gp.X, Y: gp.Y}

	case wire.TagFire:
		c.fire(s, player, gp.Bullet)

	case wire.TagThrust:
		player.ThrustLeft = gp.Left
		player.ThrustRight = gp.Right

	case wire.TagDash:
		c.dash(s, player, gp.Coeff)

	case wire.TagResetMuzzle:
		player.HasAim = false
	}
}

func (c *Controller) fire(s *solver.Solver, player *Player, bullet uint8) {
	if player.ReloadTimer > 0 {
		return
	}

	entry, ok := projectileTable[bullet]
	if !ok {
		return
	}

	muzzleEnd := s.Particles[player.Model.Muzzle]
	muzzleBase := s.Particles[player.Model.Center].Pos
	dir := muzzleEnd.Pos.Sub(muzzleBase).Normalize()

	spawnPos := muzzleBase.Add(dir.Scale(bulletSpawnOffset))
	proj := entry.particle.WithPosition(spawnPos).WithVelocity(dir.Scale(entry.force))
	s.AddParticle(proj)

	imp := entry.force * dir.Length() * entry.particle.Mass
	recoil := imp / muzzleEnd.Mass / 100

	player.Model.ForEach(func(idx int) {
		s.Particles[idx].Accelerate(dir.Scale(-recoil))
	})

	player.ReloadTimer = entry.reloadTicks
}

func (c *Controller) dash(s *solver.Solver, player *Player, coeff float32) {
	if player.DashTimer > 0 {
		return
	}

	player.Model.ForEach(func(idx int) {
		p := &s.Particles[idx]
		v := p.Pos.Sub(p.PosOld)
		speed := v.Scale(coeff).Length()
		clamped := clampF32(speed, 0.05, 0.1)
		dir := v.Normalize()
		p.SetVelocity(dir.Scale(clamped))
	})

	player.DashTimer = dashReloadTicks
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GetWinners returns the team id that has at least one alive player,
// iff exactly one team qualifies.
func (c *Controller) GetWinners(s *solver.Solver) (team uint8, ok bool) {
	aliveTeams := map[uint8]bool{}
	for _, p := range c.Players {
		if p.Alive(s) {
			aliveTeams[p.Team] = true
		}
	}
	if len(aliveTeams) != 1 {
		return 0, false
	}
	for t := range aliveTeams {
		return t, true
	}
	return 0, false
}
