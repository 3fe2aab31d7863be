package td

import "towerdefense/internal/balance"

// WaveEvent is the transition the scheduler made on a tick, if any.
type WaveEvent int

const (
	WaveNone WaveEvent = iota
	WaveSpawn
	WaveCleared
	WaveVictory
)

// Scheduler is the wave state machine: idle with a cooldown, active while
// the current wave has enemies on the board, complete after the last wave.
type Scheduler struct {
	defs     []balance.WaveDef
	interval int

	index     int
	active    bool
	complete  bool
	cooldown  int
	remaining int
}

func NewScheduler(defs []balance.WaveDef, interval, firstDelay int) *Scheduler {
	return &Scheduler{
		defs:     defs,
		interval: interval,
		cooldown: firstDelay,
	}
}

// Update advances the machine by one tick.
func (s *Scheduler) Update() WaveEvent {
	if s.complete {
		return WaveNone
	}
	if s.active {
		if s.remaining > 0 {
			return WaveNone
		}
		s.active = false
		s.index++
		if s.index >= len(s.defs) {
			s.complete = true
			return WaveVictory
		}
		s.cooldown = s.interval
		return WaveCleared
	}

	if s.cooldown > 0 {
		s.cooldown--
	}
	if s.cooldown <= 0 && s.begin() {
		return WaveSpawn
	}
	return WaveNone
}

// Start skips the remaining cooldown. It reports false while a wave is
// active or after the last one.
func (s *Scheduler) Start() bool {
	return s.begin()
}

func (s *Scheduler) begin() bool {
	if s.active || s.complete || s.index >= len(s.defs) {
		return false
	}
	s.active = true
	s.cooldown = 0
	s.remaining = s.defs[s.index].Count
	return true
}

// Current is the definition of the active or next wave.
func (s *Scheduler) Current() balance.WaveDef {
	if s.index >= len(s.defs) {
		return s.defs[len(s.defs)-1]
	}
	return s.defs[s.index]
}

// resolved counts one enemy of the active wave as gone, killed or leaked.
func (s *Scheduler) resolved() {
	if s.remaining > 0 {
		s.remaining--
	}
}

func (s *Scheduler) Index() int     { return s.index }
func (s *Scheduler) Total() int     { return len(s.defs) }
func (s *Scheduler) Active() bool   { return s.active }
func (s *Scheduler) Complete() bool { return s.complete }
func (s *Scheduler) Cooldown() int  { return s.cooldown }
func (s *Scheduler) Remaining() int { return s.remaining }

// Number is the 1-based wave shown on the HUD.
func (s *Scheduler) Number() int {
	if s.index >= len(s.defs) {
		return len(s.defs)
	}
	return s.index + 1
}

// spawnPosition staggers a burst around the first waypoint: alternating
// sides of the path, one row further back every two enemies.
func spawnPosition(start Vec2, i int, offset float64) Vec2 {
	x := start.X + offset
	if i%2 == 0 {
		x = start.X - offset
	}
	return Vec2{X: x, Y: start.Y - float64(i/2)*offset}
}
