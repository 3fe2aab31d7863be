package td

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"towerdefense/internal/balance"

	"github.com/google/uuid"
)

const defaultSubmitTimeout = 10 * time.Second

type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
)

type Player struct {
	UserID string
	Name   string
}

// Options carries a match's collaborators. Every field is optional.
type Options struct {
	ID     string
	Player Player

	HUD    HUDSink
	Events EventSink

	// Scores receives the final score once the match ends. The outcome of
	// the submission is posted to Submitted without blocking.
	Scores        ScoreSubmitter
	Submitted     chan<- SubmitResult
	SubmitTimeout time.Duration
}

// Match is one game of tower defense. It is not safe for concurrent use;
// a single goroutine owns it and drives it with Tick.
type Match struct {
	ID string

	cfg    *balance.Config
	path   Path
	player Player

	hud           HUDSink
	events        EventSink
	scores        ScoreSubmitter
	submitted     chan<- SubmitResult
	submitTimeout time.Duration

	tick    int
	paused  bool
	over    bool
	outcome Outcome

	econ    Economy
	waves   *Scheduler
	enemies roster
	towers  []*Tower
	pools   []*pool
	byKind  map[balance.ProjectileKind]*pool

	nextEnemy      EnemyID
	nextProjectile ProjectileID
}

// NewMatch builds a match from a game table. The table is validated here
// so that nothing can fail mid-tick.
func NewMatch(cfg *balance.Config, opts Options) (*Match, error) {
	if cfg == nil {
		return nil, errors.New("td: nil balance")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("td: %w", err)
	}

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	timeout := opts.SubmitTimeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}

	path := make(Path, len(cfg.Path))
	for i, p := range cfg.Path {
		path[i] = vecOf(p)
	}

	m := &Match{
		ID:            id,
		cfg:           cfg,
		path:          path,
		player:        opts.Player,
		hud:           opts.HUD,
		events:        opts.Events,
		scores:        opts.Scores,
		submitted:     opts.Submitted,
		submitTimeout: timeout,
		econ: Economy{
			Coins: cfg.StartingCoins,
			Lives: cfg.StartingLives,
		},
		waves:   NewScheduler(cfg.Waves, cfg.WaveCooldown, cfg.FirstWaveDelay),
		enemies: newRoster(),
		byKind:  make(map[balance.ProjectileKind]*pool),
	}
	for _, kind := range balance.ProjectileKinds {
		p := &pool{kind: kind}
		m.pools = append(m.pools, p)
		m.byKind[kind] = p
	}
	return m, nil
}

// Tick runs one frame: waves, then enemies, then towers, then projectiles.
// It is a no-op while paused or once the match is over.
func (m *Match) Tick() {
	if m.paused || m.over {
		return
	}
	m.tick++

	m.updateWaves()
	if m.over {
		return
	}
	m.moveEnemies()
	if m.over {
		return
	}
	m.updateTowers()
	m.updateProjectiles()
}

func (m *Match) updateWaves() {
	switch m.waves.Update() {
	case WaveSpawn:
		m.spawnWave()
	case WaveCleared:
		m.emit(Event{Kind: EventWaveCleared, Wave: m.waves.Index()})
		m.pushHUD()
	case WaveVictory:
		m.emit(Event{Kind: EventWaveCleared, Wave: m.waves.Index()})
		m.finish(OutcomeVictory)
	}
}

func (m *Match) spawnWave() {
	def := m.waves.Current()
	wave := m.waves.Index()
	for i := 0; i < def.Count; i++ {
		m.nextEnemy++
		pos := spawnPosition(m.path[0], i, m.cfg.SpawnOffset)
		m.enemies.add(newEnemy(m.nextEnemy, wave, def, pos))
	}
	m.emit(Event{Kind: EventWaveStarted, Wave: wave + 1})
	m.pushHUD()
}

func (m *Match) moveEnemies() {
	list := m.enemies.list
	kept := list[:0]
	var ahead *Enemy
	for i, e := range list {
		if m.over {
			kept = append(kept, list[i:]...)
			break
		}
		if m.path.Advance(e, ahead, m.cfg.EnemySpacing) == StepLeaked {
			delete(m.enemies.byID, e.ID)
			m.leak(e)
			continue
		}
		kept = append(kept, e)
		ahead = e
	}
	for i := len(kept); i < len(list); i++ {
		list[i] = nil
	}
	m.enemies.list = kept
}

func (m *Match) leak(e *Enemy) {
	m.waves.resolved()
	pos := e.Pos
	m.emit(Event{Kind: EventEnemyLeaked, Enemy: e.ID, Wave: e.Wave + 1, Pos: &pos})
	if m.econ.LoseLife() {
		m.finish(OutcomeDefeat)
		return
	}
	m.pushHUD()
}

func (m *Match) updateTowers() {
	for _, t := range m.towers {
		p := m.byKind[t.Projectile]
		target := t.Update(m.enemies.list, p.len(), m.cfg.MaxInFlight)
		if target == nil {
			continue
		}
		m.nextProjectile++
		muzzle := t.Muzzle(m.cfg.MuzzleOffset)
		p.list = append(p.list, &Projectile{
			ID:     m.nextProjectile,
			Kind:   t.Projectile,
			Pos:    muzzle,
			Speed:  m.cfg.ProjectileSpeed(t.Projectile),
			Damage: t.Damage,
			Target: target.ID,
			aim:    target.Pos,
		})
		m.emit(Event{Kind: EventShotFired, Tower: t.ID, Enemy: target.ID, Projectile: string(t.Projectile), Pos: &muzzle})
	}
}

func (m *Match) updateProjectiles() {
	for _, p := range m.pools {
		list := p.list
		kept := list[:0]
		for _, pr := range list {
			target, alive := m.enemies.get(pr.Target)
			aim := pr.aim
			if alive {
				aim = target.Pos
			}
			if !pr.Advance(aim) {
				kept = append(kept, pr)
				continue
			}
			if alive {
				m.hit(target, pr.Damage)
			}
		}
		for i := len(kept); i < len(list); i++ {
			list[i] = nil
		}
		p.list = kept
	}
}

func (m *Match) hit(e *Enemy, damage int) {
	if !e.TakeDamage(damage) {
		return
	}
	m.enemies.remove(e.ID)
	m.waves.resolved()
	m.econ.Credit(e.Bounty)
	pos := e.Pos
	m.emit(Event{Kind: EventEnemyKilled, Enemy: e.ID, Wave: e.Wave + 1, Bounty: e.Bounty, Pos: &pos})
	m.pushHUD()
}

// PlaceTower buys a tower of kind at pos. The caller guarantees the spot
// is free.
func (m *Match) PlaceTower(kind balance.TowerKind, pos Vec2) (*Tower, error) {
	if m.over {
		return nil, ErrMatchOver
	}
	def, ok := m.cfg.Tower(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTower, kind)
	}
	if err := m.econ.Spend(def.Cost); err != nil {
		return nil, err
	}

	t := &Tower{
		ID:           len(m.towers) + 1,
		Kind:         kind,
		Projectile:   def.Projectile,
		Pos:          pos,
		Damage:       def.Damage,
		Range:        m.cfg.TowerRange,
		ShotInterval: m.cfg.ShotInterval,
	}
	m.towers = append(m.towers, t)
	m.emit(Event{Kind: EventTowerPlaced, Tower: t.ID, TowerKind: string(kind), Pos: &pos})
	m.pushHUD()
	return t, nil
}

// StartWave starts the next wave now instead of waiting out the cooldown.
func (m *Match) StartWave() error {
	if m.over {
		return ErrMatchOver
	}
	if m.waves.Active() {
		return ErrWaveActive
	}
	if !m.waves.Start() {
		return ErrNoWavesLeft
	}
	m.spawnWave()
	return nil
}

// Pause and Resume report whether they changed anything.
func (m *Match) Pause() bool {
	if m.paused || m.over {
		return false
	}
	m.paused = true
	return true
}

func (m *Match) Resume() bool {
	if !m.paused {
		return false
	}
	m.paused = false
	return true
}

func (m *Match) Paused() bool      { return m.paused }
func (m *Match) Over() bool        { return m.over }
func (m *Match) Outcome() Outcome  { return m.outcome }
func (m *Match) Ticks() int        { return m.tick }
func (m *Match) Economy() Economy  { return m.econ }
func (m *Match) Waves() *Scheduler { return m.waves }
func (m *Match) Player() Player    { return m.player }

func (m *Match) HUD() HUD {
	return HUD{
		Coins:      m.econ.Coins,
		Lives:      m.econ.Lives,
		Hits:       m.econ.TotalHits,
		Wave:       m.waves.Number(),
		TotalWaves: m.waves.Total(),
	}
}

// Enemies returns the live enemies in spawn order. The slice is a copy.
func (m *Match) Enemies() []*Enemy {
	return append([]*Enemy(nil), m.enemies.list...)
}

func (m *Match) Enemy(id EnemyID) (*Enemy, bool) {
	return m.enemies.get(id)
}

func (m *Match) Towers() []*Tower {
	return append([]*Tower(nil), m.towers...)
}

// InFlight counts the projectiles of kind currently travelling.
func (m *Match) InFlight(kind balance.ProjectileKind) int {
	p, ok := m.byKind[kind]
	if !ok {
		return 0
	}
	return p.len()
}

func (m *Match) emit(e Event) {
	if m.events == nil {
		return
	}
	e.Tick = m.tick
	m.events.OnEvent(e)
}

func (m *Match) pushHUD() {
	if m.hud != nil {
		m.hud.UpdateHUD(m.HUD())
	}
}

func (m *Match) finish(outcome Outcome) {
	if m.over {
		return
	}
	m.over = true
	m.outcome = outcome
	m.paused = false

	log.Printf("[TD] match %s ended: %s, %d defeated, wave %d/%d",
		m.ID, outcome, m.econ.TotalDefeated, m.waves.Number(), m.waves.Total())
	m.emit(Event{Kind: EventMatchOver, Outcome: outcome, Wave: m.waves.Number()})
	m.pushHUD()
	m.submitScore()
}

// submitScore hands the final score to the submitter on its own goroutine;
// the simulation never waits for it.
func (m *Match) submitScore() {
	if m.scores == nil {
		return
	}
	id := m.ID
	name := strings.TrimSpace(m.player.Name)
	uid := m.player.UserID
	score := m.econ.TotalDefeated
	scores, done, timeout := m.scores, m.submitted, m.submitTimeout

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := scores.SubmitScore(ctx, name, uid, score)
		if err != nil {
			log.Printf("[TD] score submission for match %s failed: %v", id, err)
		} else {
			log.Printf("[TD] score %d submitted for match %s", score, id)
		}
		if done == nil {
			return
		}
		select {
		case done <- SubmitResult{MatchID: id, Name: name, Score: score, Err: err}:
		default:
			log.Printf("[TD] dropped submission result for match %s", id)
		}
	}()
}
