package balance

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TowerKind is the closed set of tower variants.
type TowerKind string

const (
	TowerSimple TowerKind = "simple"
	TowerCannon TowerKind = "cannon"
	TowerFire   TowerKind = "fire"
)

// TowerKinds lists every tower variant in menu order.
var TowerKinds = []TowerKind{TowerSimple, TowerCannon, TowerFire}

// ProjectileKind is the closed set of projectile variants.
type ProjectileKind string

const (
	ProjectileAxe        ProjectileKind = "axe"
	ProjectileCannonball ProjectileKind = "cannonball"
	ProjectileFireball   ProjectileKind = "fireball"
)

// ProjectileKinds lists every projectile variant in pool update order.
var ProjectileKinds = []ProjectileKind{ProjectileAxe, ProjectileCannonball, ProjectileFireball}

type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// WaveDef describes one burst of enemies.
type WaveDef struct {
	Name       string  `yaml:"name" json:"name"`
	Count      int     `yaml:"count" json:"count"`
	Health     int     `yaml:"health" json:"health"`
	Speed      float64 `yaml:"speed" json:"speed"`
	Bounty     int     `yaml:"bounty" json:"bounty"`
	HitsToKill int     `yaml:"hits_to_kill" json:"hits_to_kill"`
}

type TowerDef struct {
	Cost       int            `yaml:"cost" json:"cost"`
	Damage     int            `yaml:"damage" json:"damage"`
	Projectile ProjectileKind `yaml:"projectile" json:"projectile"`
}

type ProjectileDef struct {
	Speed float64 `yaml:"speed" json:"speed"`
}

// Config is the immutable game table a match is built from.
type Config struct {
	StartingCoins int `yaml:"starting_coins" json:"starting_coins"`
	StartingLives int `yaml:"starting_lives" json:"starting_lives"`

	TowerRange   float64 `yaml:"tower_range" json:"tower_range"`
	ShotInterval int     `yaml:"shot_interval" json:"shot_interval"`
	MaxInFlight  int     `yaml:"max_in_flight" json:"max_in_flight"`
	MuzzleOffset float64 `yaml:"muzzle_offset" json:"muzzle_offset"`

	EnemySpacing   float64 `yaml:"enemy_spacing" json:"enemy_spacing"`
	SpawnOffset    float64 `yaml:"spawn_offset" json:"spawn_offset"`
	WaveCooldown   int     `yaml:"wave_cooldown" json:"wave_cooldown"`
	FirstWaveDelay int     `yaml:"first_wave_delay" json:"first_wave_delay"`

	Path  []Point   `yaml:"path" json:"path"`
	Spots []Point   `yaml:"spots" json:"spots"`
	Waves []WaveDef `yaml:"waves" json:"waves"`

	Towers      map[TowerKind]TowerDef           `yaml:"towers" json:"towers"`
	Projectiles map[ProjectileKind]ProjectileDef `yaml:"projectiles" json:"projectiles"`
}

// Default returns the stock game table.
func Default() *Config {
	return &Config{
		StartingCoins: 0,
		StartingLives: 3,

		TowerRange:   120,
		ShotInterval: 90,
		MaxInFlight:  5,
		MuzzleOffset: 20,

		EnemySpacing:   35,
		SpawnOffset:    20,
		WaveCooldown:   180,
		FirstWaveDelay: 0,

		Path: []Point{
			{X: 260, Y: 0},
			{X: 260, Y: 430},
			{X: 1160, Y: 460},
		},
		Spots: []Point{
			{X: 330, Y: 100},
			{X: 190, Y: 360},
			{X: 600, Y: 380},
			{X: 800, Y: 520},
			{X: 1100, Y: 390},
		},
		Waves: []WaveDef{
			{Name: "Easy", Count: 10, Health: 1, Speed: 1, Bounty: 20, HitsToKill: 1},
			{Name: "Medium", Count: 15, Health: 2, Speed: 1.2, Bounty: 30, HitsToKill: 2},
			{Name: "Hard", Count: 20, Health: 3, Speed: 1.5, Bounty: 40, HitsToKill: 3},
		},
		Towers: map[TowerKind]TowerDef{
			TowerSimple: {Cost: 0, Damage: 1, Projectile: ProjectileAxe},
			TowerCannon: {Cost: 200, Damage: 2, Projectile: ProjectileCannonball},
			TowerFire:   {Cost: 300, Damage: 3, Projectile: ProjectileFireball},
		},
		Projectiles: map[ProjectileKind]ProjectileDef{
			ProjectileAxe:        {Speed: 3},
			ProjectileCannonball: {Speed: 7},
			ProjectileFireball:   {Speed: 8},
		},
	}
}

// Load reads a YAML table from path over the defaults and validates it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("balance: read %s: %w", path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("balance: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML table over the defaults. Keys absent from raw keep
// their default. A list present in raw replaces the default list; a tower or
// projectile entry present in raw replaces that one entry.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Tower returns the definition for kind.
func (c *Config) Tower(kind TowerKind) (TowerDef, bool) {
	def, ok := c.Towers[kind]
	return def, ok
}

// ProjectileSpeed returns the flight speed for kind.
func (c *Config) ProjectileSpeed(kind ProjectileKind) float64 {
	return c.Projectiles[kind].Speed
}

// Validate rejects tables a match cannot run on.
func (c *Config) Validate() error {
	var problems []string
	bad := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.StartingCoins < 0 {
		bad("starting_coins must not be negative")
	}
	if c.StartingLives <= 0 {
		bad("starting_lives must be positive")
	}
	if c.TowerRange <= 0 {
		bad("tower_range must be positive")
	}
	if c.ShotInterval <= 0 {
		bad("shot_interval must be positive")
	}
	if c.MaxInFlight <= 0 {
		bad("max_in_flight must be positive")
	}
	if c.EnemySpacing < 0 || c.SpawnOffset < 0 {
		bad("enemy_spacing and spawn_offset must not be negative")
	}
	if c.WaveCooldown < 0 || c.FirstWaveDelay < 0 {
		bad("wave_cooldown and first_wave_delay must not be negative")
	}
	if len(c.Path) < 2 {
		bad("path needs at least 2 points, got %d", len(c.Path))
	}
	if len(c.Waves) == 0 {
		bad("at least one wave is required")
	}

	fastestEnemy := 0.0
	for i, w := range c.Waves {
		if w.Count <= 0 {
			bad("wave %d: count must be positive", i)
		}
		if w.Health <= 0 {
			bad("wave %d: health must be positive", i)
		}
		if w.Speed <= 0 {
			bad("wave %d: speed must be positive", i)
		}
		if w.Bounty < 0 {
			bad("wave %d: bounty must not be negative", i)
		}
		if w.HitsToKill < 1 {
			bad("wave %d: hits_to_kill must be at least 1", i)
		}
		if w.Speed > fastestEnemy {
			fastestEnemy = w.Speed
		}
	}

	for _, kind := range TowerKinds {
		def, ok := c.Towers[kind]
		if !ok {
			bad("tower %q is missing", kind)
			continue
		}
		if def.Cost < 0 {
			bad("tower %q: cost must not be negative", kind)
		}
		if def.Damage <= 0 {
			bad("tower %q: damage must be positive", kind)
		}
		if _, ok := c.Projectiles[def.Projectile]; !ok {
			bad("tower %q: unknown projectile %q", kind, def.Projectile)
		}
	}
	for kind := range c.Towers {
		if !knownTower(kind) {
			bad("unknown tower kind %q", kind)
		}
	}

	for _, kind := range ProjectileKinds {
		def, ok := c.Projectiles[kind]
		if !ok {
			bad("projectile %q is missing", kind)
			continue
		}
		// Homing only converges when every projectile outruns every enemy.
		if def.Speed <= fastestEnemy {
			bad("projectile %q: speed %.2f must exceed the fastest enemy speed %.2f", kind, def.Speed, fastestEnemy)
		}
	}
	for kind := range c.Projectiles {
		if !knownProjectile(kind) {
			bad("unknown projectile kind %q", kind)
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid balance: " + strings.Join(problems, "; "))
	}
	return nil
}

func knownTower(kind TowerKind) bool {
	for _, k := range TowerKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func knownProjectile(kind ProjectileKind) bool {
	for _, k := range ProjectileKinds {
		if k == kind {
			return true
		}
	}
	return false
}
