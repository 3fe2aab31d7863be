package balance

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default table rejected: %v", err)
	}
	if len(cfg.Waves) != 3 {
		t.Errorf("expected 3 default waves, got %d", len(cfg.Waves))
	}

	damage := map[TowerKind]int{TowerSimple: 1, TowerCannon: 2, TowerFire: 3}
	for kind, want := range damage {
		if got := cfg.Towers[kind].Damage; got != want {
			t.Errorf("tower %s: expected damage %d, got %d", kind, want, got)
		}
	}

	speeds := map[ProjectileKind]float64{ProjectileAxe: 3, ProjectileCannonball: 7, ProjectileFireball: 8}
	for kind, want := range speeds {
		if got := cfg.ProjectileSpeed(kind); got != want {
			t.Errorf("projectile %s: expected speed %v, got %v", kind, want, got)
		}
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	raw := []byte(`
starting_coins: 500
towers:
  fire: {cost: 250, damage: 3, projectile: fireball}
waves:
  - {name: Only, count: 4, health: 2, speed: 2, bounty: 10, hits_to_kill: 2}
`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.StartingCoins != 500 {
		t.Errorf("expected starting coins 500, got %d", cfg.StartingCoins)
	}
	if cfg.Towers[TowerFire].Cost != 250 {
		t.Errorf("expected fire cost 250, got %d", cfg.Towers[TowerFire].Cost)
	}
	if cfg.Towers[TowerCannon].Cost != 200 {
		t.Errorf("cannon entry should keep its default cost, got %d", cfg.Towers[TowerCannon].Cost)
	}
	if len(cfg.Waves) != 1 || cfg.Waves[0].Count != 4 {
		t.Errorf("waves should be replaced whole, got %+v", cfg.Waves)
	}
	if cfg.StartingLives != 3 || cfg.ShotInterval != 90 {
		t.Errorf("unset keys should keep defaults, got lives=%d interval=%d", cfg.StartingLives, cfg.ShotInterval)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"short path", func(c *Config) { c.Path = c.Path[:1] }, "path needs at least 2 points"},
		{"no waves", func(c *Config) { c.Waves = nil }, "at least one wave"},
		{"zero count", func(c *Config) { c.Waves[0].Count = 0 }, "wave 0: count"},
		{"zero health", func(c *Config) { c.Waves[1].Health = 0 }, "wave 1: health"},
		{"negative bounty", func(c *Config) { c.Waves[2].Bounty = -1 }, "wave 2: bounty"},
		{"zero hits", func(c *Config) { c.Waves[0].HitsToKill = 0 }, "hits_to_kill"},
		{"missing tower", func(c *Config) { delete(c.Towers, TowerCannon) }, `tower "cannon" is missing`},
		{"unknown tower", func(c *Config) { c.Towers["laser"] = TowerDef{Cost: 1, Damage: 1, Projectile: ProjectileAxe} }, `unknown tower kind "laser"`},
		{"bad projectile ref", func(c *Config) {
			c.Towers[TowerFire] = TowerDef{Cost: 1, Damage: 1, Projectile: "arrow"}
		}, `unknown projectile "arrow"`},
		{"slow projectile", func(c *Config) { c.Projectiles[ProjectileAxe] = ProjectileDef{Speed: 1.5} }, "must exceed the fastest enemy speed"},
		{"zero lives", func(c *Config) { c.StartingLives = 0 }, "starting_lives"},
		{"zero interval", func(c *Config) { c.ShotInterval = 0 }, "shot_interval"},
		{"zero cap", func(c *Config) { c.MaxInFlight = 0 }, "max_in_flight"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected rejection containing %q, got nil", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSourceReloadKeepsOldOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "balance.yaml")
	src := NewSource(Default())

	if err := os.WriteFile(path, []byte("starting_lives: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := src.Reload(path); err == nil {
		t.Fatal("expected invalid reload to fail")
	}
	if src.Current().StartingLives != 3 {
		t.Errorf("invalid reload replaced the table")
	}

	if err := os.WriteFile(path, []byte("starting_lives: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := src.Reload(path); err != nil {
		t.Fatalf("valid reload failed: %v", err)
	}
	if src.Current().StartingLives != 7 {
		t.Errorf("expected 7 lives after reload, got %d", src.Current().StartingLives)
	}
}

func TestWatcherPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "balance.yaml")
	if err := os.WriteFile(path, []byte("starting_coins: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := NewSource(Default())
	w, err := Watch(src, path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("starting_coins: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-w.Reloads:
			if err == nil && src.Current().StartingCoins == 42 {
				return
			}
		case <-deadline:
			t.Fatalf("watcher never applied the change, coins=%d", src.Current().StartingCoins)
		}
	}
}
