package td

import "towerdefense/internal/balance"

type Tower struct {
	ID           int
	Kind         balance.TowerKind
	Projectile   balance.ProjectileKind
	Pos          Vec2
	Damage       int
	Range        float64
	Cooldown     int
	ShotInterval int
}

// Update runs one tick of targeting against the live enemies, in their
// iteration order, and returns the enemy the tower fires at, or nil.
// inFlight is the current size of this tower's projectile pool.
//
// The first enemy strictly inside range wins, not the nearest one.
func (t *Tower) Update(enemies []*Enemy, inFlight, maxInFlight int) *Enemy {
	if t.Cooldown > 0 {
		t.Cooldown--
		return nil
	}
	if inFlight >= maxInFlight {
		return nil
	}
	for _, e := range enemies {
		if distance(t.Pos, e.Pos) < t.Range {
			t.Cooldown = t.ShotInterval
			return e
		}
	}
	return nil
}

// Muzzle is where projectiles leave the tower.
func (t *Tower) Muzzle(offset float64) Vec2 {
	return Vec2{X: t.Pos.X, Y: t.Pos.Y - offset}
}
