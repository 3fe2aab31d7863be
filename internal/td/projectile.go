package td

import "towerdefense/internal/balance"

type ProjectileID uint64

type Projectile struct {
	ID     ProjectileID
	Kind   balance.ProjectileKind
	Pos    Vec2
	Speed  float64
	Damage int
	Target EnemyID

	// aim is the last position the target was seen at. Once the target is
	// gone the projectile finishes its flight there and hits nothing.
	aim Vec2
}

// Advance homes one tick toward aim and reports arrival. An arriving
// projectile does not move on that tick.
func (p *Projectile) Advance(aim Vec2) bool {
	p.aim = aim
	dist := distance(p.Pos, aim)
	if dist < p.Speed {
		return true
	}
	p.Pos = stepToward(p.Pos, aim, dist, p.Speed)
	return false
}

// pool holds the in-flight projectiles of one kind. All towers firing that
// kind share it and its cap.
type pool struct {
	kind balance.ProjectileKind
	list []*Projectile
}

func (p *pool) len() int {
	return len(p.list)
}
