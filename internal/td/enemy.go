package td

import "towerdefense/internal/balance"

// EnemyID is a weak handle to an enemy. Handles are never reused within a
// match, so a handle to a removed enemy simply stops resolving.
type EnemyID uint64

type Enemy struct {
	ID         EnemyID
	Wave       int
	Pos        Vec2
	Health     int
	MaxHealth  int
	Speed      float64
	Bounty     int
	HitsToKill int
	PathIndex  int
}

func newEnemy(id EnemyID, wave int, def balance.WaveDef, pos Vec2) *Enemy {
	return &Enemy{
		ID:         id,
		Wave:       wave,
		Pos:        pos,
		Health:     def.Health,
		MaxHealth:  def.Health,
		Speed:      def.Speed,
		Bounty:     def.Bounty,
		HitsToKill: def.HitsToKill,
	}
}

// TakeDamage applies a hit and reports whether it was lethal.
func (e *Enemy) TakeDamage(damage int) bool {
	e.Health -= damage
	return e.Health <= 0
}

// HealthRatio is the fill of the health bar, in [0, 1].
func (e *Enemy) HealthRatio() float64 {
	if e.MaxHealth <= 0 || e.Health <= 0 {
		return 0
	}
	return float64(e.Health) / float64(e.MaxHealth)
}

type HealthTier string

const (
	HealthHigh HealthTier = "high"
	HealthMid  HealthTier = "mid"
	HealthLow  HealthTier = "low"
)

// HealthTier buckets the health bar colour.
func (e *Enemy) HealthTier() HealthTier {
	r := e.HealthRatio()
	switch {
	case r > 0.5:
		return HealthHigh
	case r > 0.25:
		return HealthMid
	default:
		return HealthLow
	}
}

// roster is the live-enemy registry. Iteration order is spawn order.
type roster struct {
	list []*Enemy
	byID map[EnemyID]*Enemy
}

func newRoster() roster {
	return roster{byID: make(map[EnemyID]*Enemy)}
}

func (r *roster) add(e *Enemy) {
	r.list = append(r.list, e)
	r.byID[e.ID] = e
}

func (r *roster) get(id EnemyID) (*Enemy, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// remove drops id keeping the spawn order of the rest.
func (r *roster) remove(id EnemyID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, e := range r.list {
		if e.ID == id {
			r.list = append(r.list[:i], r.list[i+1:]...)
			break
		}
	}
	return true
}

func (r *roster) len() int {
	return len(r.list)
}
