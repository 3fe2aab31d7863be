package td

type EnemyView struct {
	ID        EnemyID    `json:"id"`
	Wave      int        `json:"wave"`
	Pos       Vec2       `json:"pos"`
	Health    int        `json:"health"`
	MaxHealth int        `json:"maxHealth"`
	Ratio     float64    `json:"ratio"`
	Tier      HealthTier `json:"tier"`
}

type TowerView struct {
	ID       int    `json:"id"`
	Kind     string `json:"kind"`
	Pos      Vec2   `json:"pos"`
	Cooldown int    `json:"cooldown"`
}

type ProjectileView struct {
	ID   ProjectileID `json:"id"`
	Kind string       `json:"kind"`
	Pos  Vec2         `json:"pos"`
}

type WaveView struct {
	Number    int  `json:"number"`
	Total     int  `json:"total"`
	Active    bool `json:"active"`
	Cooldown  int  `json:"cooldown"`
	Remaining int  `json:"remaining"`
}

// Snapshot is everything a client needs to draw one frame.
type Snapshot struct {
	MatchID     string           `json:"matchId"`
	Tick        int              `json:"tick"`
	Paused      bool             `json:"paused"`
	Outcome     Outcome          `json:"outcome,omitempty"`
	HUD         HUD              `json:"hud"`
	Wave        WaveView         `json:"wave"`
	Enemies     []EnemyView      `json:"enemies"`
	Towers      []TowerView      `json:"towers"`
	Projectiles []ProjectileView `json:"projectiles"`
}

func (m *Match) Snapshot() Snapshot {
	s := Snapshot{
		MatchID: m.ID,
		Tick:    m.tick,
		Paused:  m.paused,
		Outcome: m.outcome,
		HUD:     m.HUD(),
		Wave: WaveView{
			Number:    m.waves.Number(),
			Total:     m.waves.Total(),
			Active:    m.waves.Active(),
			Cooldown:  m.waves.Cooldown(),
			Remaining: m.waves.Remaining(),
		},
		Enemies:     make([]EnemyView, 0, m.enemies.len()),
		Towers:      make([]TowerView, 0, len(m.towers)),
		Projectiles: []ProjectileView{},
	}
	for _, e := range m.enemies.list {
		s.Enemies = append(s.Enemies, EnemyView{
			ID:        e.ID,
			Wave:      e.Wave + 1,
			Pos:       e.Pos,
			Health:    e.Health,
			MaxHealth: e.MaxHealth,
			Ratio:     e.HealthRatio(),
			Tier:      e.HealthTier(),
		})
	}
	for _, t := range m.towers {
		s.Towers = append(s.Towers, TowerView{ID: t.ID, Kind: string(t.Kind), Pos: t.Pos, Cooldown: t.Cooldown})
	}
	for _, p := range m.pools {
		for _, pr := range p.list {
			s.Projectiles = append(s.Projectiles, ProjectileView{ID: pr.ID, Kind: string(pr.Kind), Pos: pr.Pos})
		}
	}
	return s
}

// Result is the final line of a finished match.
type Result struct {
	MatchID  string  `json:"matchId"`
	Outcome  Outcome `json:"outcome"`
	Score    int     `json:"score"`
	Wave     int     `json:"wave"`
	Coins    int     `json:"coins"`
	Lives    int     `json:"lives"`
	Ticks    int     `json:"ticks"`
	Username string  `json:"username"`
}

func (m *Match) Result() Result {
	return Result{
		MatchID:  m.ID,
		Outcome:  m.outcome,
		Score:    m.econ.TotalDefeated,
		Wave:     m.waves.Number(),
		Coins:    m.econ.Coins,
		Lives:    m.econ.Lives,
		Ticks:    m.tick,
		Username: m.player.Name,
	}
}
