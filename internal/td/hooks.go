package td

import "context"

// HUD is what the heads-up display shows.
type HUD struct {
	Coins      int `json:"coins"`
	Lives      int `json:"lives"`
	Hits       int `json:"hits"`
	Wave       int `json:"wave"`
	TotalWaves int `json:"totalWaves"`
}

type HUDSink interface {
	UpdateHUD(HUD)
}

// HUDFunc adapts a plain function to HUDSink.
type HUDFunc func(HUD)

func (f HUDFunc) UpdateHUD(h HUD) { f(h) }

type EventKind string

const (
	EventWaveStarted EventKind = "wave_started"
	EventWaveCleared EventKind = "wave_cleared"
	EventEnemyKilled EventKind = "enemy_killed"
	EventEnemyLeaked EventKind = "enemy_leaked"
	EventTowerPlaced EventKind = "tower_placed"
	EventShotFired   EventKind = "shot_fired"
	EventMatchOver   EventKind = "match_over"
)

// Event is a notable moment of a match, for clients that animate or play
// sounds. Only the fields relevant to Kind are set.
type Event struct {
	Kind       EventKind `json:"kind"`
	Tick       int       `json:"tick"`
	Wave       int       `json:"wave,omitempty"`
	Enemy      EnemyID   `json:"enemy,omitempty"`
	Tower      int       `json:"tower,omitempty"`
	TowerKind  string    `json:"towerKind,omitempty"`
	Projectile string    `json:"projectile,omitempty"`
	Bounty     int       `json:"bounty,omitempty"`
	Pos        *Vec2     `json:"pos,omitempty"`
	Outcome    Outcome   `json:"outcome,omitempty"`
}

type EventSink interface {
	OnEvent(Event)
}

type EventFunc func(Event)

func (f EventFunc) OnEvent(e Event) { f(e) }

// ScoreSubmitter persists a final score. It is called off the tick, from
// its own goroutine.
type ScoreSubmitter interface {
	SubmitScore(ctx context.Context, name, uid string, score int) error
}

// SubmitResult reports how a detached score submission went.
type SubmitResult struct {
	MatchID string
	Name    string
	Score   int
	Err     error
}
