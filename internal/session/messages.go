package session

import (
	"towerdefense/internal/balance"
	"towerdefense/internal/td"
)

// Inbound command types.
const (
	CmdPlaceTower = "place_tower"
	CmdStartWave  = "start_wave"
	CmdPause      = "pause"
	CmdResume     = "resume"
	CmdRestart    = "restart"
)

// Command is a message from the browser.
type Command struct {
	Type  string `json:"type"`
	Tower string `json:"tower,omitempty"`
	Spot  int    `json:"spot"`
}

type SpotView struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Taken bool    `json:"taken"`
}

type TowerOffer struct {
	Kind       string `json:"kind"`
	Cost       int    `json:"cost"`
	Damage     int    `json:"damage"`
	Projectile string `json:"projectile"`
}

type welcomeMsg struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	MatchID   string          `json:"matchId"`
	Username  string          `json:"username"`
	Codec     string          `json:"codec"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	TickRate  int             `json:"tickRate"`
	Path      []balance.Point `json:"path"`
	Spots     []SpotView      `json:"spots"`
	Towers    []TowerOffer    `json:"towers"`
	Waves     int             `json:"waves"`
	HUD       td.HUD          `json:"hud"`
}

type hudMsg struct {
	Type string `json:"type"`
	HUD  td.HUD `json:"hud"`
}

type stateMsg struct {
	Type  string      `json:"type"`
	State td.Snapshot `json:"state"`
}

type eventMsg struct {
	Type  string   `json:"type"`
	Event td.Event `json:"event"`
}

type lowBalanceMsg struct {
	Type  string `json:"type"`
	Tower string `json:"tower"`
	Cost  int    `json:"cost"`
	Coins int    `json:"coins"`
}

type rejectedMsg struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

// resultMsg is sent as "victory" or "game_over".
type resultMsg struct {
	Type   string    `json:"type"`
	Result td.Result `json:"result"`
}

type scoreMsg struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId"`
	Score   int    `json:"score"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}
