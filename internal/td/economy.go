package td

import "errors"

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownTower      = errors.New("unknown tower type")
	ErrMatchOver         = errors.New("match is over")
	ErrWaveActive        = errors.New("a wave is already in progress")
	ErrNoWavesLeft       = errors.New("no waves left")
)

// Economy is the score state shared by purchases, kills and leaks.
type Economy struct {
	Coins         int `json:"coins"`
	Lives         int `json:"lives"`
	TotalHits     int `json:"hits"`
	TotalDefeated int `json:"defeated"`
}

// Spend debits cost, or leaves coins untouched and returns
// ErrInsufficientFunds.
func (e *Economy) Spend(cost int) error {
	if cost < 0 || e.Coins < cost {
		return ErrInsufficientFunds
	}
	e.Coins -= cost
	return nil
}

func (e *Economy) Credit(bounty int) {
	e.Coins += bounty
	e.TotalHits++
	e.TotalDefeated++
}

// LoseLife reports whether the last life is gone.
func (e *Economy) LoseLife() bool {
	e.Lives--
	return e.Lives <= 0
}
