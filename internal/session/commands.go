package session

import (
	"errors"
	"fmt"

	"towerdefense/internal/balance"
	"towerdefense/internal/td"
)

// apply runs one client command against the match, between ticks.
func (s *Session) apply(cmd Command) {
	var err error
	switch cmd.Type {
	case CmdPlaceTower:
		err = s.placeTower(balance.TowerKind(cmd.Tower), cmd.Spot)
	case CmdStartWave:
		err = s.match.StartWave()
	case CmdPause:
		if s.match.Pause() {
			s.sendState()
		}
	case CmdResume:
		if s.match.Resume() {
			s.sendState()
		}
	case CmdRestart:
		err = s.restart()
	default:
		err = fmt.Errorf("%w %q", ErrUnknownCommand, cmd.Type)
	}

	s.flush()
	if err != nil {
		s.reject(cmd, err)
	}
}

// placeTower enforces one tower per spot before buying.
func (s *Session) placeTower(kind balance.TowerKind, spot int) error {
	if spot < 0 || spot >= len(s.cfg.Spots) {
		return ErrUnknownSpot
	}
	if s.occupied[spot] {
		return ErrSpotTaken
	}
	p := s.cfg.Spots[spot]
	if _, err := s.match.PlaceTower(kind, td.Vec2{X: p.X, Y: p.Y}); err != nil {
		return err
	}
	s.occupied[spot] = true
	return nil
}

func (s *Session) restart() error {
	if !s.match.Over() {
		return ErrMatchInProgress
	}
	return s.newMatch()
}

func (s *Session) reject(cmd Command, err error) {
	if errors.Is(err, td.ErrInsufficientFunds) {
		def, _ := s.cfg.Tower(balance.TowerKind(cmd.Tower))
		s.enqueue(lowBalanceMsg{
			Type:  "low_balance",
			Tower: cmd.Tower,
			Cost:  def.Cost,
			Coins: s.match.Economy().Coins,
		})
		return
	}
	s.enqueue(rejectedMsg{Type: "rejected", Command: cmd.Type, Reason: err.Error()})
}
