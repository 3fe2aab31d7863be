package td

// Step is what one tick of path following did to an enemy.
type Step int

const (
	StepMoved Step = iota
	StepReachedWaypoint
	StepBlocked
	StepLeaked
)

func (s Step) String() string {
	switch s {
	case StepMoved:
		return "moved"
	case StepReachedWaypoint:
		return "reached-waypoint"
	case StepBlocked:
		return "blocked"
	case StepLeaked:
		return "leaked"
	}
	return "unknown"
}

// Path is the ordered list of waypoints enemies walk.
type Path []Vec2

// Advance moves e one tick along the path. ahead is the enemy spawned
// immediately before e that is still on the board, nil when e leads.
//
// The end-of-path check comes first, then spacing, then the waypoint
// distance. A leaked enemy is not moved; the caller removes it.
func (p Path) Advance(e *Enemy, ahead *Enemy, minSpacing float64) Step {
	if e.PathIndex+1 >= len(p) {
		return StepLeaked
	}

	if ahead != nil && distance(e.Pos, ahead.Pos) < minSpacing {
		return StepBlocked
	}

	target := p[e.PathIndex+1]
	dist := distance(e.Pos, target)
	if dist < e.Speed {
		e.Pos = target
		e.PathIndex++
		return StepReachedWaypoint
	}
	e.Pos = stepToward(e.Pos, target, dist, e.Speed)
	return StepMoved
}
