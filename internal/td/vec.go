package td

import (
	"math"

	"towerdefense/internal/balance"
)

// Vec2 is a board position in base-resolution units (1280x720).
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func vecOf(p balance.Point) Vec2 {
	return Vec2{X: p.X, Y: p.Y}
}

func distance(a, b Vec2) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// stepToward moves from by step units toward to. dist must be the distance
// between the two and strictly positive.
func stepToward(from, to Vec2, dist, step float64) Vec2 {
	return Vec2{
		X: from.X + (to.X-from.X)/dist*step,
		Y: from.Y + (to.Y-from.Y)/dist*step,
	}
}
