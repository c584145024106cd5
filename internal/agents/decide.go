// Movement decisions. Each tick an agent scores the cells it can see by
// the discounted utility gain of foraging there and walks toward the
// best one.
package agents

import (
	"github.com/talgya/barter-world/internal/entropy"
	"github.com/talgya/barter-world/internal/forage"
	"github.com/talgya/barter-world/internal/grid"
)

// ChooseTarget picks an agent's movement target from the cells within
// its vision radius. Scoring is deltaU-at-arrival discounted by decay
// per step of distance; ties resolve in row-major scan order. When no
// visible cell scores positive the agent takes a single random-walk
// step from the run's decision stream.
func ChooseTarget(a *Agent, g *grid.Grid, metric grid.Metric, forageRate int, decay float64, rng *entropy.Source) grid.Point {
	best := a.Pos
	bestScore := 0.0
	found := false

	base := a.UtilityValue()
	for dy := -a.Vision; dy <= a.Vision; dy++ {
		for dx := -a.Vision; dx <= a.Vision; dx++ {
			p := grid.Point{X: a.Pos.X + dx, Y: a.Pos.Y + dy}
			if !g.InBounds(p) || !grid.Within(a.Pos, p, a.Vision, metric) {
				continue
			}
			cell := g.Cell(p)
			if cell.Resource == grid.ResourceNone || cell.Amount == 0 {
				continue
			}

			take := forageRate
			if cell.Amount < take {
				take = cell.Amount
			}
			var du float64
			switch cell.Resource {
			case grid.ResourceA:
				du = a.Utility.Utility(a.InvA+take, a.InvB) - base
			case grid.ResourceB:
				du = a.Utility.Utility(a.InvA, a.InvB+take) - base
			}
			score := forage.Score(du, grid.Chebyshev(a.Pos, p), decay)
			if score > bestScore {
				bestScore = score
				best = p
				found = true
			}
		}
	}

	if !found {
		// Nothing worth walking to: drift one step.
		step := grid.Point{
			X: a.Pos.X + rng.Intn(3) - 1,
			Y: a.Pos.Y + rng.Intn(3) - 1,
		}
		return g.Clamp(step)
	}
	return best
}

// StepToward moves one grid step from from toward to, diagonal steps
// allowed.
func StepToward(from, to grid.Point) grid.Point {
	step := from
	if to.X > from.X {
		step.X++
	} else if to.X < from.X {
		step.X--
	}
	if to.Y > from.Y {
		step.Y++
	} else if to.Y < from.Y {
		step.Y--
	}
	return step
}
