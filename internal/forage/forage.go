// Package forage resolves resource harvesting and regrowth, and exposes
// the discounted movement-target scoring rule. It owns no agent state;
// the scheduler applies harvested amounts to inventories.
package forage

import (
	"math"

	"github.com/talgya/barter-world/internal/grid"
)

// Harvest depletes a cell by up to rate units and returns the amount
// taken. A cell with no resource yields zero.
func Harvest(c *grid.Cell, rate int) int {
	if c == nil || c.Resource == grid.ResourceNone || rate <= 0 {
		return 0
	}
	taken := rate
	if c.Amount < taken {
		taken = c.Amount
	}
	c.Amount -= taken
	return taken
}

// Regrow advances a cell's regrowth timer. Growth pulses fire on a
// per-cell cooldown independent of harvesting and never push the amount
// past the cap.
func Regrow(c *grid.Cell, tick uint64) {
	if c.Resource == grid.ResourceNone || c.RegrowEvery == 0 {
		return
	}
	if tick < c.NextRegrowTick {
		return
	}
	c.Amount += c.RegrowAmount
	if c.Amount > c.RegrowMax {
		c.Amount = c.RegrowMax
	}
	c.NextRegrowTick = tick + c.RegrowEvery
}

// Score discounts a utility gain at a candidate cell by travel
// distance: deltaU * decay^distance. Pure; movement policy lives with
// the caller.
func Score(deltaU float64, distance int, decay float64) float64 {
	if distance <= 0 {
		return deltaU
	}
	return deltaU * math.Pow(decay, float64(distance))
}
