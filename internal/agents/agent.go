// Package agents provides the agent data model and per-agent decision
// helpers. Agents are created once at scenario load and never destroyed
// during a run; identity order defines every deterministic iteration.
package agents

import (
	"errors"
	"sort"

	"github.com/talgya/barter-world/internal/econ"
	"github.com/talgya/barter-world/internal/grid"
)

// ErrInventoryUnderflow reports a debit that would drive a quantity
// negative. The block-search feasibility check prevents this by
// construction; seeing it at runtime is a fatal invariant breach.
var ErrInventoryUnderflow = errors.New("inventory underflow")

// Agent is one spatially situated trader.
type Agent struct {
	ID  uint64
	Pos grid.Point

	// Inventory. Two goods plus an optional money balance the barter
	// core carries but never spends.
	InvA  int
	InvB  int
	Money int

	Utility econ.Params

	Vision     int // neighbor/search radius for perception and decisions
	MoveBudget int // max grid steps per tick
	Cooldown   int // ticks remaining before the agent may trade again

	// Target is the movement destination chosen in the Decision phase.
	Target grid.Point

	// LastPartner holds the identity of this tick's trade partner, if
	// any; cleared each tick by housekeeping.
	LastPartner *uint64
}

// UtilityValue evaluates the agent's utility on its real inventory.
func (a *Agent) UtilityValue() float64 {
	return a.Utility.Utility(a.InvA, a.InvB)
}

// CanTrade reports whether the agent is out of trade cooldown.
func (a *Agent) CanTrade() bool {
	return a.Cooldown == 0
}

// ApplyDelta debits/credits the inventory atomically. Either both
// quantities change or neither does.
func (a *Agent) ApplyDelta(dA, dB int) error {
	if a.InvA+dA < 0 || a.InvB+dB < 0 {
		return ErrInventoryUnderflow
	}
	a.InvA += dA
	a.InvB += dB
	return nil
}

// ByID returns agents sorted by ascending identity. Scenario loading
// produces this order; the helper re-asserts it after any reshuffling.
func ByID(list []*Agent) []*Agent {
	out := make([]*Agent, len(list))
	copy(out, list)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
