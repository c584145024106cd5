// Package trade provides the quote cache and the bilateral trade
// negotiation engine: surplus detection, midpoint pricing, and the
// minimal compensating block search.
package trade

import (
	"github.com/talgya/barter-world/internal/agents"
	"github.com/talgya/barter-world/internal/econ"
)

// QuoteBook caches the latest (bid, ask) per agent. A quote is
// recomputed immediately whenever that agent's inventory changes and
// only between trade blocks, never mid-evaluation of one.
type QuoteBook struct {
	spread float64
	quotes map[uint64]econ.Quote
}

// NewQuoteBook creates an empty cache with the scenario spread.
func NewQuoteBook(spread float64) *QuoteBook {
	return &QuoteBook{
		spread: spread,
		quotes: make(map[uint64]econ.Quote),
	}
}

// Recompute refreshes an agent's cached quote from its current
// inventory.
func (b *QuoteBook) Recompute(a *agents.Agent) {
	b.quotes[a.ID] = a.Utility.MakeQuote(a.InvA, a.InvB, b.spread)
}

// RecomputeAll refreshes every agent's quote. Called at scenario load
// and after any bulk inventory mutation.
func (b *QuoteBook) RecomputeAll(list []*agents.Agent) {
	for _, a := range list {
		b.Recompute(a)
	}
}

// Quote returns an agent's cached quote.
func (b *QuoteBook) Quote(id uint64) (econ.Quote, bool) {
	q, ok := b.quotes[id]
	return q, ok
}
