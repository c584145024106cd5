// Quote construction from reservation bounds and the scenario spread.
package econ

// Quote is an agent's current two-sided price for good A in units of B.
// Bid is what the agent pays to acquire A, Ask is what it demands to
// part with A. Invariant: Ask >= Bid whenever the spread is positive.
type Quote struct {
	Bid float64
	Ask float64
}

// MakeQuote derives a quote from the reservation bounds at (a, b).
// The spread widens the quoted interval symmetrically around each bound.
// If a utility form yields crossed bounds the quote collapses onto the
// midpoint before the spread is applied, keeping Ask >= Bid.
func (p Params) MakeQuote(a, b int, spread float64) Quote {
	pMin, pMax := p.ReservationBounds(a, b)

	bid := pMax * (1 - spread/2)
	ask := pMin * (1 + spread/2)
	if ask < bid {
		mid := (pMin + pMax) / 2
		bid = mid * (1 - spread/2)
		ask = mid * (1 + spread/2)
	}
	return Quote{Bid: bid, Ask: ask}
}
