// Reservation-price bounds: the interval of prices (B per unit A) at
// which trading one more unit of A is non-worsening for the holder.
package econ

import "math"

// ReservationBounds returns (pMin, pMax) for inventory (a, b):
//
//   - pMax is the willingness-to-pay for acquiring one unit of A — the
//     price at which u(a+1, b-p) equals u(a, b).
//   - pMin is the willingness-to-accept for giving up one unit of A —
//     the price at which u(a-1, b+p) equals u(a, b).
//
// Zero coordinates are substituted with EpsMRS inside this computation
// only; the substitution never leaks into inventory state or into the
// utility-delta comparisons that accept or reject a trade. Both bounds
// are finite for every non-negative integer inventory, including (0, 0).
func (p Params) ReservationBounds(a, b int) (pMin, pMax float64) {
	eps := p.epsMRS()
	fa, fb := float64(a), float64(b)
	if fa < eps {
		fa += eps
	}
	if fb < eps {
		fb += eps
	}

	switch p.Kind {
	case KindLinear:
		v := p.VA / guard(p.VB, eps)
		return v, v
	case KindCobbDouglas:
		return p.cobbDouglasBounds(fa, fb, eps)
	default: // KindCES
		if p.Rho == 0 {
			return p.cobbDouglasBounds(fa, fb, eps)
		}
		return p.cesBounds(fa, fb, eps)
	}
}

// cobbDouglasBounds solves the log-form indifference conditions exactly:
// fb-p = fb*(fa/(fa+1))^(wA/wB) for the buy side and
// fb+p = fb*(fa/(fa-1))^(wA/wB) for the sell side.
func (p Params) cobbDouglasBounds(fa, fb, eps float64) (pMin, pMax float64) {
	exp := p.WA / guard(p.WB, eps)

	pMax = fb * (1 - math.Pow(fa/(fa+1), exp))

	am1 := guard(fa-1, eps)
	pMin = fb * (math.Pow(fa/am1, exp) - 1)
	if math.IsInf(pMin, 0) || math.IsNaN(pMin) {
		pMin = p.MRS(fa, fb)
	}
	return pMin, pMax
}

// cesBounds solves the CES indifference conditions. With
// S = wA*fa^rho + wB*fb^rho held fixed, the buy side gives
// (fb-p)^rho = (S - wA*(fa+1)^rho)/wB and the sell side
// (fb+p)^rho = (S - wA*(fa-1)^rho)/wB. When a boundary makes the
// closed form undefined the MRS at the substituted point stands in.
func (p Params) cesBounds(fa, fb, eps float64) (pMin, pMax float64) {
	s := p.WA*math.Pow(fa, p.Rho) + p.WB*math.Pow(fb, p.Rho)

	// Buy side: willingness to pay for +1 A, capped at current B.
	t := (s - p.WA*math.Pow(fa+1, p.Rho)) / guard(p.WB, eps)
	if t <= 0 {
		pMax = fb
	} else {
		pMax = fb - math.Pow(t, 1/p.Rho)
		if pMax < 0 || math.IsNaN(pMax) {
			pMax = fb
		}
	}

	// Sell side: willingness to accept for -1 A.
	am1 := guard(fa-1, eps)
	t2 := (s - p.WA*math.Pow(am1, p.Rho)) / guard(p.WB, eps)
	if t2 <= 0 || math.IsNaN(t2) || math.IsInf(t2, 0) {
		pMin = p.MRS(fa, fb)
	} else {
		pMin = math.Pow(t2, 1/p.Rho) - fb
		if pMin < 0 || math.IsNaN(pMin) || math.IsInf(pMin, 0) {
			pMin = p.MRS(fa, fb)
		}
	}
	return pMin, pMax
}
