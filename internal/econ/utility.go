// Package econ provides the pure economic math: utility evaluation,
// marginal rates of substitution, reservation-price bounds, and quote
// construction. Everything here is a pure function of inventory and
// parameters — no simulation state, no side effects.
package econ

import (
	"fmt"
	"math"
)

// DefaultEpsilon is the default guard for ratio denominators and the
// zero-inventory substitution inside bounds computations.
const DefaultEpsilon = 1e-12

// Kind selects a utility functional form. The set is closed: adding a
// form means extending this enum and every switch in this package.
type Kind uint8

const (
	KindCES         Kind = iota // (wA*A^rho + wB*B^rho)^(1/rho), rho != 0
	KindCobbDouglas             // log-weighted form: wA*ln(A) + wB*ln(B)
	KindLinear                  // vA*A + vB*B
)

// String returns the scenario-file name of the utility kind.
func (k Kind) String() string {
	switch k {
	case KindCES:
		return "ces"
	case KindCobbDouglas:
		return "cobb_douglas"
	case KindLinear:
		return "linear"
	default:
		return fmt.Sprintf("kind#%d", uint8(k))
	}
}

// ParseKind maps a scenario-file name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "ces":
		return KindCES, nil
	case "cobb_douglas", "cobb-douglas":
		return KindCobbDouglas, nil
	case "linear":
		return KindLinear, nil
	}
	return 0, fmt.Errorf("unknown utility kind %q", s)
}

// Params holds the numeric parameters of one agent's utility function.
// Params are validated once at scenario load; the functions below assume
// valid parameters and never raise domain errors mid-run.
type Params struct {
	Kind Kind

	// CES / Cobb-Douglas.
	WA, WB float64 // weights, > 0
	Rho    float64 // CES exponent, != 1; 0 selects the Cobb-Douglas form

	// Linear.
	VA, VB float64 // per-unit valuations, > 0

	// EpsMRS substitutes for zero coordinates inside ratio computations
	// (reservation bounds, MRS). It never touches inventory state.
	// EpsDU guards denominators in utility-delta arithmetic.
	EpsMRS float64
	EpsDU  float64
}

// Validate checks parameter domains. Invalid domains are a configuration
// error surfaced before any tick runs — never a runtime condition.
func (p Params) Validate() error {
	if p.EpsMRS < 0 || p.EpsDU < 0 {
		return fmt.Errorf("epsilon must be non-negative, got eps_mrs=%g eps_du=%g", p.EpsMRS, p.EpsDU)
	}
	switch p.Kind {
	case KindCES:
		if p.WA <= 0 || p.WB <= 0 {
			return fmt.Errorf("ces weights must be positive, got wA=%g wB=%g", p.WA, p.WB)
		}
		if p.Rho == 1 {
			return fmt.Errorf("ces rho must not equal 1")
		}
	case KindCobbDouglas:
		if p.WA <= 0 || p.WB <= 0 {
			return fmt.Errorf("cobb-douglas weights must be positive, got wA=%g wB=%g", p.WA, p.WB)
		}
	case KindLinear:
		if p.VA <= 0 || p.VB <= 0 {
			return fmt.Errorf("linear valuations must be positive, got vA=%g vB=%g", p.VA, p.VB)
		}
	default:
		return fmt.Errorf("unknown utility kind %d", p.Kind)
	}
	return nil
}

// epsMRS returns the ratio-substitution epsilon, defaulted when unset.
func (p Params) epsMRS() float64 {
	if p.EpsMRS > 0 {
		return p.EpsMRS
	}
	return DefaultEpsilon
}

// epsDU returns the denominator-guard epsilon, defaulted when unset.
func (p Params) epsDU() float64 {
	if p.EpsDU > 0 {
		return p.EpsDU
	}
	return DefaultEpsilon
}

// guard clamps a denominator away from zero.
func guard(x, eps float64) float64 {
	if x < eps {
		return eps
	}
	return x
}

// Utility evaluates u(A, B) on the real, unsubstituted inventory.
// The Cobb-Douglas log form returns -Inf at a zero coordinate; callers
// compare utilities directly and never subtract them, so the value stays
// well ordered.
func (p Params) Utility(a, b int) float64 {
	fa, fb := float64(a), float64(b)
	switch p.Kind {
	case KindLinear:
		return p.VA*fa + p.VB*fb
	case KindCobbDouglas:
		return p.WA*math.Log(fa) + p.WB*math.Log(fb)
	default: // KindCES
		if p.Rho == 0 {
			return p.WA*math.Log(fa) + p.WB*math.Log(fb)
		}
		inner := p.WA*math.Pow(fa, p.Rho) + p.WB*math.Pow(fb, p.Rho)
		return math.Pow(inner, 1/p.Rho)
	}
}

// Improves reports whether moving from uOld to uNew is a strict gain
// beyond the EpsDU guard. A -Inf baseline orders correctly: any finite
// uNew improves it, and -Inf to -Inf does not.
func (p Params) Improves(uOld, uNew float64) bool {
	return uNew-uOld > p.epsDU()
}

// MRS returns the marginal rate of substitution dB/dA at (a, b):
// how many units of B substitute for one unit of A at constant utility.
// Inputs are continuous; ratio denominators are guarded by EpsMRS.
func (p Params) MRS(a, b float64) float64 {
	eps := p.epsMRS()
	switch p.Kind {
	case KindLinear:
		return p.VA / guard(p.VB, eps)
	case KindCobbDouglas:
		return (p.WA / guard(p.WB, eps)) * (b / guard(a, eps))
	default: // KindCES
		if p.Rho == 0 {
			return (p.WA / guard(p.WB, eps)) * (b / guard(a, eps))
		}
		ratio := b / guard(a, eps)
		return (p.WA / guard(p.WB, eps)) * math.Pow(ratio, 1-p.Rho)
	}
}
