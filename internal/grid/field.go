// Resource field seeding using layered simplex noise. Two independent
// noise layers place good-A and good-B bearing cells; density thresholds
// control coverage. Deterministic from the scenario seed.
package grid

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// FieldConfig holds the resource placement and regrowth parameters.
type FieldConfig struct {
	Seed int64

	DensityA float64 // fraction of cells bearing good A, 0..1
	DensityB float64 // fraction of cells bearing good B, 0..1

	MaxAmount    int    // initial and regrowth cap per cell
	RegrowAmount int    // units per growth pulse
	RegrowEvery  uint64 // ticks between pulses; 0 disables regrowth
}

// SeedResources populates a grid's cells from cfg. Cells where both
// noise layers clear their threshold take the stronger layer, so each
// cell bears at most one resource.
func SeedResources(g *Grid, cfg FieldConfig) {
	noiseA := opensimplex.NewNormalized(cfg.Seed)
	noiseB := opensimplex.NewNormalized(cfg.Seed + 1)

	threshA := 1.0 - cfg.DensityA
	threshB := 1.0 - cfg.DensityB

	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			cell := g.Cell(Point{X: x, Y: y})
			va := octaveNoise(noiseA, float64(x), float64(y), 3, 0.12, 0.5)
			vb := octaveNoise(noiseB, float64(x), float64(y), 3, 0.12, 0.5)

			hitA := va >= threshA
			hitB := vb >= threshB

			switch {
			case hitA && (!hitB || va-threshA >= vb-threshB):
				seedCell(cell, ResourceA, va, threshA, cfg)
			case hitB:
				seedCell(cell, ResourceB, vb, threshB, cfg)
			}
		}
	}
}

// seedCell assigns a resource to a cell with an initial amount scaled
// by how far the noise value cleared the threshold.
func seedCell(c *Cell, r Resource, v, thresh float64, cfg FieldConfig) {
	span := 1.0 - thresh
	frac := 1.0
	if span > 0 {
		frac = (v - thresh) / span
	}
	amount := 1 + int(frac*float64(cfg.MaxAmount-1))
	if amount > cfg.MaxAmount {
		amount = cfg.MaxAmount
	}

	c.Resource = r
	c.Amount = amount
	c.RegrowAmount = cfg.RegrowAmount
	c.RegrowMax = cfg.MaxAmount
	c.RegrowEvery = cfg.RegrowEvery
	c.NextRegrowTick = cfg.RegrowEvery
}

// octaveNoise layers multiple noise frequencies, normalized to [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
