// Package grid provides the fixed-size cell grid, the resource cells it
// owns, and the spatial occupancy index used for neighbor queries.
package grid

import "fmt"

// Point is an integer grid coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Metric selects the distance measure for neighbor queries.
type Metric uint8

const (
	MetricChebyshev Metric = iota
	MetricEuclidean
)

// ParseMetric maps a scenario-file name to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "chebyshev":
		return MetricChebyshev, nil
	case "euclidean":
		return MetricEuclidean, nil
	}
	return 0, fmt.Errorf("unknown metric %q", s)
}

// Adjacency selects the neighborhood shape for interaction radius 1.
type Adjacency uint8

const (
	AdjChebyshev Adjacency = iota // 8-neighborhood
	AdjVonNeumann                 // 4-neighborhood
)

// ParseAdjacency maps a scenario-file name to an Adjacency.
func ParseAdjacency(s string) (Adjacency, error) {
	switch s {
	case "", "chebyshev":
		return AdjChebyshev, nil
	case "von_neumann", "von-neumann":
		return AdjVonNeumann, nil
	}
	return 0, fmt.Errorf("unknown adjacency %q", s)
}

// Resource identifies which good a cell yields when foraged.
type Resource uint8

const (
	ResourceNone Resource = iota
	ResourceA
	ResourceB
)

// String returns the telemetry name of the resource.
func (r Resource) String() string {
	switch r {
	case ResourceA:
		return "a"
	case ResourceB:
		return "b"
	default:
		return "none"
	}
}

// Cell is one tile of the environment. Depleted by foraging, regrown
// toward RegrowMax on a per-cell cooldown independent of harvesting.
type Cell struct {
	Pos      Point
	Resource Resource
	Amount   int

	RegrowAmount int    // units added per growth pulse
	RegrowMax    int    // cap the amount grows toward
	RegrowEvery  uint64 // ticks between pulses; 0 disables regrowth

	NextRegrowTick uint64 // next tick at which a pulse fires
}

// Grid is the fixed-size environment. Created once at scenario load,
// never resized.
type Grid struct {
	W, H  int
	cells []Cell
}

// New creates an empty grid of w×h cells.
func New(w, h int) *Grid {
	g := &Grid{W: w, H: h, cells: make([]Cell, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.cells[y*w+x].Pos = Point{X: x, Y: y}
		}
	}
	return g
}

// InBounds reports whether p lies on the grid.
func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.X < g.W && p.Y >= 0 && p.Y < g.H
}

// Cell returns the cell at p, or nil if out of bounds.
func (g *Grid) Cell(p Point) *Cell {
	if !g.InBounds(p) {
		return nil
	}
	return &g.cells[p.Y*g.W+p.X]
}

// CellID returns the row-major index of p, the stable identifier used
// in resource snapshot records.
func (g *Grid) CellID(p Point) int {
	return p.Y*g.W + p.X
}

// Cells returns all cells in row-major order.
func (g *Grid) Cells() []Cell {
	return g.cells
}

// CellAt returns the i-th cell in row-major order.
func (g *Grid) CellAt(i int) *Cell {
	return &g.cells[i]
}

// Clamp moves p to the nearest in-bounds coordinate.
func (g *Grid) Clamp(p Point) Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.X >= g.W {
		p.X = g.W - 1
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y >= g.H {
		p.Y = g.H - 1
	}
	return p
}

// TotalResource sums the remaining amount of one resource across all
// cells. Used by the conservation bookkeeping.
func (g *Grid) TotalResource(r Resource) int {
	total := 0
	for i := range g.cells {
		if g.cells[i].Resource == r {
			total += g.cells[i].Amount
		}
	}
	return total
}

// Chebyshev returns the Chebyshev distance between two points.
func Chebyshev(a, b Point) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Within reports whether b lies within radius of a under the metric.
func Within(a, b Point, radius int, m Metric) bool {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	switch m {
	case MetricEuclidean:
		return dx*dx+dy*dy <= radius*radius
	default:
		return dx <= radius && dy <= radius
	}
}

// Adjacent reports whether two positions may interact. Radius 0 means
// same cell; radius 1 means neighboring under the configured adjacency.
func Adjacent(a, b Point, interactionRadius int, adj Adjacency) bool {
	if interactionRadius == 0 {
		return a == b
	}
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if adj == AdjVonNeumann {
		return dx+dy <= 1
	}
	return dx <= 1 && dy <= 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
