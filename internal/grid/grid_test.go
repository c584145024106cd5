package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellLookupAndBounds(t *testing.T) {
	g := New(4, 3)
	require.NotNil(t, g.Cell(Point{X: 3, Y: 2}))
	assert.Nil(t, g.Cell(Point{X: 4, Y: 0}))
	assert.Nil(t, g.Cell(Point{X: 0, Y: -1}))
	assert.Equal(t, 11, g.CellID(Point{X: 3, Y: 2}))
}

func TestClamp(t *testing.T) {
	g := New(5, 5)
	assert.Equal(t, Point{X: 0, Y: 4}, g.Clamp(Point{X: -3, Y: 9}))
	assert.Equal(t, Point{X: 2, Y: 2}, g.Clamp(Point{X: 2, Y: 2}))
}

func TestAdjacent(t *testing.T) {
	a := Point{X: 2, Y: 2}

	// Radius 0: same cell only.
	assert.True(t, Adjacent(a, a, 0, AdjChebyshev))
	assert.False(t, Adjacent(a, Point{X: 2, Y: 3}, 0, AdjChebyshev))

	// Radius 1, Chebyshev: diagonals count.
	assert.True(t, Adjacent(a, Point{X: 3, Y: 3}, 1, AdjChebyshev))
	assert.False(t, Adjacent(a, Point{X: 4, Y: 2}, 1, AdjChebyshev))

	// Radius 1, von Neumann: diagonals do not.
	assert.False(t, Adjacent(a, Point{X: 3, Y: 3}, 1, AdjVonNeumann))
	assert.True(t, Adjacent(a, Point{X: 3, Y: 2}, 1, AdjVonNeumann))
}

func TestWithinMetrics(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 2, Y: 2}
	assert.True(t, Within(a, b, 2, MetricChebyshev))
	// sqrt(8) > 2 under Euclidean.
	assert.False(t, Within(a, b, 2, MetricEuclidean))
	assert.True(t, Within(a, b, 3, MetricEuclidean))
}

func TestIndexPlaceMoveAndQuery(t *testing.T) {
	g := New(10, 10)
	ix := NewIndex(g)

	ix.Place(2, Point{X: 5, Y: 5})
	ix.Place(0, Point{X: 5, Y: 5})
	ix.Place(1, Point{X: 7, Y: 5})

	// Occupants sorted ascending.
	assert.Equal(t, []uint64{0, 2}, ix.OccupantsAt(Point{X: 5, Y: 5}))

	// Radius 2 picks up the far agent, radius 1 does not.
	got := ix.AgentsWithin(Point{X: 5, Y: 5}, 2, MetricChebyshev, 0)
	assert.Equal(t, []uint64{2, 1}, got)
	got = ix.AgentsWithin(Point{X: 5, Y: 5}, 1, MetricChebyshev, 0)
	assert.Equal(t, []uint64{2}, got)

	// Moving vacates the old cell.
	ix.Move(2, Point{X: 0, Y: 0})
	assert.Equal(t, []uint64{0}, ix.OccupantsAt(Point{X: 5, Y: 5}))
	pos, ok := ix.Position(2)
	require.True(t, ok)
	assert.Equal(t, Point{X: 0, Y: 0}, pos)
}

func TestNeighborsRowMajorOrder(t *testing.T) {
	g := New(10, 10)
	ix := NewIndex(g)
	ix.Place(1, Point{X: 4, Y: 3})
	ix.Place(2, Point{X: 3, Y: 4})
	ix.Place(3, Point{X: 5, Y: 5})

	got := ix.Neighbors(Point{X: 4, Y: 4}, 1, MetricChebyshev)
	assert.Equal(t, []Point{{X: 4, Y: 3}, {X: 3, Y: 4}, {X: 5, Y: 5}}, got)
}

func TestSeedResourcesDeterministic(t *testing.T) {
	cfg := FieldConfig{
		Seed:         42,
		DensityA:     0.5,
		DensityB:     0.5,
		MaxAmount:    8,
		RegrowAmount: 1,
		RegrowEvery:  10,
	}
	g1 := New(20, 20)
	g2 := New(20, 20)
	SeedResources(g1, cfg)
	SeedResources(g2, cfg)

	assert.Equal(t, g1.Cells(), g2.Cells())

	// A positive density should place at least one cell of each good
	// on a 400-cell grid, and amounts must respect the cap.
	require.Greater(t, g1.TotalResource(ResourceA), 0)
	require.Greater(t, g1.TotalResource(ResourceB), 0)
	for _, c := range g1.Cells() {
		assert.LessOrEqual(t, c.Amount, cfg.MaxAmount)
		if c.Resource == ResourceNone {
			assert.Zero(t, c.Amount)
		}
	}
}
