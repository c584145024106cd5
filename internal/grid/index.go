// Spatial occupancy index: cell → occupant mapping, updated
// incrementally as agents move. Neighbor queries scan the radius window
// rather than the agent population, so lookups stay cheap on large
// grids with hundreds of agents.
package grid

import "sort"

// Index maps occupied cells to the agents standing on them. Occupant
// lists are kept sorted ascending so every query is deterministic.
type Index struct {
	grid      *Grid
	occupants map[Point][]uint64
	positions map[uint64]Point
}

// NewIndex creates an empty index over g.
func NewIndex(g *Grid) *Index {
	return &Index{
		grid:      g,
		occupants: make(map[Point][]uint64),
		positions: make(map[uint64]Point),
	}
}

// Place registers an agent at p. An agent already placed is moved.
func (ix *Index) Place(id uint64, p Point) {
	if old, ok := ix.positions[id]; ok {
		if old == p {
			return
		}
		ix.remove(id, old)
	}
	ix.positions[id] = p
	ids := append(ix.occupants[p], id)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	ix.occupants[p] = ids
}

// Move relocates an agent to p. Called once per agent after the
// Movement phase so the index is current before the Trade phase runs.
func (ix *Index) Move(id uint64, p Point) {
	ix.Place(id, p)
}

func (ix *Index) remove(id uint64, p Point) {
	ids := ix.occupants[p]
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(ix.occupants, p)
	} else {
		ix.occupants[p] = ids
	}
}

// Position returns an agent's registered position.
func (ix *Index) Position(id uint64) (Point, bool) {
	p, ok := ix.positions[id]
	return p, ok
}

// OccupantsAt returns the agents on cell p in ascending identity order.
// The returned slice is owned by the index; callers must not mutate it.
func (ix *Index) OccupantsAt(p Point) []uint64 {
	return ix.occupants[p]
}

// Neighbors returns the occupied positions within radius of p under the
// metric, in row-major window order. The origin cell is included when
// occupied.
func (ix *Index) Neighbors(p Point, radius int, m Metric) []Point {
	var out []Point
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			q := Point{X: p.X + dx, Y: p.Y + dy}
			if !ix.grid.InBounds(q) || !Within(p, q, radius, m) {
				continue
			}
			if len(ix.occupants[q]) > 0 {
				out = append(out, q)
			}
		}
	}
	return out
}

// AgentsWithin returns the agents within radius of p, excluding the
// given id, ordered by window scan then ascending identity.
func (ix *Index) AgentsWithin(p Point, radius int, m Metric, exclude uint64) []uint64 {
	var out []uint64
	for _, q := range ix.Neighbors(p, radius, m) {
		for _, id := range ix.occupants[q] {
			if id != exclude {
				out = append(out, id)
			}
		}
	}
	return out
}
