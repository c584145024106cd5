// Agent spawning — creates the initial population with endowments and
// utility parameters. Identity order is the order of creation.
package agents

import (
	"github.com/talgya/barter-world/internal/econ"
	"github.com/talgya/barter-world/internal/entropy"
	"github.com/talgya/barter-world/internal/grid"
)

// SpawnConfig controls generated population creation.
type SpawnConfig struct {
	Count      int
	Vision     int
	MoveBudget int

	// Inclusive endowment ranges for the two goods.
	InvAMin, InvAMax int
	InvBMin, InvBMax int

	Utility econ.Params
}

// Spawner creates agents and issues identities.
type Spawner struct {
	rng    *entropy.Source
	nextID uint64
}

// NewSpawner creates a spawner on its own sub-stream of the run seed.
func NewSpawner(rng *entropy.Source) *Spawner {
	return &Spawner{rng: rng, nextID: 1}
}

// SetNextID advances the identity counter past explicitly placed
// agents so generated IDs never collide.
func (s *Spawner) SetNextID(id uint64) {
	s.nextID = id
}

// SpawnPopulation creates cfg.Count agents on unoccupied cells of the
// grid. Positions draw from the spawner's stream; occupied cells are
// re-rolled, so the caller must guarantee enough free cells exist.
func (s *Spawner) SpawnPopulation(cfg SpawnConfig, g *grid.Grid, idx *grid.Index) []*Agent {
	out := make([]*Agent, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		a := s.spawnOne(cfg, g, idx)
		idx.Place(a.ID, a.Pos)
		out = append(out, a)
	}
	return out
}

func (s *Spawner) spawnOne(cfg SpawnConfig, g *grid.Grid, idx *grid.Index) *Agent {
	id := s.nextID
	s.nextID++

	var pos grid.Point
	for {
		pos = grid.Point{X: s.rng.Intn(g.W), Y: s.rng.Intn(g.H)}
		if len(idx.OccupantsAt(pos)) == 0 {
			break
		}
	}

	return &Agent{
		ID:         id,
		Pos:        pos,
		InvA:       s.rollRange(cfg.InvAMin, cfg.InvAMax),
		InvB:       s.rollRange(cfg.InvBMin, cfg.InvBMax),
		Utility:    cfg.Utility,
		Vision:     cfg.Vision,
		MoveBudget: cfg.MoveBudget,
		Target:     pos,
	}
}

func (s *Spawner) rollRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.rng.Intn(max-min+1)
}
