// Package engine assembles the world from a scenario and drives the
// tick loop. Every phase iterates agents in ascending identity order;
// given the same scenario and seed two runs emit identical telemetry.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/talgya/barter-world/internal/agents"
	"github.com/talgya/barter-world/internal/entropy"
	"github.com/talgya/barter-world/internal/grid"
	"github.com/talgya/barter-world/internal/scenario"
	"github.com/talgya/barter-world/internal/telemetry"
	"github.com/talgya/barter-world/internal/trade"
)

// Sub-stream offsets off the run seed. Fixed so a seed alone pins every
// random draw of a run.
const (
	offsetDecision = 100
	offsetSpawn    = 300
)

// SimStats tracks aggregate world statistics, refreshed each tick.
type SimStats struct {
	Tick           uint64  `json:"tick"`
	Agents         int     `json:"agents"`
	TotalInvA      int     `json:"total_inventory_a"`
	TotalInvB      int     `json:"total_inventory_b"`
	GroundA        int     `json:"ground_a"`
	GroundB        int     `json:"ground_b"`
	Trades         uint64  `json:"trades"`
	TradedA        uint64  `json:"traded_a"`
	TradedB        uint64  `json:"traded_b"`
	AvgUtility     float64 `json:"avg_utility"`
	LastTickTrades int     `json:"last_tick_trades"`
}

// Simulation holds the complete world state and wires systems together.
type Simulation struct {
	mu sync.Mutex

	Scenario scenario.Scenario
	Grid     *grid.Grid
	Index    *grid.Index

	Agents     []*agents.Agent
	AgentIndex map[uint64]*agents.Agent

	Quotes     *trade.QuoteBook
	Negotiator *trade.Negotiator

	recorder    telemetry.Recorder
	decisionRNG *entropy.Source

	LastTick uint64
	Stats    SimStats

	stopped bool
}

// New builds a simulation from a validated scenario: grid, resource
// field, population, spatial index, and the initial quote book.
func New(sc scenario.Scenario, rec telemetry.Recorder) (*Simulation, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	g := grid.New(sc.Grid.Width, sc.Grid.Height)
	grid.SeedResources(g, grid.FieldConfig{
		Seed:         sc.Seed,
		DensityA:     sc.Resources.DensityA,
		DensityB:     sc.Resources.DensityB,
		MaxAmount:    sc.Resources.MaxAmount,
		RegrowAmount: sc.Resources.RegrowAmount,
		RegrowEvery:  sc.Resources.RegrowEvery,
	})
	idx := grid.NewIndex(g)

	root := entropy.NewSource(sc.Seed)
	pop, err := buildPopulation(sc, g, idx, root)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint64]*agents.Agent, len(pop))
	for _, a := range pop {
		byID[a.ID] = a
	}

	quotes := trade.NewQuoteBook(sc.Trade.Spread)
	quotes.RecomputeAll(pop)
	neg := trade.NewNegotiator(trade.Config{
		InteractionRadius: sc.Trade.InteractionRadius,
		Adjacency:         sc.Adjacency(),
		DAMax:             sc.Trade.DAMax,
		CooldownTicks:     sc.Trade.CooldownTicks,
		MaxBlocksPerPair:  sc.Trade.MaxBlocksPerPair,
	}, quotes)

	sim := &Simulation{
		Scenario:    sc,
		Grid:        g,
		Index:       idx,
		Agents:      pop,
		AgentIndex:  byID,
		Quotes:      quotes,
		Negotiator:  neg,
		recorder:    rec,
		decisionRNG: root.Derive(offsetDecision),
	}
	sim.refreshStats(0)

	slog.Info("simulation built",
		"scenario", sc.Name,
		"seed", sc.Seed,
		"grid", fmt.Sprintf("%dx%d", g.W, g.H),
		"agents", len(pop),
		"ground_a", g.TotalResource(grid.ResourceA),
		"ground_b", g.TotalResource(grid.ResourceB))
	return sim, nil
}

// buildPopulation places explicit agents first, then fills in generated
// ones with IDs above the explicit range. The result is sorted by ID.
func buildPopulation(sc scenario.Scenario, g *grid.Grid, idx *grid.Index, root *entropy.Source) ([]*agents.Agent, error) {
	pop := make([]*agents.Agent, 0, len(sc.Agents.Explicit)+sc.Agents.Count)

	var maxID uint64
	for _, spec := range sc.Agents.Explicit {
		params, err := spec.Utility.Params(sc.Numerics)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", spec.ID, err)
		}
		a := &agents.Agent{
			ID:         spec.ID,
			Pos:        grid.Point{X: spec.X, Y: spec.Y},
			InvA:       spec.InventoryA,
			InvB:       spec.InventoryB,
			Money:      spec.Money,
			Utility:    params,
			Vision:     sc.Agents.VisionRadius,
			MoveBudget: sc.Agents.MoveBudget,
			Target:     grid.Point{X: spec.X, Y: spec.Y},
		}
		idx.Place(a.ID, a.Pos)
		pop = append(pop, a)
		if a.ID > maxID {
			maxID = a.ID
		}
	}

	if sc.Agents.Count > 0 {
		params, err := sc.Agents.Utility.Params(sc.Numerics)
		if err != nil {
			return nil, err
		}
		sp := agents.NewSpawner(root.Derive(offsetSpawn))
		sp.SetNextID(maxID + 1)
		pop = append(pop, sp.SpawnPopulation(agents.SpawnConfig{
			Count:      sc.Agents.Count,
			Vision:     sc.Agents.VisionRadius,
			MoveBudget: sc.Agents.MoveBudget,
			InvAMin:    sc.Agents.InventoryA.Min,
			InvAMax:    sc.Agents.InventoryA.Max,
			InvBMin:    sc.Agents.InventoryB.Min,
			InvBMax:    sc.Agents.InventoryB.Max,
			Utility:    params,
		}, g, idx)...)
	}

	return agents.ByID(pop), nil
}

// CurrentTick returns the most recently completed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastTick
}

// Locked runs f with the simulation lock held, for readers that walk
// world state while a run may be advancing on another goroutine. f must
// not call back into locking methods.
func (s *Simulation) Locked(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f()
}

// Snapshot returns a copy of the current aggregate stats.
func (s *Simulation) Snapshot() SimStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Stats
}

// refreshStats recomputes the aggregate counters after a tick.
// The -Inf utility of a zero-coordinate Cobb-Douglas bundle is left
// out of the average.
func (s *Simulation) refreshStats(blocks int) {
	st := SimStats{
		Tick:           s.LastTick,
		Agents:         len(s.Agents),
		GroundA:        s.Grid.TotalResource(grid.ResourceA),
		GroundB:        s.Grid.TotalResource(grid.ResourceB),
		Trades:         s.Stats.Trades,
		TradedA:        s.Stats.TradedA,
		TradedB:        s.Stats.TradedB,
		LastTickTrades: blocks,
	}
	var uSum float64
	var finite int
	for _, a := range s.Agents {
		st.TotalInvA += a.InvA
		st.TotalInvB += a.InvB
		if u := a.UtilityValue(); !math.IsInf(u, 0) && !math.IsNaN(u) {
			uSum += u
			finite++
		}
	}
	if finite > 0 {
		st.AvgUtility = uSum / float64(finite)
	}
	s.Stats = st
}
