// The tick loop. A tick runs six phases in fixed order: perception,
// decision, movement, trade, forage, housekeeping. The tick counter
// advances only after every phase commits, so a fatal error leaves the
// world at its last completed tick.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/barter-world/internal/agents"
	"github.com/talgya/barter-world/internal/forage"
	"github.com/talgya/barter-world/internal/grid"
	"github.com/talgya/barter-world/internal/telemetry"
)

// Begin writes the run header and the tick-zero snapshots. Call once
// before the first tick.
func (s *Simulation) Begin(h telemetry.RunHeader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.recorder.Begin(h); err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return s.emitSnapshots(0)
}

// AdvanceOneTick runs one complete tick. A non-nil error is fatal: the
// world remains at the previous tick and must not be advanced again.
func (s *Simulation) AdvanceOneTick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advance()
}

// Run advances until maxTicks complete ticks, Stop is called, or a
// fatal error occurs. maxTicks counts from zero, not from the current
// tick.
func (s *Simulation) Run(maxTicks uint64) error {
	start := time.Now()
	for {
		s.mu.Lock()
		if s.stopped || s.LastTick >= maxTicks {
			tick := s.LastTick
			s.mu.Unlock()
			slog.Info("run finished", "tick", tick, "elapsed", time.Since(start))
			return nil
		}
		err := s.advance()
		s.mu.Unlock()
		if err != nil {
			return err
		}
	}
}

// Stop makes Run return before the next tick. Safe to call from other
// goroutines; a tick in flight completes first.
func (s *Simulation) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// Resume clears a Stop so stepping can continue.
func (s *Simulation) Resume() {
	s.mu.Lock()
	s.stopped = false
	s.mu.Unlock()
}

// advance runs one tick. Caller holds the lock.
func (s *Simulation) advance() error {
	tick := s.LastTick + 1

	s.perception()
	s.decision()
	s.movement()
	blocks, err := s.tradePhase(tick)
	if err != nil {
		return fmt.Errorf("tick %d: trade: %w", tick, err)
	}
	s.foragePhase(tick)
	if err := s.housekeeping(tick); err != nil {
		return fmt.Errorf("tick %d: housekeeping: %w", tick, err)
	}

	s.LastTick = tick
	s.Stats.Trades += uint64(blocks)
	s.refreshStats(blocks)
	return nil
}

// perception opens the tick: last-tick partner marks clear so this
// tick's snapshots report only this tick's trades.
func (s *Simulation) perception() {
	for _, a := range s.Agents {
		a.LastPartner = nil
	}
}

// decision picks every agent's movement target against frozen world
// state. Agents are scanned in ascending identity order and each draws
// from the shared decision stream, so targets are reproducible.
func (s *Simulation) decision() {
	metric := s.Scenario.Metric()
	for _, a := range s.Agents {
		a.Target = agents.ChooseTarget(a, s.Grid, metric, s.Scenario.Agents.ForageRate, s.Scenario.Movement.Decay, s.decisionRNG)
	}
}

// movement walks each agent up to its move budget toward its target,
// updating the spatial index as it goes.
func (s *Simulation) movement() {
	for _, a := range s.Agents {
		moved := false
		for i := 0; i < a.MoveBudget && a.Pos != a.Target; i++ {
			a.Pos = s.Grid.Clamp(agents.StepToward(a.Pos, a.Target))
			moved = true
		}
		if moved {
			s.Index.Move(a.ID, a.Pos)
		}
	}
}

// tradePhase runs one negotiation session per eligible pair. Each agent
// in ascending identity order picks its best-overlap partner among
// in-range candidates; a completed session puts both sides into
// cooldown, which keeps them out of later pairings this tick.
func (s *Simulation) tradePhase(tick uint64) (int, error) {
	radius := s.Scenario.Trade.InteractionRadius
	total := 0
	for _, a := range s.Agents {
		if !a.CanTrade() {
			continue
		}
		ids := s.Index.AgentsWithin(a.Pos, radius, grid.MetricChebyshev, a.ID)
		if len(ids) == 0 {
			continue
		}
		cands := make([]*agents.Agent, 0, len(ids))
		for _, id := range ids {
			cands = append(cands, s.AgentIndex[id])
		}
		partner := s.Negotiator.SelectPartner(a, cands)
		if partner == nil {
			continue
		}

		blocks, err := s.Negotiator.Session(a, partner)
		if err != nil {
			return total, err
		}
		for _, blk := range blocks {
			buyer := s.AgentIndex[blk.BuyerID]
			rec := telemetry.TradeRecord{
				Tick:      tick,
				X:         buyer.Pos.X,
				Y:         buyer.Pos.Y,
				BuyerID:   blk.BuyerID,
				SellerID:  blk.SellerID,
				DeltaA:    blk.DA,
				DeltaB:    blk.DB,
				Price:     blk.Price,
				Direction: blk.Direction,
			}
			if err := s.recorder.RecordTrade(rec); err != nil {
				return total, err
			}
			s.Stats.TradedA += uint64(blk.DA)
			s.Stats.TradedB += uint64(blk.DB)
		}
		total += len(blocks)
	}
	return total, nil
}

// foragePhase harvests the cell under each agent, refreshes the quote
// of anyone whose inventory changed, then fires due regrowth pulses in
// row-major order.
func (s *Simulation) foragePhase(tick uint64) {
	rate := s.Scenario.Agents.ForageRate
	for _, a := range s.Agents {
		cell := s.Grid.Cell(a.Pos)
		if cell == nil {
			continue
		}
		kind := cell.Resource
		taken := forage.Harvest(cell, rate)
		if taken == 0 {
			continue
		}
		switch kind {
		case grid.ResourceA:
			a.InvA += taken
		case grid.ResourceB:
			a.InvB += taken
		}
		s.Quotes.Recompute(a)
	}

	for i := 0; i < s.Grid.W*s.Grid.H; i++ {
		forage.Regrow(s.Grid.CellAt(i), tick)
	}
}

// housekeeping closes the tick: cooldowns count down and snapshots go
// out on the configured cadence.
func (s *Simulation) housekeeping(tick uint64) error {
	for _, a := range s.Agents {
		if a.Cooldown > 0 {
			a.Cooldown--
		}
	}

	interval := s.Scenario.Telemetry.SnapshotInterval
	if interval > 0 && tick%interval == 0 {
		return s.emitSnapshots(tick)
	}
	return nil
}

// emitSnapshots writes one record per agent and one per non-empty cell,
// agents in identity order, cells in row-major order.
func (s *Simulation) emitSnapshots(tick uint64) error {
	for _, a := range s.Agents {
		rec := telemetry.AgentSnapshot{
			Tick:         tick,
			AgentID:      a.ID,
			X:            a.Pos.X,
			Y:            a.Pos.Y,
			InvA:         a.InvA,
			InvB:         a.InvB,
			UtilityValue: a.UtilityValue(),
			UtilityKind:  a.Utility.Kind.String(),
			PartnerID:    a.LastPartner,
		}
		if err := s.recorder.RecordAgent(rec); err != nil {
			return err
		}
	}
	for i := 0; i < s.Grid.W*s.Grid.H; i++ {
		c := s.Grid.CellAt(i)
		if c.Resource == grid.ResourceNone || c.Amount == 0 {
			continue
		}
		rec := telemetry.ResourceSnapshot{
			Tick:     tick,
			CellID:   i,
			X:        c.Pos.X,
			Y:        c.Pos.Y,
			Resource: c.Resource.String(),
			Amount:   c.Amount,
		}
		if err := s.recorder.RecordResource(rec); err != nil {
			return err
		}
	}
	return nil
}
