package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/barter-world/internal/agents"
	"github.com/talgya/barter-world/internal/econ"
	"github.com/talgya/barter-world/internal/grid"
)

func linearAgent(id uint64, pos grid.Point, vA, vB float64, invA, invB int) *agents.Agent {
	return &agents.Agent{
		ID:   id,
		Pos:  pos,
		InvA: invA,
		InvB: invB,
		Utility: econ.Params{
			Kind: econ.KindLinear,
			VA:   vA,
			VB:   vB,
		},
	}
}

func newNegotiator(t *testing.T, spread float64, list ...*agents.Agent) (*Negotiator, *QuoteBook) {
	t.Helper()
	book := NewQuoteBook(spread)
	book.RecomputeAll(list)
	cfg := Config{
		InteractionRadius: 1,
		Adjacency:         grid.AdjChebyshev,
		DAMax:             5,
		CooldownTicks:     2,
	}
	return NewNegotiator(cfg, book), book
}

func TestOverlapPicksLargerSurplus(t *testing.T) {
	qi := econ.Quote{Bid: 2.0, Ask: 2.2}
	qj := econ.Quote{Bid: 0.5, Ask: 0.6}
	assert.InDelta(t, 1.4, Overlap(qi, qj), 1e-12) // i buys from j
	assert.InDelta(t, 1.4, Overlap(qj, qi), 1e-12) // symmetric
}

func TestSessionLinearComplementaryTastes(t *testing.T) {
	// Seller values B twice as much as A, buyer the reverse. Both gain
	// one unit of surplus per block at the midpoint price.
	seller := linearAgent(1, grid.Point{X: 0, Y: 0}, 1, 2, 10, 10)
	buyer := linearAgent(2, grid.Point{X: 1, Y: 0}, 2, 1, 10, 10)
	neg, _ := newNegotiator(t, 0.1, seller, buyer)

	blocks, err := neg.Session(seller, buyer)
	require.NoError(t, err)
	require.NotEmpty(t, blocks)

	for _, blk := range blocks {
		assert.Equal(t, uint64(2), blk.BuyerID)
		assert.Equal(t, uint64(1), blk.SellerID)
		assert.Equal(t, int8(-1), blk.Direction) // higher-ID agent bought
		assert.GreaterOrEqual(t, blk.DA, 1)
		assert.GreaterOrEqual(t, blk.DB, 1)
	}

	// Goods are conserved across the session.
	assert.Equal(t, 20, seller.InvA+buyer.InvA)
	assert.Equal(t, 20, seller.InvB+buyer.InvB)
	// A flowed toward the agent who values it.
	assert.Greater(t, buyer.InvA, 10)
	assert.Less(t, seller.InvA, 10)

	// Both entered cooldown and remember each other.
	assert.Equal(t, 2, seller.Cooldown)
	assert.Equal(t, 2, buyer.Cooldown)
	require.NotNil(t, seller.LastPartner)
	assert.Equal(t, uint64(2), *seller.LastPartner)
}

func TestSessionOrderIndependent(t *testing.T) {
	run := func(first, second int) (Block, int, int) {
		a := linearAgent(1, grid.Point{X: 0, Y: 0}, 1, 2, 10, 10)
		b := linearAgent(2, grid.Point{X: 1, Y: 0}, 2, 1, 10, 10)
		neg, _ := newNegotiator(t, 0.1, a, b)
		pair := []*agents.Agent{a, b}
		blocks, err := neg.Session(pair[first], pair[second])
		require.NoError(t, err)
		require.NotEmpty(t, blocks)
		return blocks[0], a.InvA, b.InvA
	}

	blkAB, aInvA, bInvA := run(0, 1)
	blkBA, aInvA2, bInvA2 := run(1, 0)

	// Roles, price, and outcome do not depend on which side initiated.
	assert.Equal(t, blkAB, blkBA)
	assert.Equal(t, aInvA, aInvA2)
	assert.Equal(t, bInvA, bInvA2)
}

func TestProposeSkipsToMinimalFeasibleBlock(t *testing.T) {
	// Midpoint price 0.39: one unit of A rounds to zero units of B, so
	// the minimal block is dA=2, dB=1.
	seller := linearAgent(1, grid.Point{X: 0, Y: 0}, 0.2, 1, 10, 10)
	buyer := linearAgent(2, grid.Point{X: 0, Y: 1}, 0.6, 1, 10, 10)
	neg, _ := newNegotiator(t, 0.1, seller, buyer)

	blocks, err := neg.Session(seller, buyer)
	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	assert.Equal(t, 2, blocks[0].DA)
	assert.Equal(t, 1, blocks[0].DB)
}

func TestMinimalBlockStableUnderLargerCeiling(t *testing.T) {
	// Raising d_a_max never shrinks the chosen block: the search walks
	// up from 1 and stops at the first improving size.
	run := func(daMax int) Block {
		seller := linearAgent(1, grid.Point{X: 0, Y: 0}, 0.2, 1, 20, 20)
		buyer := linearAgent(2, grid.Point{X: 0, Y: 1}, 0.6, 1, 20, 20)
		book := NewQuoteBook(0.1)
		book.RecomputeAll([]*agents.Agent{seller, buyer})
		neg := NewNegotiator(Config{
			InteractionRadius: 1,
			Adjacency:         grid.AdjChebyshev,
			DAMax:             daMax,
			CooldownTicks:     1,
		}, book)
		blocks, err := neg.Session(seller, buyer)
		require.NoError(t, err)
		require.NotEmpty(t, blocks)
		return blocks[0]
	}

	small := run(5)
	large := run(50)
	assert.Equal(t, small.DA, large.DA)
	assert.Equal(t, small.DB, large.DB)
}

func TestSessionNoOverlapNoTrade(t *testing.T) {
	// Identical tastes: quotes coincide, the spread keeps ask above bid,
	// so no surplus exists in either direction.
	a := linearAgent(1, grid.Point{X: 0, Y: 0}, 1, 1, 10, 10)
	b := linearAgent(2, grid.Point{X: 1, Y: 0}, 1, 1, 10, 10)
	neg, _ := newNegotiator(t, 0.1, a, b)

	blocks, err := neg.Session(a, b)
	require.NoError(t, err)
	assert.Empty(t, blocks)
	assert.Zero(t, a.Cooldown)
	assert.Equal(t, 10, a.InvA)
	assert.Equal(t, 10, b.InvB)
}

func TestEligibleRespectsCooldownAndRange(t *testing.T) {
	a := linearAgent(1, grid.Point{X: 0, Y: 0}, 1, 2, 5, 5)
	b := linearAgent(2, grid.Point{X: 1, Y: 1}, 2, 1, 5, 5)
	neg, _ := newNegotiator(t, 0.1, a, b)

	assert.True(t, neg.Eligible(a, b))
	assert.False(t, neg.Eligible(a, a))

	b.Cooldown = 1
	assert.False(t, neg.Eligible(a, b))
	b.Cooldown = 0

	b.Pos = grid.Point{X: 3, Y: 0}
	assert.False(t, neg.Eligible(a, b))
}

func TestSelectPartnerGreatestOverlapLowestID(t *testing.T) {
	a := linearAgent(1, grid.Point{X: 1, Y: 1}, 2, 1, 10, 10)
	weak := linearAgent(2, grid.Point{X: 0, Y: 1}, 1, 1.2, 10, 10)
	strong := linearAgent(3, grid.Point{X: 2, Y: 1}, 1, 2, 10, 10)
	twin := linearAgent(4, grid.Point{X: 1, Y: 0}, 1, 2, 10, 10)
	neg, _ := newNegotiator(t, 0.1, a, weak, strong, twin)

	// strong and twin quote identically; the tie goes to the lower ID.
	got := neg.SelectPartner(a, []*agents.Agent{weak, twin, strong})
	require.NotNil(t, got)
	assert.Equal(t, uint64(3), got.ID)

	// No candidate at all when every quote is on the wrong side.
	solo := linearAgent(9, grid.Point{X: 1, Y: 2}, 2, 1, 10, 10)
	book := NewQuoteBook(0.1)
	book.RecomputeAll([]*agents.Agent{a, solo})
	neg2 := NewNegotiator(Config{InteractionRadius: 1, Adjacency: grid.AdjChebyshev, DAMax: 5, CooldownTicks: 1}, book)
	assert.Nil(t, neg2.SelectPartner(a, []*agents.Agent{solo}))
}

func TestSessionCobbDouglasConvergesTowardBalance(t *testing.T) {
	// A Cobb-Douglas pair with mirrored endowments trades toward more
	// balanced bundles; quotes move after every block so the session
	// terminates before the cap.
	a := &agents.Agent{
		ID: 1, Pos: grid.Point{X: 0, Y: 0}, InvA: 12, InvB: 2,
		Utility: econ.Params{Kind: econ.KindCobbDouglas, WA: 1, WB: 1},
	}
	b := &agents.Agent{
		ID: 2, Pos: grid.Point{X: 0, Y: 1}, InvA: 2, InvB: 12,
		Utility: econ.Params{Kind: econ.KindCobbDouglas, WA: 1, WB: 1},
	}
	neg, _ := newNegotiator(t, 0.05, a, b)

	uA, uB := a.UtilityValue(), b.UtilityValue()
	blocks, err := neg.Session(a, b)
	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	assert.Less(t, len(blocks), DefaultMaxBlocksPerPair)

	assert.Greater(t, a.UtilityValue(), uA)
	assert.Greater(t, b.UtilityValue(), uB)
	assert.Equal(t, 14, a.InvA+b.InvA)
	assert.Equal(t, 14, a.InvB+b.InvB)
}
