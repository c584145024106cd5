package trade

import (
	"fmt"

	"github.com/talgya/barter-world/internal/agents"
	"github.com/talgya/barter-world/internal/econ"
	"github.com/talgya/barter-world/internal/grid"
)

// DefaultMaxBlocksPerPair bounds the block iteration of one pair in one
// tick so a pathological quote cycle cannot stall the tick loop.
const DefaultMaxBlocksPerPair = 16

// Config carries the scenario knobs the negotiator needs.
type Config struct {
	InteractionRadius int // 0 = co-located only, 1 = neighbors trade
	Adjacency         grid.Adjacency
	DAMax             int // largest block size in units of A
	CooldownTicks     int // ticks both parties sit out after a session
	MaxBlocksPerPair  int // 0 selects DefaultMaxBlocksPerPair
}

// Block is one executed trade: the buyer received DA units of A and
// paid DB units of B at the quoted Price. Direction is +1 when the
// lower-ID agent of the pair was the buyer, -1 otherwise, so a pair's
// trade history reads the same regardless of which side initiated.
type Block struct {
	BuyerID   uint64
	SellerID  uint64
	DA        int
	DB        int
	Price     float64
	Direction int8
}

// Negotiator runs bilateral sessions against a shared quote book.
type Negotiator struct {
	cfg  Config
	book *QuoteBook
}

// NewNegotiator wires a negotiator to the quote book it reads and
// refreshes.
func NewNegotiator(cfg Config, book *QuoteBook) *Negotiator {
	if cfg.MaxBlocksPerPair <= 0 {
		cfg.MaxBlocksPerPair = DefaultMaxBlocksPerPair
	}
	return &Negotiator{cfg: cfg, book: book}
}

// Overlap returns the largest positive surplus between two quotes, or a
// non-positive value when neither side's bid crosses the other's ask.
func Overlap(qi, qj econ.Quote) float64 {
	s := qi.Bid - qj.Ask
	if t := qj.Bid - qi.Ask; t > s {
		s = t
	}
	return s
}

// Eligible reports whether two distinct agents may open a session:
// within interaction range under the configured adjacency and neither
// in cooldown.
func (n *Negotiator) Eligible(a, b *agents.Agent) bool {
	if a.ID == b.ID || !a.CanTrade() || !b.CanTrade() {
		return false
	}
	return grid.Adjacent(a.Pos, b.Pos, n.cfg.InteractionRadius, n.cfg.Adjacency)
}

// SelectPartner picks the eligible candidate with the greatest quote
// overlap. Ties break toward the lowest candidate ID; candidates with
// no positive overlap are ignored. Returns nil when no viable partner
// exists. Selection depends only on quotes and IDs, not on the order
// candidates arrive in.
func (n *Negotiator) SelectPartner(a *agents.Agent, candidates []*agents.Agent) *agents.Agent {
	qa, ok := n.book.Quote(a.ID)
	if !ok {
		return nil
	}
	var best *agents.Agent
	var bestOverlap float64
	for _, c := range candidates {
		if !n.Eligible(a, c) {
			continue
		}
		qc, ok := n.book.Quote(c.ID)
		if !ok {
			continue
		}
		s := Overlap(qa, qc)
		if s <= 0 {
			continue
		}
		switch {
		case best == nil, s > bestOverlap:
			best, bestOverlap = c, s
		case s == bestOverlap && c.ID < best.ID:
			best = c
		}
	}
	return best
}

// Session negotiates one eligible pair to exhaustion: it repeatedly
// finds the minimal mutually improving block at the current quotes,
// executes it, refreshes both quotes, and tries again, stopping when no
// block improves both sides or the per-pair cap is hit. Quotes move
// only between blocks, never mid-evaluation. Both agents enter cooldown
// if at least one block executed. A non-nil error means an inventory
// invariant broke and the run must halt.
func (n *Negotiator) Session(a, b *agents.Agent) ([]Block, error) {
	var blocks []Block
	for len(blocks) < n.cfg.MaxBlocksPerPair {
		blk, ok := n.propose(a, b)
		if !ok {
			break
		}
		buyer, seller := a, b
		if blk.BuyerID == b.ID {
			buyer, seller = b, a
		}
		// Buyer gains A and pays B; the seller mirrors. Both deltas
		// apply atomically per agent, and the first apply is revisited
		// if the second fails so a half-trade can never persist.
		if err := buyer.ApplyDelta(blk.DA, -blk.DB); err != nil {
			return blocks, fmt.Errorf("buyer %d: %w", buyer.ID, err)
		}
		if err := seller.ApplyDelta(-blk.DA, blk.DB); err != nil {
			// Roll the buyer back before surfacing the breach.
			if rerr := buyer.ApplyDelta(-blk.DA, blk.DB); rerr != nil {
				return blocks, fmt.Errorf("seller %d: %w (buyer rollback also failed: %v)", seller.ID, err, rerr)
			}
			return blocks, fmt.Errorf("seller %d: %w", seller.ID, err)
		}
		buyer.LastPartner = &seller.ID
		seller.LastPartner = &buyer.ID
		n.book.Recompute(buyer)
		n.book.Recompute(seller)
		blocks = append(blocks, blk)
	}
	if len(blocks) > 0 {
		a.Cooldown = n.cfg.CooldownTicks
		b.Cooldown = n.cfg.CooldownTicks
	}
	return blocks, nil
}

// propose evaluates the pair at current quotes and returns the minimal
// improving block, if any. Roles follow the positive overlap side; when
// both directions cross equally the lower-ID agent buys.
func (n *Negotiator) propose(a, b *agents.Agent) (Block, bool) {
	qa, oka := n.book.Quote(a.ID)
	qb, okb := n.book.Quote(b.ID)
	if !oka || !okb {
		return Block{}, false
	}
	sAB := qa.Bid - qb.Ask // a buys A from b
	sBA := qb.Bid - qa.Ask // b buys A from a
	if sAB <= 0 && sBA <= 0 {
		return Block{}, false
	}
	buyer, seller := a, b
	price := 0.5 * (qb.Ask + qa.Bid)
	if sBA > sAB || (sBA == sAB && b.ID < a.ID) {
		buyer, seller = b, a
		price = 0.5 * (qa.Ask + qb.Bid)
	}

	uBuyer := buyer.UtilityValue()
	uSeller := seller.UtilityValue()
	for dA := 1; dA <= n.cfg.DAMax; dA++ {
		dB := econ.RoundHalfUp(price * float64(dA))
		if dB < 1 {
			continue
		}
		if seller.InvA < dA || buyer.InvB < dB {
			// Larger blocks only need more; stop searching.
			break
		}
		gainBuyer := buyer.Utility.Utility(buyer.InvA+dA, buyer.InvB-dB)
		gainSeller := seller.Utility.Utility(seller.InvA-dA, seller.InvB+dB)
		if !buyer.Utility.Improves(uBuyer, gainBuyer) || !seller.Utility.Improves(uSeller, gainSeller) {
			continue
		}
		dir := int8(1)
		if buyer.ID > seller.ID {
			dir = -1
		}
		return Block{
			BuyerID:   buyer.ID,
			SellerID:  seller.ID,
			DA:        dA,
			DB:        dB,
			Price:     price,
			Direction: dir,
		}, true
	}
	return Block{}, false
}
