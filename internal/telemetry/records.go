// Package telemetry defines the run's output records and the recorders
// that persist them. Records are emitted in tick order; a recorder must
// preserve that order.
package telemetry

import "time"

// RunHeader identifies one run: written once before the first tick.
type RunHeader struct {
	RunID     string    `db:"run_id"`
	Scenario  string    `db:"scenario"`
	Seed      int64     `db:"seed"`
	StartedAt time.Time `db:"started_at"`
}

// TradeRecord is one executed trade block. Direction is +1 when the
// lower-ID agent of the pair bought A, -1 otherwise.
type TradeRecord struct {
	Tick      uint64  `db:"tick"`
	X         int     `db:"x"`
	Y         int     `db:"y"`
	BuyerID   uint64  `db:"buyer_id"`
	SellerID  uint64  `db:"seller_id"`
	DeltaA    int     `db:"delta_a"`
	DeltaB    int     `db:"delta_b"`
	Price     float64 `db:"price"`
	Direction int8    `db:"direction"`
}

// AgentSnapshot is one agent's state at a snapshot tick. PartnerID is
// nil when the agent did not trade that tick.
type AgentSnapshot struct {
	Tick         uint64  `db:"tick"`
	AgentID      uint64  `db:"agent_id"`
	X            int     `db:"x"`
	Y            int     `db:"y"`
	InvA         int     `db:"inv_a"`
	InvB         int     `db:"inv_b"`
	UtilityValue float64 `db:"utility_value"`
	UtilityKind  string  `db:"utility_kind"`
	PartnerID    *uint64 `db:"partner_id"`
}

// ResourceSnapshot is one non-empty cell's state at a snapshot tick.
type ResourceSnapshot struct {
	Tick     uint64 `db:"tick"`
	CellID   int    `db:"cell_id"`
	X        int    `db:"x"`
	Y        int    `db:"y"`
	Resource string `db:"resource"`
	Amount   int    `db:"amount"`
}

// Recorder persists run output. Implementations must apply records in
// the order the calls arrive. Close flushes and releases the sink.
type Recorder interface {
	Begin(h RunHeader) error
	RecordTrade(r TradeRecord) error
	RecordAgent(r AgentSnapshot) error
	RecordResource(r ResourceSnapshot) error
	Close() error
}
