package telemetry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// flushBatch is how many records the background writer groups into one
// transaction.
const flushBatch = 512

var errStoreClosed = errors.New("telemetry: store closed")

// Store persists records to SQLite. Records flow through an ordered
// channel to a single background writer, so the tick loop never blocks
// on disk except when the channel backs up. The writer preserves
// arrival order.
type Store struct {
	conn *sqlx.DB
	ch   chan any
	done chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

// Open opens or creates the telemetry database at the given path and
// starts the background writer.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}

	s := &Store{
		conn: conn,
		ch:   make(chan any, 4*flushBatch),
		done: make(chan struct{}),
	}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate telemetry db: %w", err)
	}
	go s.writeLoop()
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		buyer_id INTEGER NOT NULL,
		seller_id INTEGER NOT NULL,
		delta_a INTEGER NOT NULL,
		delta_b INTEGER NOT NULL,
		price REAL NOT NULL,
		direction INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agent_snapshots (
		tick INTEGER NOT NULL,
		agent_id INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		inv_a INTEGER NOT NULL,
		inv_b INTEGER NOT NULL,
		utility_value REAL NOT NULL,
		utility_kind TEXT NOT NULL,
		partner_id INTEGER,
		PRIMARY KEY (tick, agent_id)
	);

	CREATE TABLE IF NOT EXISTS resource_snapshots (
		tick INTEGER NOT NULL,
		cell_id INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		resource TEXT NOT NULL,
		amount INTEGER NOT NULL,
		PRIMARY KEY (tick, cell_id)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_tick ON trades(tick);
	CREATE INDEX IF NOT EXISTS idx_trades_buyer ON trades(buyer_id);
	CREATE INDEX IF NOT EXISTS idx_trades_seller ON trades(seller_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Begin writes the run header synchronously so a crash mid-run still
// leaves an identifiable database.
func (s *Store) Begin(h RunHeader) error {
	_, err := s.conn.Exec(
		"INSERT INTO runs (run_id, scenario, seed, started_at) VALUES (?, ?, ?, ?)",
		h.RunID, h.Scenario, h.Seed, h.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
	)
	if err != nil {
		return fmt.Errorf("insert run header: %w", err)
	}
	slog.Info("telemetry run started", "run_id", h.RunID, "scenario", h.Scenario, "seed", h.Seed)
	return nil
}

func (s *Store) RecordTrade(r TradeRecord) error { return s.send(r) }

func (s *Store) RecordAgent(r AgentSnapshot) error { return s.send(r) }

func (s *Store) RecordResource(r ResourceSnapshot) error { return s.send(r) }

func (s *Store) send(rec any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errStoreClosed
	}
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.ch <- rec
	return nil
}

// Close flushes pending records, stops the writer, and closes the
// database. Returns the first write error the background writer hit.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.ch)
	<-s.done

	cerr := s.conn.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	return cerr
}

func (s *Store) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	slog.Error("telemetry write failed", "error", err)
}

func (s *Store) writeLoop() {
	defer close(s.done)
	batch := make([]any, 0, flushBatch)
	for rec := range s.ch {
		batch = append(batch, rec)
		if len(batch) >= flushBatch {
			if err := s.flush(batch); err != nil {
				s.setErr(err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := s.flush(batch); err != nil {
			s.setErr(err)
		}
	}
}

func (s *Store) flush(batch []any) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range batch {
		switch r := rec.(type) {
		case TradeRecord:
			_, err = tx.Exec(`INSERT INTO trades
				(tick, x, y, buyer_id, seller_id, delta_a, delta_b, price, direction)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.Tick, r.X, r.Y, r.BuyerID, r.SellerID, r.DeltaA, r.DeltaB, r.Price, r.Direction)
		case AgentSnapshot:
			_, err = tx.Exec(`INSERT INTO agent_snapshots
				(tick, agent_id, x, y, inv_a, inv_b, utility_value, utility_kind, partner_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.Tick, r.AgentID, r.X, r.Y, r.InvA, r.InvB, r.UtilityValue, r.UtilityKind, r.PartnerID)
		case ResourceSnapshot:
			_, err = tx.Exec(`INSERT INTO resource_snapshots
				(tick, cell_id, x, y, resource, amount)
				VALUES (?, ?, ?, ?, ?, ?)`,
				r.Tick, r.CellID, r.X, r.Y, r.Resource, r.Amount)
		default:
			err = fmt.Errorf("unknown record type %T", rec)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
