// Package api provides the HTTP API for observing and stepping a run.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/talgya/barter-world/internal/engine"
	"github.com/talgya/barter-world/internal/grid"
	"github.com/talgya/barter-world/internal/telemetry"
)

// maxTradesServed caps the /trades response.
const maxTradesServed = 200

// Server serves one simulation over HTTP. All handlers serialize on mu,
// so reads never observe a half-finished tick.
type Server struct {
	Sim      *engine.Simulation
	Recorder *telemetry.Memory // backs the /trades endpoint; may be nil
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	mu      sync.Mutex
	running bool
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", s.handleAgentDetail)
	mux.HandleFunc("/api/v1/grid", s.handleGrid)
	mux.HandleFunc("/api/v1/trades", s.handleTrades)

	// Control endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/step", s.adminOnly(s.handleStep))
	mux.HandleFunc("/api/v1/run", s.adminOnly(s.handleRun))
	mux.HandleFunc("/api/v1/stop", s.adminOnly(s.handleStop))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return ok && token == s.AdminKey
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "control endpoints disabled (no admin key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Snapshot()
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"scenario": s.Sim.Scenario.Name,
		"seed":     s.Sim.Scenario.Seed,
		"tick":     st.Tick,
		"running":  running,
		"stats":    st,
	})
}

type agentSummary struct {
	ID       uint64  `json:"id"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	InvA     int     `json:"inventory_a"`
	InvB     int     `json:"inventory_b"`
	Money    int     `json:"money"`
	Utility  string  `json:"utility"`
	Value    float64 `json:"utility_value"`
	Bid      float64 `json:"bid"`
	Ask      float64 `json:"ask"`
	Cooldown int     `json:"cooldown"`
}

func (s *Server) agentSummary(id uint64) (agentSummary, bool) {
	a, ok := s.Sim.AgentIndex[id]
	if !ok {
		return agentSummary{}, false
	}
	q, _ := s.Sim.Quotes.Quote(a.ID)
	return agentSummary{
		ID:       a.ID,
		X:        a.Pos.X,
		Y:        a.Pos.Y,
		InvA:     a.InvA,
		InvB:     a.InvB,
		Money:    a.Money,
		Utility:  a.Utility.Kind.String(),
		Value:    a.UtilityValue(),
		Bid:      q.Bid,
		Ask:      q.Ask,
		Cooldown: a.Cooldown,
	}, true
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	var out []agentSummary
	s.Sim.Locked(func() {
		out = make([]agentSummary, 0, len(s.Sim.Agents))
		for _, a := range s.Sim.Agents {
			sum, _ := s.agentSummary(a.ID)
			out = append(out, sum)
		}
	})
	writeJSON(w, out)
}

func (s *Server) handleAgentDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/agent/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}

	var (
		sum agentSummary
		ok  bool
	)
	s.Sim.Locked(func() { sum, ok = s.agentSummary(id) })
	if !ok {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, sum)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	type cellOut struct {
		X        int    `json:"x"`
		Y        int    `json:"y"`
		Resource string `json:"resource"`
		Amount   int    `json:"amount"`
	}

	g := s.Sim.Grid
	out := struct {
		Width  int       `json:"width"`
		Height int       `json:"height"`
		Cells  []cellOut `json:"cells"`
	}{Width: g.W, Height: g.H}
	s.Sim.Locked(func() {
		for i := 0; i < g.W*g.H; i++ {
			c := g.CellAt(i)
			if c.Resource == grid.ResourceNone || c.Amount == 0 {
				continue
			}
			out.Cells = append(out.Cells, cellOut{
				X:        c.Pos.X,
				Y:        c.Pos.Y,
				Resource: c.Resource.String(),
				Amount:   c.Amount,
			})
		}
	})
	writeJSON(w, out)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if s.Recorder == nil {
		http.Error(w, "trade history unavailable", http.StatusNotFound)
		return
	}
	var out []telemetry.TradeRecord
	s.Sim.Locked(func() {
		trades := s.Recorder.Trades
		if len(trades) > maxTradesServed {
			trades = trades[len(trades)-maxTradesServed:]
		}
		out = make([]telemetry.TradeRecord, len(trades))
		copy(out, trades)
	})
	writeJSON(w, out)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		http.Error(w, "run in progress", http.StatusConflict)
		return
	}
	if err := s.Sim.AdvanceOneTick(); err != nil {
		slog.Error("tick failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"tick": s.Sim.CurrentTick()})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticks uint64 `json:"ticks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ticks == 0 {
		http.Error(w, "body must be {\"ticks\": n} with n > 0", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, "run in progress", http.StatusConflict)
		return
	}
	s.running = true
	until := s.Sim.LastTick + req.Ticks
	s.mu.Unlock()

	go func() {
		s.Sim.Resume()
		if err := s.Sim.Run(until); err != nil {
			slog.Error("run failed", "error", err)
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	writeJSON(w, map[string]any{"running_until": until})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.Sim.Stop()
	writeJSON(w, map[string]any{"stopping": true})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
