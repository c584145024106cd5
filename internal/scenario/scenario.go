// Package scenario loads and validates run configuration. A scenario
// file fully determines a run: identical files and seeds produce
// identical telemetry.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/barter-world/internal/econ"
	"github.com/talgya/barter-world/internal/grid"
)

// ValidationError reports a scenario field that fails its domain check.
// Surfaced before the first tick; never a runtime condition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scenario: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// GridSpec sizes the world.
type GridSpec struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ResourceSpec controls noise-based resource seeding and regrowth.
type ResourceSpec struct {
	DensityA     float64 `yaml:"density_a"`
	DensityB     float64 `yaml:"density_b"`
	MaxAmount    int     `yaml:"max_amount"`
	RegrowAmount int     `yaml:"regrow_amount"`
	RegrowEvery  uint64  `yaml:"regrow_every"`
}

// UtilitySpec is the file form of econ.Params.
type UtilitySpec struct {
	Kind string  `yaml:"kind"`
	WA   float64 `yaml:"w_a"`
	WB   float64 `yaml:"w_b"`
	Rho  float64 `yaml:"rho"`
	VA   float64 `yaml:"v_a"`
	VB   float64 `yaml:"v_b"`
}

// Params resolves the spec into econ parameters, attaching the
// scenario-level epsilons.
func (u UtilitySpec) Params(n NumericsSpec) (econ.Params, error) {
	kind, err := econ.ParseKind(u.Kind)
	if err != nil {
		return econ.Params{}, err
	}
	return econ.Params{
		Kind:   kind,
		WA:     u.WA,
		WB:     u.WB,
		Rho:    u.Rho,
		VA:     u.VA,
		VB:     u.VB,
		EpsMRS: n.EpsilonMRS,
		EpsDU:  n.EpsilonDU,
	}, nil
}

// Range is an inclusive integer interval for generated endowments.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// AgentSpec pins one explicitly placed agent.
type AgentSpec struct {
	ID         uint64      `yaml:"id"`
	X          int         `yaml:"x"`
	Y          int         `yaml:"y"`
	InventoryA int         `yaml:"inventory_a"`
	InventoryB int         `yaml:"inventory_b"`
	Money      int         `yaml:"money"`
	Utility    UtilitySpec `yaml:"utility"`
}

// PopulationSpec describes the agent population: either an explicit
// list, a generated count, or both (explicit agents first, generated
// ones fill in after with IDs above the explicit range).
type PopulationSpec struct {
	Count        int         `yaml:"count"`
	VisionRadius int         `yaml:"vision_radius"`
	MoveBudget   int         `yaml:"move_budget"`
	ForageRate   int         `yaml:"forage_rate"`
	InventoryA   Range       `yaml:"inventory_a"`
	InventoryB   Range       `yaml:"inventory_b"`
	Utility      UtilitySpec `yaml:"utility"`
	Explicit     []AgentSpec `yaml:"explicit"`
}

// TradeSpec tunes the negotiation engine.
type TradeSpec struct {
	Spread            float64 `yaml:"spread"`
	DAMax             int     `yaml:"d_a_max"`
	InteractionRadius int     `yaml:"interaction_radius"`
	Adjacency         string  `yaml:"adjacency"`
	CooldownTicks     int     `yaml:"cooldown_ticks"`
	MaxBlocksPerPair  int     `yaml:"max_blocks_per_pair"`
}

// MovementSpec tunes perception and target scoring.
type MovementSpec struct {
	Metric string  `yaml:"metric"`
	Decay  float64 `yaml:"decay"`
}

// NumericsSpec carries the numeric guard epsilons.
type NumericsSpec struct {
	EpsilonMRS float64 `yaml:"epsilon_mrs"`
	EpsilonDU  float64 `yaml:"epsilon_du"`
}

// TelemetrySpec controls snapshot cadence.
type TelemetrySpec struct {
	SnapshotInterval uint64 `yaml:"snapshot_interval"`
}

// Scenario is the root configuration document.
type Scenario struct {
	Name     string `yaml:"name"`
	Seed     int64  `yaml:"seed"`
	MaxTicks uint64 `yaml:"max_ticks"`

	Grid      GridSpec       `yaml:"grid"`
	Resources ResourceSpec   `yaml:"resources"`
	Agents    PopulationSpec `yaml:"agents"`
	Trade     TradeSpec      `yaml:"trade"`
	Movement  MovementSpec   `yaml:"movement"`
	Numerics  NumericsSpec   `yaml:"numerics"`
	Telemetry TelemetrySpec  `yaml:"telemetry"`
}

// Default returns a scenario with every knob at its documented default.
// Load starts from this and lets the file override.
func Default() Scenario {
	return Scenario{
		Name:     "default",
		Seed:     1,
		MaxTicks: 100,
		Grid:     GridSpec{Width: 32, Height: 32},
		Resources: ResourceSpec{
			DensityA:     0.25,
			DensityB:     0.25,
			MaxAmount:    8,
			RegrowAmount: 1,
			RegrowEvery:  10,
		},
		Agents: PopulationSpec{
			Count:        20,
			VisionRadius: 4,
			MoveBudget:   2,
			ForageRate:   2,
			InventoryA:   Range{Min: 2, Max: 10},
			InventoryB:   Range{Min: 2, Max: 10},
			Utility:      UtilitySpec{Kind: "ces", WA: 1, WB: 1, Rho: 0.5},
		},
		Trade: TradeSpec{
			Spread:            0.1,
			DAMax:             5,
			InteractionRadius: 1,
			Adjacency:         "chebyshev",
			CooldownTicks:     2,
			MaxBlocksPerPair:  16,
		},
		Movement: MovementSpec{Metric: "chebyshev", Decay: 0.85},
		Numerics: NumericsSpec{
			EpsilonMRS: econ.DefaultEpsilon,
			EpsilonDU:  econ.DefaultEpsilon,
		},
		Telemetry: TelemetrySpec{SnapshotInterval: 10},
	}
}

// Load parses a scenario document over the defaults and validates it.
func Load(data []byte) (Scenario, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("scenario: parse: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	return Load(data)
}

// Validate checks every field domain and cross-field constraint.
func (s Scenario) Validate() error {
	if s.Grid.Width < 1 || s.Grid.Height < 1 {
		return invalid("grid", "dimensions must be positive, got %dx%d", s.Grid.Width, s.Grid.Height)
	}
	if s.Resources.DensityA < 0 || s.Resources.DensityA > 1 ||
		s.Resources.DensityB < 0 || s.Resources.DensityB > 1 {
		return invalid("resources", "densities must lie in [0,1]")
	}
	if s.Resources.MaxAmount < 0 || s.Resources.RegrowAmount < 0 {
		return invalid("resources", "amounts must be non-negative")
	}

	if s.Agents.Count < 0 {
		return invalid("agents.count", "must be non-negative")
	}
	if s.Agents.Count == 0 && len(s.Agents.Explicit) == 0 {
		return invalid("agents", "population is empty")
	}
	if s.Agents.Count+len(s.Agents.Explicit) > s.Grid.Width*s.Grid.Height {
		return invalid("agents", "population exceeds cell count")
	}
	if s.Agents.VisionRadius < 0 || s.Agents.MoveBudget < 0 {
		return invalid("agents", "vision_radius and move_budget must be non-negative")
	}
	if s.Agents.ForageRate < 1 {
		return invalid("agents.forage_rate", "must be at least 1")
	}
	for _, r := range []struct {
		name string
		r    Range
	}{{"agents.inventory_a", s.Agents.InventoryA}, {"agents.inventory_b", s.Agents.InventoryB}} {
		if r.r.Min < 0 || r.r.Max < r.r.Min {
			return invalid(r.name, "range must satisfy 0 <= min <= max")
		}
	}
	if s.Agents.Count > 0 {
		p, err := s.Agents.Utility.Params(s.Numerics)
		if err == nil {
			err = p.Validate()
		}
		if err != nil {
			return invalid("agents.utility", "%v", err)
		}
	}
	seen := make(map[uint64]bool, len(s.Agents.Explicit))
	for i, a := range s.Agents.Explicit {
		field := fmt.Sprintf("agents.explicit[%d]", i)
		if a.ID == 0 {
			return invalid(field, "id must be positive")
		}
		if seen[a.ID] {
			return invalid(field, "duplicate id %d", a.ID)
		}
		seen[a.ID] = true
		if a.X < 0 || a.X >= s.Grid.Width || a.Y < 0 || a.Y >= s.Grid.Height {
			return invalid(field, "position (%d,%d) out of bounds", a.X, a.Y)
		}
		if a.InventoryA < 0 || a.InventoryB < 0 || a.Money < 0 {
			return invalid(field, "inventories must be non-negative")
		}
		p, err := a.Utility.Params(s.Numerics)
		if err != nil {
			return invalid(field+".utility", "%v", err)
		}
		if err := p.Validate(); err != nil {
			return invalid(field+".utility", "%v", err)
		}
	}

	if s.Trade.Spread < 0 {
		return invalid("trade.spread", "must be non-negative")
	}
	if s.Trade.DAMax < 1 {
		return invalid("trade.d_a_max", "must be at least 1")
	}
	if s.Trade.InteractionRadius != 0 && s.Trade.InteractionRadius != 1 {
		return invalid("trade.interaction_radius", "must be 0 or 1")
	}
	if _, err := grid.ParseAdjacency(s.Trade.Adjacency); err != nil {
		return invalid("trade.adjacency", "%v", err)
	}
	if s.Trade.CooldownTicks < 0 {
		return invalid("trade.cooldown_ticks", "must be non-negative")
	}
	if s.Trade.MaxBlocksPerPair < 0 {
		return invalid("trade.max_blocks_per_pair", "must be non-negative")
	}

	if _, err := grid.ParseMetric(s.Movement.Metric); err != nil {
		return invalid("movement.metric", "%v", err)
	}
	if s.Movement.Decay <= 0 || s.Movement.Decay > 1 {
		return invalid("movement.decay", "must lie in (0,1]")
	}

	if s.Numerics.EpsilonMRS < 0 || s.Numerics.EpsilonDU < 0 {
		return invalid("numerics", "epsilons must be non-negative")
	}
	return nil
}

// Metric resolves the movement metric. Call after Validate.
func (s Scenario) Metric() grid.Metric {
	m, _ := grid.ParseMetric(s.Movement.Metric)
	return m
}

// Adjacency resolves the trade adjacency. Call after Validate.
func (s Scenario) Adjacency() grid.Adjacency {
	a, _ := grid.ParseAdjacency(s.Trade.Adjacency)
	return a
}
