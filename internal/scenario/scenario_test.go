package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/barter-world/internal/grid"
)

const sampleDoc = `
name: three-traders
seed: 7
max_ticks: 50
grid:
  width: 8
  height: 8
agents:
  count: 0
  forage_rate: 1
  explicit:
    - {id: 1, x: 1, y: 1, inventory_a: 10, inventory_b: 10, utility: {kind: linear, v_a: 1, v_b: 2}}
    - {id: 2, x: 2, y: 1, inventory_a: 10, inventory_b: 10, utility: {kind: linear, v_a: 2, v_b: 1}}
    - {id: 3, x: 1, y: 2, inventory_a: 10, inventory_b: 10, utility: {kind: linear, v_a: 1, v_b: 1}}
trade:
  spread: 0.1
  d_a_max: 5
`

func TestLoadOverridesDefaults(t *testing.T) {
	s, err := Load([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "three-traders", s.Name)
	assert.Equal(t, int64(7), s.Seed)
	assert.Equal(t, 8, s.Grid.Width)
	assert.Len(t, s.Agents.Explicit, 3)

	// Untouched sections keep their defaults.
	assert.Equal(t, "chebyshev", s.Movement.Metric)
	assert.Equal(t, uint64(10), s.Telemetry.SnapshotInterval)
	assert.Equal(t, 2, s.Trade.CooldownTicks)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load([]byte("grid: [not, a, mapping"))
	assert.Error(t, err)
}

func TestValidateCatchesDomainErrors(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*Scenario)
		field string
	}{
		{"zero grid", func(s *Scenario) { s.Grid.Width = 0 }, "grid"},
		{"density above one", func(s *Scenario) { s.Resources.DensityA = 1.5 }, "resources"},
		{"empty population", func(s *Scenario) { s.Agents.Count = 0 }, "agents"},
		{"overfull population", func(s *Scenario) { s.Agents.Count = 10_000 }, "agents"},
		{"zero forage rate", func(s *Scenario) { s.Agents.ForageRate = 0 }, "agents.forage_rate"},
		{"inverted range", func(s *Scenario) { s.Agents.InventoryA = Range{Min: 5, Max: 1} }, "agents.inventory_a"},
		{"bad utility kind", func(s *Scenario) { s.Agents.Utility.Kind = "quasilinear" }, "agents.utility"},
		{"negative spread", func(s *Scenario) { s.Trade.Spread = -0.1 }, "trade.spread"},
		{"zero block size", func(s *Scenario) { s.Trade.DAMax = 0 }, "trade.d_a_max"},
		{"radius two", func(s *Scenario) { s.Trade.InteractionRadius = 2 }, "trade.interaction_radius"},
		{"bad adjacency", func(s *Scenario) { s.Trade.Adjacency = "hex" }, "trade.adjacency"},
		{"bad metric", func(s *Scenario) { s.Movement.Metric = "manhattan" }, "movement.metric"},
		{"zero decay", func(s *Scenario) { s.Movement.Decay = 0 }, "movement.decay"},
		{"negative epsilon", func(s *Scenario) { s.Numerics.EpsilonDU = -1 }, "numerics"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Default()
			tc.edit(&s)
			err := s.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestValidateExplicitAgents(t *testing.T) {
	base := func() Scenario {
		s, err := Load([]byte(sampleDoc))
		require.NoError(t, err)
		return s
	}

	s := base()
	s.Agents.Explicit[1].ID = 1
	assert.Error(t, s.Validate())

	s = base()
	s.Agents.Explicit[0].X = 99
	assert.Error(t, s.Validate())

	s = base()
	s.Agents.Explicit[2].Utility = UtilitySpec{Kind: "linear", VA: 0, VB: 1}
	assert.Error(t, s.Validate())
}

func TestResolvedEnums(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, grid.MetricChebyshev, s.Metric())
	assert.Equal(t, grid.AdjChebyshev, s.Adjacency())

	s.Movement.Metric = "euclidean"
	s.Trade.Adjacency = "von_neumann"
	require.NoError(t, s.Validate())
	assert.Equal(t, grid.MetricEuclidean, s.Metric())
	assert.Equal(t, grid.AdjVonNeumann, s.Adjacency())
}
