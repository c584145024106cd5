package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/talgya/barter-world/internal/api"
	"github.com/talgya/barter-world/internal/engine"
	"github.com/talgya/barter-world/internal/scenario"
	"github.com/talgya/barter-world/internal/telemetry"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bartersim",
		Short: "Deterministic spatial barter economy simulation",
		Long: `bartersim runs a tick-based simulation of foraging agents that
barter two goods on a grid. Given the same scenario file and seed, a
run reproduces its telemetry exactly.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newValidateCmd(), newServeCmd())
	return root
}

func loadScenario(path string, seed int64) (scenario.Scenario, error) {
	sc, err := scenario.LoadFile(path)
	if err != nil {
		return scenario.Scenario{}, err
	}
	if seed != 0 {
		sc.Seed = seed
	}
	return sc, nil
}

func newRunCmd() *cobra.Command {
	var (
		dbPath string
		seed   int64
		ticks  uint64
	)
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario to completion and write telemetry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(args[0], seed)
			if err != nil {
				return err
			}
			if ticks > 0 {
				sc.MaxTicks = ticks
			}

			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			store, err := telemetry.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			sim, err := engine.New(sc, store)
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			start := time.Now()
			if err := sim.Begin(telemetry.RunHeader{
				RunID:     runID,
				Scenario:  sc.Name,
				Seed:      sc.Seed,
				StartedAt: start,
			}); err != nil {
				return err
			}
			if err := sim.Run(sc.MaxTicks); err != nil {
				return err
			}
			if err := store.Close(); err != nil {
				return err
			}

			st := sim.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %s ticks in %s\n",
				runID, humanize.Comma(int64(st.Tick)), time.Since(start).Round(time.Millisecond))
			fmt.Fprintf(cmd.OutOrStdout(), "  trades: %s (%s A for %s B)\n",
				humanize.Comma(int64(st.Trades)), humanize.Comma(int64(st.TradedA)), humanize.Comma(int64(st.TradedB)))
			fmt.Fprintf(cmd.OutOrStdout(), "  inventories: %s A / %s B held, %s A / %s B on the ground\n",
				humanize.Comma(int64(st.TotalInvA)), humanize.Comma(int64(st.TotalInvB)),
				humanize.Comma(int64(st.GroundA)), humanize.Comma(int64(st.GroundB)))
			fmt.Fprintf(cmd.OutOrStdout(), "  telemetry: %s\n", dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "data/run.db", "telemetry SQLite path")
	cmd.Flags().Int64Var(&seed, "seed", 0, "override the scenario seed")
	cmd.Flags().Uint64Var(&ticks, "ticks", 0, "override max_ticks")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Check a scenario file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.LoadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d explicit + %d generated agents on %dx%d, seed %d)\n",
				sc.Name, len(sc.Agents.Explicit), sc.Agents.Count, sc.Grid.Width, sc.Grid.Height, sc.Seed)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	var (
		port int
		seed int64
	)
	cmd := &cobra.Command{
		Use:   "serve <scenario.yaml>",
		Short: "Load a scenario and expose it over the HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(args[0], seed)
			if err != nil {
				return err
			}

			rec := telemetry.NewMemory()
			sim, err := engine.New(sc, rec)
			if err != nil {
				return err
			}
			if err := sim.Begin(telemetry.RunHeader{
				RunID:     uuid.NewString(),
				Scenario:  sc.Name,
				Seed:      sc.Seed,
				StartedAt: time.Now(),
			}); err != nil {
				return err
			}

			srv := &api.Server{
				Sim:      sim,
				Recorder: rec,
				Port:     port,
				AdminKey: os.Getenv("BARTERSIM_ADMIN_KEY"),
			}
			srv.Start()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			slog.Info("shutting down")
			sim.Stop()
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP listen port")
	cmd.Flags().Int64Var(&seed, "seed", 0, "override the scenario seed")
	return cmd
}
