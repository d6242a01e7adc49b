// Package main provides the CLI entry point for priosweep, a sweep
// driver that benchmarks the prio/dprio comparison binary across
// dimension and client-count grids.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/priobench/priosweep/grid"
	"github.com/priobench/priosweep/gridfile"
	"github.com/priobench/priosweep/sweep"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	root := newRootCmd(logger, level)
	if err := root.Execute(); err != nil {
		logger.Error("sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "priosweep",
		Short: "Benchmark sweep driver for the prio/dprio comparison binary",
		Long: `Priosweep runs the comparison example binary across fixed dimension
and client-count grids, repeating each grid point for stable samples, and
prints one line of the binary's output per invocation in invocation order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newPlanCmd())

	return root
}

// gridOpts is the flag surface shared by run and plan.
type gridOpts struct {
	binary      string
	modes       []string
	dimensions  []int
	clients     []int
	gridClients int
	clientDim   int
	repeats     int
	configPath  string
}

func addGridFlags(cmd *cobra.Command, opts *gridOpts) {
	def := grid.Default()
	flags := cmd.Flags()

	flags.StringVar(&opts.binary, "bin", def.Binary,
		"Path to the comparison binary")
	flags.StringSliceVar(&opts.modes, "modes", modeStrings(def.Modes),
		"Algorithm variants to sweep")
	flags.IntSliceVar(&opts.dimensions, "dimensions", def.Dimensions,
		"Dimension values for the dimension grid")
	flags.IntSliceVar(&opts.clients, "clients", def.Clients,
		"Client counts for the client grid")
	flags.IntVar(&opts.gridClients, "grid-clients", def.GridClients,
		"Client count held fixed while sweeping dimensions")
	flags.IntVar(&opts.clientDim, "client-dim", def.ClientDim,
		"Dimension held fixed while sweeping client counts")
	flags.IntVar(&opts.repeats, "repeats", def.Repeats,
		"Repeated trials per grid point")
	flags.StringVar(&opts.configPath, "config", "",
		"Path to an HCL sweep definition (replaces the grid flags)")
}

// config resolves the sweep configuration: the HCL file when given,
// otherwise the flag values.
func (o gridOpts) config() (grid.Config, error) {
	if o.configPath != "" {
		return gridfile.Load(o.configPath)
	}

	modes := make([]grid.Mode, len(o.modes))
	for i, m := range o.modes {
		modes[i] = grid.Mode(m)
	}

	cfg := grid.Config{
		Binary:      o.binary,
		Modes:       modes,
		Dimensions:  o.dimensions,
		Clients:     o.clients,
		GridClients: o.gridClients,
		ClientDim:   o.clientDim,
		Repeats:     o.repeats,
	}

	if err := cfg.Validate(); err != nil {
		return grid.Config{}, err
	}

	return cfg, nil
}

func modeStrings(modes []grid.Mode) []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}

	return out
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		opts     gridOpts
		build    bool
		crateDir string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full sweep",
		Long: `Run every invocation of the dimension grid followed by the client
grid, printing one decoded output line per invocation. The first subprocess
failure aborts the whole sweep.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweep(
				cmd.Context(), logger, cmd.OutOrStdout(),
				opts, build, crateDir, timeout,
			)
		},
	}

	addGridFlags(cmd, &opts)

	flags := cmd.Flags()
	flags.BoolVar(&build, "build", false,
		"Build the comparison binary with cargo before sweeping")
	flags.StringVar(&crateDir, "crate-dir", ".",
		"Crate directory for --build")
	flags.DurationVar(&timeout, "timeout", 0,
		"Per-invocation timeout (0 = unlimited)")

	return cmd
}

func runSweep(
	ctx context.Context,
	logger *slog.Logger,
	out io.Writer,
	opts gridOpts,
	build bool,
	crateDir string,
	timeout time.Duration,
) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}

	if build {
		binPath, buildErr := sweep.Build(ctx, logger, crateDir)
		if buildErr != nil {
			return fmt.Errorf("build comparison binary: %w", buildErr)
		}

		// Point the sweep at the freshly built binary unless the user
		// chose a path explicitly.
		if cfg.Binary == grid.Default().Binary {
			cfg.Binary = binPath
		}
	}

	plan, err := grid.Plan(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting sweep",
		slog.String("binary", cfg.Binary),
		slog.Int("invocations", len(plan)),
		slog.Int("repeats", cfg.Repeats),
	)

	runner := sweep.NewRunner(sweep.ExecLauncher{}, out, logger)
	if err := runner.Run(ctx, plan, sweep.RunConfig{Timeout: timeout}); err != nil {
		return err
	}

	logger.Info("sweep complete", slog.Int("invocations", len(plan)))

	return nil
}

func newPlanCmd() *cobra.Command {
	var opts gridOpts

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the ordered invocation list without executing anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}

			plan, err := grid.Plan(cfg)
			if err != nil {
				return err
			}

			for _, inv := range plan {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(inv.Argv(), " "))
			}

			return nil
		},
	}

	addGridFlags(cmd, &opts)

	return cmd
}
