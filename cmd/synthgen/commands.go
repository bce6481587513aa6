package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/db"
	"github.com/vantagecv/synthgen/internal/scene"
	"github.com/vantagecv/synthgen/internal/sweep"
)

// ConfigPath is used when neither --config nor SYNTHGEN_CONFIG is set.
const ConfigPath = "configs/synthgen.yaml"

type options struct {
	configPath string
	scenePath  string
	seed       int64
	passes     int
	workers    int
	limit      int

	cfg config.Generator
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "synthgen",
		Short: "Deterministic scene placement for synthetic data generation",
		Long: `synthgen places vehicles and props into a scene from named anchors,
reproducibly from a seed, and verifies that no managed entity leaks between passes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $SYNTHGEN_CONFIG or "+ConfigPath+")")
	root.PersistentFlags().StringVar(&opts.scenePath, "scene", "", "scene fixture, overrides scene_path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run placement passes and print their manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPasses(cmd.Context(), opts.cfg, cmd.OutOrStdout())
		},
	}
	runCmd.Flags().Int64Var(&opts.seed, "seed", 0, "master seed, negative draws one from entropy")
	runCmd.Flags().IntVar(&opts.passes, "passes", 0, "number of passes")
	runCmd.Flags().IntVar(&opts.workers, "workers", 0, "passes run concurrently")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Hide every managed entity in the scene and report leaks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts.cfg, cmd.OutOrStdout())
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply manifest store migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.RunMigrations(cmd.Context(), opts.cfg.Database.DSN()); err != nil {
				return err
			}
			slog.Info("database migrations applied")
			return nil
		},
	}

	passesCmd := &cobra.Command{
		Use:   "passes",
		Short: "List recently stored passes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPasses(cmd, opts.cfg, opts.limit)
		},
	}
	passesCmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum passes to list")

	root.AddCommand(runCmd, sweepCmd, migrateCmd, passesCmd)
	return root
}

// load reads the config, applies flag overrides and installs the logger.
func (o *options) load(cmd *cobra.Command) error {
	path := o.configPath
	if path == "" {
		path = ConfigPath
		if p := os.Getenv("SYNTHGEN_CONFIG"); p != "" {
			path = p
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if o.scenePath != "" {
		cfg.ScenePath = o.scenePath
	}
	if flags.Changed("seed") {
		cfg.Seed = o.seed
	}
	if flags.Changed("passes") {
		cfg.Passes = o.passes
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))
	slog.Debug("config loaded", "path", path, "scene", cfg.ScenePath, "seed", cfg.Seed, "passes", cfg.Passes)
	return nil
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

var errNoScene = errors.New("no scene: set scene_path or --scene")

func loadFixture(cfg config.Generator) (scene.Fixture, error) {
	if cfg.ScenePath == "" {
		return scene.Fixture{}, errNoScene
	}
	return scene.LoadFixture(cfg.ScenePath)
}

func runSweep(cfg config.Generator, out io.Writer) error {
	if cfg.ScenePath == "" {
		return errNoScene
	}
	w, err := scene.Load(cfg.ScenePath, cfg.Sweep.Marker)
	if err != nil {
		return err
	}
	s := sweep.New(w, cfg.Sweep)

	hidden, err := s.HideAll()
	fmt.Fprintf(out, "hidden %d entities marked %q\n", hidden, cfg.Sweep.Marker)
	return err
}

func listPasses(cmd *cobra.Command, cfg config.Generator, limit int) error {
	database, err := db.New(cmd.Context(), cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer database.Close()

	list, err := database.Manifests().ListPasses(cmd.Context(), limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range list {
		fmt.Fprintf(out, "%s  pass=%d seed=%d placed=%d/%d finished=%s\n",
			p.ID, p.Index, p.Seed, p.Placed, p.Attempted, p.FinishedAt.Format(time.RFC3339))
	}
	return nil
}
