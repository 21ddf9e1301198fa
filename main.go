package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pbd/config"
	"github.com/pthm-cable/pbd/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	snapshotEvery := flag.Int("snapshot-every", 0, "Save a snapshot every N ticks (0 = only on bookmarks)")
	resume := flag.String("resume", "", "Snapshot file to resume from")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	backend := flag.String("backend", "", "Executor backend: pool or serial (empty = use config)")
	seed := flag.Int64("seed", 0, "Seed for initial fluid jitter (0 = no jitter)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *backend != "" {
		cfg.Executor.Backend = *backend
	}

	opts := game.Options{
		Seed:           *seed,
		LogStats:       *logStats,
		SnapshotDir:    *snapshotDir,
		SnapshotEvery:  *snapshotEvery,
		OutputDir:      *outputDir,
		Resume:         *resume,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
	}

	if *headless {
		os.Exit(runHeadless(cfg, opts, *maxTicks))
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "PBD Particles")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		logStartupError(err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}

// runHeadless steps until max ticks or a fatal error and returns the exit code.
func runHeadless(cfg *config.Config, opts game.Options, maxTicks int) int {
	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		logStartupError(err)
		return 1
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"particles", g.Engine().Len(),
		"backend", g.Engine().Backend(),
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for {
		if err := g.UpdateHeadless(); err != nil {
			return 1
		}
		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return 0
		}
	}
}

func logStartupError(err error) {
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		slog.Error("invalid configuration", "field", cfgErr.Field, "reason", cfgErr.Reason)
		return
	}
	slog.Error("failed to start", "error", err)
}
