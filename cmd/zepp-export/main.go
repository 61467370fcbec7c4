package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/Tilodry/zepp-extractor/internal/config"
	"github.com/Tilodry/zepp-extractor/internal/export"
	"github.com/Tilodry/zepp-extractor/internal/metrics"
	"github.com/Tilodry/zepp-extractor/internal/zepp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "fetch and compute but don't write CSV files")
	force := flag.Bool("all", false, "re-export workouts already recorded in the state database")
	watch := flag.Bool("watch", false, "keep running and export on the configured schedule")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("zepp-export", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// .env is optional; the system environment works on its own.
	if err := godotenv.Load(); err == nil {
		log.Info("loaded .env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Export.Location()
	if err != nil {
		log.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	state, err := export.OpenStateDB(cfg.Export.StateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	client := zepp.NewClient(cfg.API.BaseURL, cfg.API.Token)
	params := metrics.Params{
		HRMaxTheoretical:  cfg.Metrics.HRMaxTheoretical,
		MovementThreshold: cfg.Metrics.MovementThreshold,
		ZoneBounds:        cfg.Metrics.ZoneBounds,
	}

	run := func(ctx context.Context) {
		exporter := export.New(client, state, cfg.Export.OutputDir, params, cfg.Metrics.HRCeiling, loc, *dryRun, *force, log)
		stats, err := exporter.Run(ctx)
		if err != nil {
			log.Error("export failed", "error", err)
		}
		printStats(stats)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !*watch {
		run(ctx)
		return
	}

	schedule := cfg.Watch.Schedule
	if schedule == "" {
		schedule = "@hourly"
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { run(ctx) }); err != nil {
		log.Error("invalid watch schedule", "schedule", schedule, "error", err)
		os.Exit(1)
	}

	log.Info("watch mode", "schedule", schedule)
	run(ctx) // one immediate pass before the schedule takes over
	c.Start()

	<-ctx.Done()
	log.Info("shutting down")
	<-c.Stop().Done()
}

func printStats(stats *export.Stats) {
	if stats == nil {
		return
	}
	fmt.Println()
	fmt.Println("=== Export Summary ===")
	fmt.Printf("  Workouts total:    %d\n", stats.WorkoutsTotal)
	fmt.Printf("  Workouts exported: %d\n", stats.WorkoutsExported)
	fmt.Printf("  Workouts skipped:  %d\n", stats.WorkoutsSkipped)
	fmt.Printf("  Workouts failed:   %d\n", stats.WorkoutsFailed)
	if stats.SeriesTruncated > 0 {
		fmt.Printf("  Series truncated:  %d\n", stats.SeriesTruncated)
	}
	fmt.Println()
}
