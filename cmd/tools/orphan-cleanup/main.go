// cmd/tools/orphan-cleanup/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"interview-workers/internal/common/config"
	"interview-workers/internal/common/database"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/maintenance"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Count orphan rows without deleting them")
	enforce := flag.Bool("enforce-cascades", false, "Add ON DELETE CASCADE foreign keys after the cleanup")
	configPath := flag.String("config", "", "Path to config file (default: configs/config.yaml lookup)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall timeout")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewZapAdapter(logger.New(cfg.Logging.Level, "console", "stderr"))

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := pg.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, maintenance.NewCleaner(pg.DB, log), *dryRun, *enforce); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cleaner *maintenance.Cleaner, dryRun, enforce bool) error {
	report, err := cleaner.DeleteOrphans(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("orphan cleanup: %w", err)
	}

	verb := "Deleted"
	if dryRun {
		verb = "Would delete"
	}
	for _, t := range report.Tables {
		fmt.Printf("%s %d orphan row(s) from %s\n", verb, t.Rows, t.Table)
	}
	fmt.Printf("Total: %d\n", report.Total)

	if !enforce {
		return nil
	}
	if dryRun {
		fmt.Println("Skipping cascade constraints in dry-run mode")
		return nil
	}

	cascades, err := cleaner.EnforceCascades(ctx)
	if err != nil {
		return fmt.Errorf("enforce cascades: %w", err)
	}

	out, _ := json.MarshalIndent(cascades, "", "  ")
	fmt.Printf("Cascade constraints:\n%s\n", out)
	return nil
}
