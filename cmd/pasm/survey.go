package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stellar-metallicity/pasm/internal/observation"
	"github.com/stellar-metallicity/pasm/internal/survey"
)

func runQuery(env *environment, args []string) error {
	fs := newFlagSet("query", env)
	if err := fs.Parse(args); err != nil {
		return err
	}
	_, err := fmt.Fprint(env.stdout, survey.CasJobsQuery)
	return err
}

func runExtract(env *environment, args []string) error {
	fs := newFlagSet("extract", env)
	configPath := fs.String("config", "", "path to a JSON config file")
	dbPath := fs.String("db", "", "survey mirror database (default from config)")
	output := fs.String("output", "", "CSV to write (default: the config's input path)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(env, *configPath)
	if err != nil {
		return err
	}
	db := cfg.GetDatabase()
	if *dbPath != "" {
		db = *dbPath
	}
	out := cfg.GetInput()
	if *output != "" {
		out = *output
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := survey.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to open survey mirror %s: %w", db, err)
	}
	defer store.Close()

	ext, err := store.Extract(ctx, out)
	if err != nil {
		return err
	}
	if len(ext.Observations) == 0 {
		return fmt.Errorf("extraction %s from %s: %w", ext.RunID, db, observation.ErrNoData)
	}

	if err := observation.SaveFile(env.fs, out, ext.Observations); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "extracted %d rows (run %s) -> %s\n", len(ext.Observations), ext.RunID, out)
	return nil
}

func runMigrate(env *environment, args []string) error {
	fs := newFlagSet("migrate", env)
	configPath := fs.String("config", "", "path to a JSON config file")
	dbPath := fs.String("db", "", "survey mirror database (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		printMigrateHelp(env)
		return fmt.Errorf("migrate: missing action")
	}

	cfg, err := loadConfig(env, *configPath)
	if err != nil {
		return err
	}
	db := cfg.GetDatabase()
	if *dbPath != "" {
		db = *dbPath
	}

	action := fs.Arg(0)
	switch action {
	case "up", "down", "status":
	case "help":
		printMigrateHelp(env)
		return nil
	default:
		printMigrateHelp(env)
		return fmt.Errorf("unknown migrate action: %s", action)
	}

	store, err := survey.OpenStore(db)
	if err != nil {
		return fmt.Errorf("failed to open survey mirror %s: %w", db, err)
	}
	defer store.Close()

	switch action {
	case "up":
		log.Printf("Running migrations...")
		if err := store.MigrateUp(); err != nil {
			return err
		}
		log.Println("✓ All migrations applied successfully")
	case "down":
		log.Printf("Rolling back one migration...")
		if err := store.MigrateDown(); err != nil {
			return err
		}
		log.Println("✓ Migration rolled back successfully")
	}

	version, dirty, err := store.MigrateVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	latest, err := survey.LatestMigration()
	if err != nil {
		return err
	}

	fmt.Fprintln(env.stdout, "=== Migration Status ===")
	fmt.Fprintf(env.stdout, "Database: %s\n", db)
	fmt.Fprintf(env.stdout, "Current version: %d\n", version)
	fmt.Fprintf(env.stdout, "Latest version: %d\n", latest)
	fmt.Fprintf(env.stdout, "Dirty: %v\n", dirty)
	if dirty {
		fmt.Fprintln(env.stdout, "\n⚠️  WARNING: Database is in a dirty state!")
		return nil
	}
	if version < survey.RunsSchemaVersion {
		return nil
	}

	runs, err := store.Runs(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list extraction runs: %w", err)
	}
	printRecentRuns(env, runs)
	return nil
}

// recentRunLimit caps the runs listed by migrate status.
const recentRunLimit = 5

func printRecentRuns(env *environment, runs []survey.Run) {
	fmt.Fprintf(env.stdout, "\nExtraction runs: %d\n", len(runs))
	if len(runs) > recentRunLimit {
		runs = runs[:recentRunLimit]
	}
	for _, r := range runs {
		output := r.OutputPath
		if output == "" {
			output = "-"
		}
		fmt.Fprintf(env.stdout, "  %s  %s  %6d rows  %s\n",
			r.RunID, r.StartedAt.UTC().Format(time.RFC3339), r.RowCount, output)
	}
}

func printMigrateHelp(env *environment) {
	fmt.Fprintln(env.stdout, "Usage: pasm migrate [-db path] <action>")
	fmt.Fprintln(env.stdout)
	fmt.Fprintln(env.stdout, "Actions:")
	fmt.Fprintln(env.stdout, "  up      apply all pending migrations")
	fmt.Fprintln(env.stdout, "  down    roll back the most recent migration")
	fmt.Fprintln(env.stdout, "  status  show the current schema version")
}
