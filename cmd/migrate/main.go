package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"event-ticketing-manager/internal/app"
	"event-ticketing-manager/internal/config"
	"event-ticketing-manager/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var statusFlag, upFlag bool

	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.BoolVar(&statusFlag, "status", false, "show migration status")
	flagSet.BoolVar(&upFlag, "up", false, "run pending migrations")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printUsage(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || (!statusFlag && !upFlag) {
		printUsage(flagSet)
		if !help {
			os.Exit(2)
		}
		return nil
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Type == config.RepositoryFile {
		return fmt.Errorf("REPOSITORY_TYPE=file has no schema to migrate")
	}

	dialect, err := database.ParseDialect(cfg.Database.Type)
	if err != nil {
		return err
	}

	db, err := database.NewConnection(app.DatabaseConfig(cfg.Database, dialect))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger := app.NewLogger(cfg.Log, os.Stderr)
	migrator := database.NewMigrator(db.DB, dialect, logger)
	ctx := context.Background()

	if upFlag {
		if err := migrator.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		fmt.Println("All migrations completed successfully!")
	}
	if statusFlag {
		if err := migrator.PrintStatus(ctx, os.Stdout); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
	}
	return nil
}

func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  migrate --status   # Show migration status")
	fmt.Fprintln(os.Stderr, "  migrate --up       # Run pending migrations")
	fmt.Fprintln(os.Stderr)
	fmt.Fprint(os.Stderr, flagSet.FlagUsages())
}
