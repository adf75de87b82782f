// Command sweep runs the reconciliation sweep once and prints its result.
// It is meant for cron-style deployments where the server's scheduler is
// disabled.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"event-ticketing-manager/internal/app"
	"event-ticketing-manager/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var timeout time.Duration
	var asJSON bool

	flagSet := pflag.NewFlagSet("sweep", pflag.ContinueOnError)
	flagSet.DurationVar(&timeout, "timeout", 2*time.Minute, "abort the sweep after this long")
	flagSet.BoolVar(&asJSON, "json", false, "print the result as JSON")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := app.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Sweep.Run(ctx)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	fmt.Printf("expired reservations: %d\ncancelled by event start: %d\nfinalized events: %d\nfailed: %d\n",
		result.ReservationsExpired, result.EventsCancelledOut, result.EventsFinalized, result.Failed)
	if result.Failed > 0 {
		return fmt.Errorf("%d records could not be updated", result.Failed)
	}
	return nil
}
