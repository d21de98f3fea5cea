// slasweep runs the SLA breach sweeper outside the API process, either
// once (for cron) or as a loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

type options struct {
	loop     bool
	interval time.Duration
	batch    int
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts, err := parseFlags(args, cfg.SLA)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := persistence.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.RegisterActivitySubscribers(dispatcher, metrics, logger)
	recorder := service.NewActivityRecorder(store.Repos.Activities, dispatcher, clock, logger, metrics)
	sweeper := worker.NewSLASweeper(store.Repos.Tickets, recorder, clock, logger, metrics, worker.SLASweeperConfig{
		Interval:  opts.interval,
		BatchSize: opts.batch,
	})

	if opts.loop {
		sweeper.Run(ctx)
		return nil
	}

	breached, err := sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	logger.Info("sla sweep finished", zap.Int("breached", breached))
	return nil
}

// parseFlags reads command line overrides on top of the SLA config.
func parseFlags(args []string, defaults config.SLAConfig) (options, error) {
	opts := options{
		interval: defaults.Interval(),
		batch:    defaults.BatchSize,
	}
	flagSet := pflag.NewFlagSet("slasweep", pflag.ContinueOnError)
	flagSet.BoolVar(&opts.loop, "loop", false, "keep sweeping on every interval until interrupted")
	flagSet.DurationVar(&opts.interval, "interval", opts.interval, "time between sweeps in loop mode")
	flagSet.IntVar(&opts.batch, "batch", opts.batch, "maximum tickets transitioned per sweep")
	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if opts.interval <= 0 {
		return options{}, fmt.Errorf("--interval must be positive, got %s", opts.interval)
	}
	if opts.batch <= 0 {
		return options{}, fmt.Errorf("--batch must be positive, got %d", opts.batch)
	}
	return opts, nil
}
