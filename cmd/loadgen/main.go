// Command loadgen runs a synthetic order workload against an in-process
// engine and prints a latency report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"orderflow/engine"
	"orderflow/infra/cache"
	"orderflow/infra/executor"
	"orderflow/ingest"
	"orderflow/loadgen"
	"orderflow/logger"
	"orderflow/metrics"
)

func main() {
	var (
		profileName = flag.String("profile", "light", "workload profile: light, medium, heavy")
		patternName = flag.String("pattern", "", "override arrival pattern: constant, ramp, burst, random")
		orders      = flag.Int("orders", 0, "override total order count")
		rate        = flag.Int("rate", -1, "override target orders/sec, 0 for unthrottled")
		workers     = flag.Int("workers", 8, "executor pool workers")
		queueSize   = flag.Int("queue", 4096, "executor queue size")
		seed        = flag.Int64("seed", 42, "rng seed")
		logLevel    = flag.String("log-level", "warn", "log verbosity")
	)
	flag.Parse()

	_ = godotenv.Load()
	log := logger.New(logger.Config{Level: *logLevel})

	profile, err := loadgen.ProfileByName(*profileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *patternName != "" {
		p, err := loadgen.ParsePattern(*patternName)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		profile.Pattern = p
	}
	if *orders > 0 {
		profile.Orders = *orders
	}
	if *rate >= 0 {
		profile.Rate = *rate
	}
	profile.Seed = *seed

	// In-process wiring: engine plus cache, no disk or network. What is
	// measured is parse, match and bookkeeping.
	eng := engine.New()
	orderCache, err := cache.New(100_000)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	collector := metrics.NewCollector()
	svc := ingest.NewService(eng, ingest.Options{
		Cache:   orderCache,
		Metrics: collector,
	}, log)

	pool, err := executor.New(*workers, *queueSize, executor.Block)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := loadgen.NewRunner(svc, pool, profile, log)
	report, err := runner.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = pool.Shutdown(shutdownCtx)

	fmt.Println(report)
	fmt.Println(collector.Snapshot().Report())

	if err != nil && err != context.Canceled {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
