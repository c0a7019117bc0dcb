package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/newsdesk/internal/cli"
	"horse.fit/newsdesk/internal/jobs"
	"horse.fit/newsdesk/internal/logging"
)

func runDedup(args []string) int {
	fs := flag.NewFlagSet("dedup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	lookback := fs.Duration("lookback", 0, "Candidate window (default from DEDUP_LOOKBACK_HOURS)")
	limit := fs.Int("limit", 0, "Candidate pool cap (default from DEDUP_CANDIDATE_POOL)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "dedup does not accept positional arguments")
		return 2
	}

	ctx, cancel, pool, cfg, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	window := *lookback
	if window <= 0 {
		window = time.Duration(cfg.DedupLookbackHours) * time.Hour
	}
	candidateCap := *limit
	if candidateCap <= 0 {
		candidateCap = cfg.DedupCandidatePool
	}

	report, err := jobs.RunDedup(ctx, pool, logger, window, candidateCap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Dedup run failed: %v\n", err)
		return 1
	}

	if err := printJSON(report); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}
