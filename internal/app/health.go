package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/newsdesk/internal/cli"
	"horse.fit/newsdesk/internal/globaltime"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "health does not accept positional arguments")
		return 2
	}

	ctx, cancel, pool, _, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	userCount, err := pool.CountUsers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Database check failed: %v\n", err)
		return 1
	}

	if err := printJSON(map[string]any{
		"database": "ok",
		"users":    userCount,
		"time":     globaltime.UTC(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}
