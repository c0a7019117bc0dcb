package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"horse.fit/newsdesk/internal/cli"
	"horse.fit/newsdesk/internal/config"
	"horse.fit/newsdesk/internal/db"
)

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// connectPool loads the env file, parses config and opens the database pool
// with a command-scoped deadline.
func connectPool(timeout time.Duration, envLoader *cli.EnvLoader) (context.Context, context.CancelFunc, *db.Pool, *config.Config, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return ctx, cancel, pool, cfg, nil
}
