package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/newsdesk/internal/auth"
	"horse.fit/newsdesk/internal/config"
	"horse.fit/newsdesk/internal/db"
)

// ensureDefaultAdmin creates the bootstrap admin account when the users table
// is empty. Later starts are no-ops.
func ensureDefaultAdmin(ctx context.Context, pool *db.Pool, cfg *config.Config, logger zerolog.Logger) error {
	if pool == nil || cfg == nil {
		return fmt.Errorf("ensure default admin: missing dependencies")
	}

	userCount, err := pool.CountUsers(ctx)
	if err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	username := auth.NormalizeUsername(cfg.DefaultAdminUser)
	password := strings.TrimSpace(cfg.DefaultAdminPassword)
	if username == "" || password == "" {
		return fmt.Errorf("default admin credentials are empty")
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	if _, err := pool.CreateUser(ctx, username, passwordHash, auth.RoleAdmin, cfg.DefaultAdminMustChangePassword); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate key value") {
			return nil
		}
		return err
	}

	logger.Warn().
		Str("username", username).
		Bool("must_change_password", cfg.DefaultAdminMustChangePassword).
		Msg("created default admin user")

	return nil
}
