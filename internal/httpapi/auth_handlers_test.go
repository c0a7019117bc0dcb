package httpapi

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSessionExpiryUsesConfiguredTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	server := &Server{
		opts: Options{
			SessionTTL: 6 * time.Hour,
		},
	}

	got := server.sessionExpiry(now)
	want := now.Add(6 * time.Hour)
	if !got.Equal(want) {
		t.Fatalf("unexpected session expiry: got %s want %s", got.Format(time.RFC3339), want.Format(time.RFC3339))
	}
}

func TestNewServerTrimsCronToken(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zerolog.Nop(), Options{CronToken: "  secret  "})
	if server.opts.CronToken != "secret" {
		t.Fatalf("unexpected cron token: %q", server.opts.CronToken)
	}
}
