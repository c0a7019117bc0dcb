package httpapi

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestNewServerDefaults(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zerolog.Nop(), Options{})
	if server == nil {
		t.Fatalf("expected server")
	}
	if server.opts.Port != 8090 {
		t.Fatalf("unexpected default port: %d", server.opts.Port)
	}
	if server.opts.SessionCookie != "newsdesk_session" {
		t.Fatalf("unexpected default cookie name: %q", server.opts.SessionCookie)
	}
	if server.opts.SessionTTL != 7*24*time.Hour {
		t.Fatalf("unexpected default session ttl: %s", server.opts.SessionTTL)
	}
	if server.opts.CronRatePerMin != 6 {
		t.Fatalf("unexpected default cron rate: %d", server.opts.CronRatePerMin)
	}
	if server.opts.DedupLookback != 72*time.Hour {
		t.Fatalf("unexpected default dedup lookback: %s", server.opts.DedupLookback)
	}
	if server.opts.DedupCandidatePool != 200 {
		t.Fatalf("unexpected default candidate pool: %d", server.opts.DedupCandidatePool)
	}
}

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	if got, err := parsePositiveInt("", 25, 1, 200); err != nil || got != 25 {
		t.Fatalf("expected default on empty input, got %d err %v", got, err)
	}
	if got, err := parsePositiveInt("50", 25, 1, 200); err != nil || got != 50 {
		t.Fatalf("expected parsed value, got %d err %v", got, err)
	}
	if _, err := parsePositiveInt("abc", 25, 1, 200); err == nil {
		t.Fatalf("expected error for non-integer input")
	}
	if _, err := parsePositiveInt("201", 25, 1, 200); err == nil {
		t.Fatalf("expected error above the upper bound")
	}
	if _, err := parsePositiveInt("0", 25, 1, 200); err == nil {
		t.Fatalf("expected error below the lower bound")
	}
}

func TestParseIDParam(t *testing.T) {
	t.Parallel()

	e := echo.New()

	newContext := func(value string) echo.Context {
		req := httptest.NewRequest("GET", "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("news_id")
		c.SetParamValues(value)
		return c
	}

	if id, err := parseIDParam(newContext("42"), "news_id"); err != nil || id != 42 {
		t.Fatalf("expected 42, got %d err %v", id, err)
	}
	if _, err := parseIDParam(newContext(""), "news_id"); err == nil {
		t.Fatalf("expected error for missing param")
	}
	if _, err := parseIDParam(newContext("-5"), "news_id"); err == nil {
		t.Fatalf("expected error for negative param")
	}
	if _, err := parseIDParam(newContext("abc"), "news_id"); err == nil {
		t.Fatalf("expected error for non-numeric param")
	}
}

func TestDecodeJSONBodyRejectsTrailingContent(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"a":1}{"b":2}`))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var dest map[string]int
	if err := decodeJSONBody(c, &dest); err == nil {
		t.Fatalf("expected error for trailing content")
	}
}

func TestDecodeJSONBodyAcceptsSingleDocument(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"a":1}`))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var dest map[string]int
	if err := decodeJSONBody(c, &dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest["a"] != 1 {
		t.Fatalf("unexpected decoded value: %v", dest)
	}
}
