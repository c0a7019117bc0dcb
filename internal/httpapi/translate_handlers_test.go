package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func postTranslate(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	server := NewServer(nil, zerolog.Nop(), Options{})
	e := echo.New()
	req := httptest.NewRequest("POST", "/api/v1/tools/translate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	if err := server.handleTranslate(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func translateReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Data struct {
			Reason string `json:"reason"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Data.Reason
}

func TestHandleTranslateRejectsEmptyText(t *testing.T) {
	t.Parallel()

	rec := postTranslate(t, `{"text":"  ","target_language":"fr"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := translateReason(t, rec); got != string(translateNothingToDo) {
		t.Fatalf("unexpected reason: %q", got)
	}
}

func TestHandleTranslateRejectsUnknownTarget(t *testing.T) {
	t.Parallel()

	rec := postTranslate(t, `{"text":"hello there","target_language":"??"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := translateReason(t, rec); got != string(translateUnknownTarget) {
		t.Fatalf("unexpected reason: %q", got)
	}
}

func TestHandleTranslateReportsNoProvider(t *testing.T) {
	t.Parallel()

	rec := postTranslate(t, `{"text":"The council voted to expand the transit budget for the coming year.","target_language":"fr"}`)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
	if got := translateReason(t, rec); got != string(translateNoProvider) {
		t.Fatalf("unexpected reason: %q", got)
	}
}
