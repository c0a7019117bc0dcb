package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	raw := "First   line\r\n\r\nSecond\tline\n\n\n"
	want := "First line\n\nSecond line"
	if got := CleanText(raw); got != want {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestTruncateText(t *testing.T) {
	t.Parallel()

	got, truncated := TruncateText("abcdef", 4)
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}

	got, truncated = TruncateText("short", 10)
	if truncated || got != "short" {
		t.Fatalf("did not expect truncation, got %q (%v)", got, truncated)
	}
}

func TestFetchExtract_PlainText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Plain   body  text\n"))
	}))
	defer srv.Close()

	extract, err := FetchExtract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch extract: %v", err)
	}
	if extract.Text != "Plain body text" {
		t.Fatalf("unexpected extracted text: %q", extract.Text)
	}
}

func TestFetchExtract_HTML(t *testing.T) {
	t.Parallel()

	page := `<!DOCTYPE html><html><head><title>Drone Program</title></head><body>
<article><h1>Drone Program</h1>
<p>Acme Corp announced a new orbital drone program on Tuesday morning.</p>
<p>First flights are expected early next year from the Nevada site.</p>
</article></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	extract, err := FetchExtract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch extract: %v", err)
	}
	if !strings.Contains(extract.Text, "orbital drone program") {
		t.Fatalf("expected article body in extract, got %q", extract.Text)
	}
}

func TestFetchExtract_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := FetchExtract(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestFetchExtract_EmptyURL(t *testing.T) {
	t.Parallel()

	if _, err := FetchExtract(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty URL")
	}
}
