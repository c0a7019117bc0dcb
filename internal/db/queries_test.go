package db

import (
	"bytes"
	"reflect"
	"testing"
)

func TestNormalizeSlug(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"World News", "world-news"},
		{"  Tech & Science!  ", "tech-science"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
		{"Ümlaut City", "mlaut-city"},
	}
	for _, tc := range cases {
		if got := normalizeSlug(tc.in); got != tc.want {
			t.Fatalf("normalizeSlug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitTagCSV(t *testing.T) {
	t.Parallel()

	if got := splitTagCSV(""); len(got) != 0 {
		t.Fatalf("expected empty slice for empty csv, got %v", got)
	}
	got := splitTagCSV("aerospace, tech ,")
	want := []string{"aerospace", "tech"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tags: %v", got)
	}
}

func TestParseIDCSV(t *testing.T) {
	t.Parallel()

	if got := parseIDCSV(""); got != nil {
		t.Fatalf("expected nil for empty csv, got %v", got)
	}
	got := parseIDCSV("3, 7 ,x,-1,12")
	want := []int64{3, 7, 12}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected ids: %v", got)
	}
}

func TestNormalizeArticleStatus(t *testing.T) {
	t.Parallel()

	if got := NormalizeArticleStatus(" Published "); got != ArticleStatusPublished {
		t.Fatalf("unexpected status: %q", got)
	}
	if got := NormalizeArticleStatus("live"); got != "" {
		t.Fatalf("expected unknown status to normalize to empty, got %q", got)
	}
}

func TestArticleTransitionAllowed(t *testing.T) {
	t.Parallel()

	allowed := [][2]string{
		{ArticleStatusDraft, ArticleStatusReview},
		{ArticleStatusReview, ArticleStatusPublished},
		{ArticleStatusReview, ArticleStatusDraft},
		{ArticleStatusPublished, ArticleStatusArchived},
		{ArticleStatusArchived, ArticleStatusDraft},
	}
	for _, edge := range allowed {
		if !ArticleTransitionAllowed(edge[0], edge[1]) {
			t.Fatalf("expected %s -> %s to be allowed", edge[0], edge[1])
		}
	}

	denied := [][2]string{
		{ArticleStatusDraft, ArticleStatusPublished},
		{ArticleStatusPublished, ArticleStatusDraft},
		{ArticleStatusArchived, ArticleStatusPublished},
	}
	for _, edge := range denied {
		if ArticleTransitionAllowed(edge[0], edge[1]) {
			t.Fatalf("expected %s -> %s to be denied", edge[0], edge[1])
		}
	}
}

func TestHashURL(t *testing.T) {
	t.Parallel()

	if HashURL("") != nil {
		t.Fatalf("expected nil hash for empty URL")
	}
	a := HashURL("https://example.com/a")
	b := HashURL("https://example.com/a")
	if !bytes.Equal(a, b) {
		t.Fatalf("expected stable hash for the same URL")
	}
	if bytes.Equal(a, HashURL("https://example.com/b")) {
		t.Fatalf("expected different hashes for different URLs")
	}
}

func TestNormalizeEntityType(t *testing.T) {
	t.Parallel()

	if got := NormalizeEntityType(" Article "); got != EntityArticle {
		t.Fatalf("unexpected entity type: %q", got)
	}
	if got := NormalizeEntityType("story"); got != "" {
		t.Fatalf("expected unknown entity type to normalize to empty, got %q", got)
	}
}
