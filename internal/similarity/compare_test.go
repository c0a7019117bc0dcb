package similarity

import (
	"testing"
	"time"
)

func TestNormalizeURL_StripsTrackingAndNormalizes(t *testing.T) {
	t.Parallel()

	got := NormalizeURL("https://Example.COM:443/news/path/?utm_source=abc&fbclid=123&b=2&a=1")
	if got != "https://example.com/news/path?a=1&b=2" {
		t.Fatalf("unexpected canonical url: %q", got)
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	t.Parallel()

	if got := NormalizeURL("not a url"); got != "" {
		t.Fatalf("expected empty result for invalid URL, got %q", got)
	}
}

func TestCompare_ExactURLForcesHighConfidence(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	left := Item{
		ID:          1,
		Title:       "City council votes on transit expansion",
		Content:     "The city council voted on the transit expansion plan.",
		URL:         "https://news.example.com/transit?utm_source=rss",
		PublishedAt: &published,
	}
	right := Item{
		ID:          2,
		Title:       "Council transit vote",
		Content:     "A short recap of the vote.",
		URL:         "https://news.example.com/transit",
		PublishedAt: &published,
	}

	match := Compare(left, right)
	if !match.ExactURL {
		t.Fatalf("expected exact URL match after normalization")
	}
	if match.Confidence < 0.95 {
		t.Fatalf("expected confidence floor for exact URL, got %f", match.Confidence)
	}
	if !match.IsDuplicate {
		t.Fatalf("expected exact-URL pair to classify as duplicate")
	}
}

func TestCompare_NearIdenticalTexts(t *testing.T) {
	t.Parallel()

	left := Item{
		ID:      1,
		Title:   "Acme launches orbital drone program in Nevada",
		Content: "Acme Corp announced a new orbital drone program based in Nevada on Tuesday, with first flights expected next year.",
		URL:     "https://a.example.com/acme-drone",
	}
	right := Item{
		ID:      2,
		Title:   "Acme launches orbital drone program in Nevada desert",
		Content: "Acme Corp announced a new orbital drone program based in the Nevada desert on Tuesday, with first flights expected next year.",
		URL:     "https://b.example.org/acme-orbital",
	}

	match := Compare(left, right)
	if match.Overall < duplicateOverallThreshold {
		t.Fatalf("expected near-identical pair above overall threshold, got %f", match.Overall)
	}
	if !match.IsDuplicate {
		t.Fatalf("expected near-identical pair to classify as duplicate")
	}
}

func TestCompare_UnrelatedTexts(t *testing.T) {
	t.Parallel()

	left := Item{
		ID:      1,
		Title:   "Local bakery wins pastry award",
		Content: "A bakery in the old town won the regional pastry award this weekend.",
		URL:     "https://a.example.com/bakery",
	}
	right := Item{
		ID:      2,
		Title:   "Semiconductor exports hit record high",
		Content: "Quarterly semiconductor export figures reached an all-time record according to the trade ministry.",
		URL:     "https://b.example.org/chips",
	}

	match := Compare(left, right)
	if match.IsDuplicate {
		t.Fatalf("did not expect unrelated pair to classify as duplicate (overall=%f confidence=%f)", match.Overall, match.Confidence)
	}
}

func TestCompare_Symmetric(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := published.Add(3 * time.Hour)
	left := Item{ID: 1, Title: "Storm warning issued for coast", Content: "Authorities issued a storm warning for the coastal region.", URL: "https://x.example.com/storm", PublishedAt: &published}
	right := Item{ID: 2, Title: "Coastal storm warning", Content: "A storm warning was issued for the coast by authorities.", URL: "https://y.example.com/storm-warning", PublishedAt: &later}

	ab := Compare(left, right)
	ba := Compare(right, left)
	if ab.Overall != ba.Overall || ab.Confidence != ba.Confidence {
		t.Fatalf("expected symmetric comparison: %+v vs %+v", ab, ba)
	}
}

func TestTimeProximityBuckets(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		delta time.Duration
		want  float64
	}{
		{time.Hour, 1},
		{12 * time.Hour, 0.7},
		{48 * time.Hour, 0.4},
		{100 * time.Hour, 0},
	}
	for _, tc := range cases {
		other := base.Add(tc.delta)
		if got := timeProximity(&base, &other); got != tc.want {
			t.Fatalf("timeProximity(delta=%s) = %f, want %f", tc.delta, got, tc.want)
		}
	}

	if got := timeProximity(nil, &base); got != 0 {
		t.Fatalf("expected missing timestamp to score 0, got %f", got)
	}
}

func TestContentLengthRatio(t *testing.T) {
	t.Parallel()

	if got := contentLengthRatio("abcd", "abcdabcd"); got != 0.5 {
		t.Fatalf("unexpected length ratio: got %f want 0.5", got)
	}
	if got := contentLengthRatio("", "abc"); got != 0 {
		t.Fatalf("expected zero ratio for empty content, got %f", got)
	}
}
