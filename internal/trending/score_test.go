package trending

import (
	"testing"
	"time"
)

func TestScore_Bounds(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-time.Hour)

	huge := Engagement{Views: 1_000_000, Likes: 100_000, Shares: 50_000, Comments: 80_000}
	if score := Score(huge, &fresh, now); score != MaxScore {
		t.Fatalf("expected viral item to clip at %f, got %f", MaxScore, score)
	}

	old := now.Add(-90 * 24 * time.Hour)
	if score := Score(Engagement{}, &old, now); score < qualityConstant-0.01 || score > qualityConstant+0.01 {
		t.Fatalf("expected stale zero-engagement item near quality floor, got %f", score)
	}
}

func TestScore_RecencyOrdersEqualEngagement(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Hour)
	stale := now.Add(-5 * 24 * time.Hour)
	counts := Engagement{Views: 500, Likes: 20, Shares: 5, Comments: 10}

	recentScore := Score(counts, &recent, now)
	staleScore := Score(counts, &stale, now)
	if recentScore <= staleScore {
		t.Fatalf("expected recent item to outrank stale one: %f vs %f", recentScore, staleScore)
	}
}

func TestScore_EngagementOrdersEqualAge(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	published := now.Add(-6 * time.Hour)

	low := Score(Engagement{Views: 10}, &published, now)
	high := Score(Engagement{Views: 400, Likes: 30, Shares: 12, Comments: 8}, &published, now)
	if high <= low {
		t.Fatalf("expected higher engagement to outrank: %f vs %f", high, low)
	}
}

func TestScore_MissingPublishTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	score := Score(Engagement{Views: 100}, nil, now)
	if score < 0 || score > MaxScore {
		t.Fatalf("score out of range for missing publish time: %f", score)
	}
}

func TestScore_Deterministic(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	published := now.Add(-4 * time.Hour)
	counts := Engagement{Views: 123, Likes: 7, Shares: 2, Comments: 4}

	if Score(counts, &published, now) != Score(counts, &published, now) {
		t.Fatalf("expected deterministic score for fixed inputs")
	}
}
