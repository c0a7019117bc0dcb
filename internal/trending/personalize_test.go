package trending

import (
	"testing"
	"time"
)

func TestBuildPreferences_Normalizes(t *testing.T) {
	t.Parallel()

	prefs := BuildPreferences(
		map[int64]int64{1: 10, 2: 5, 3: 0},
		map[int64]int64{7: 4},
	)

	if prefs.CategoryAffinity[1] != 1 {
		t.Fatalf("expected top category affinity 1.0, got %f", prefs.CategoryAffinity[1])
	}
	if prefs.CategoryAffinity[2] != 0.5 {
		t.Fatalf("expected proportional affinity 0.5, got %f", prefs.CategoryAffinity[2])
	}
	if _, ok := prefs.CategoryAffinity[3]; ok {
		t.Fatalf("zero-count category must not appear in affinities")
	}
	if prefs.TagAffinity[7] != 1 {
		t.Fatalf("expected sole tag affinity 1.0, got %f", prefs.TagAffinity[7])
	}
}

func TestBuildPreferences_Empty(t *testing.T) {
	t.Parallel()

	prefs := BuildPreferences(nil, nil)
	if prefs.CategoryAffinity != nil || prefs.TagAffinity != nil {
		t.Fatalf("expected nil affinities for empty history")
	}
}

func TestPersonalizedScore_PrefersAffineCategory(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	published := now.Add(-3 * time.Hour)
	favorite := int64(1)
	other := int64(2)

	prefs := BuildPreferences(map[int64]int64{favorite: 20}, nil)

	matched := PersonalizedScore(FeedItem{TrendingScore: 5, CategoryID: &favorite, PublishedAt: &published}, prefs, now)
	unmatched := PersonalizedScore(FeedItem{TrendingScore: 5, CategoryID: &other, PublishedAt: &published}, prefs, now)
	if matched <= unmatched {
		t.Fatalf("expected affine category to rank higher: %f vs %f", matched, unmatched)
	}
}

func TestPersonalizedScore_TagAffinityUsesBestTag(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	prefs := BuildPreferences(nil, map[int64]int64{3: 10, 4: 1})

	strong := PersonalizedScore(FeedItem{TrendingScore: 4, TagIDs: []int64{4, 3}}, prefs, now)
	weak := PersonalizedScore(FeedItem{TrendingScore: 4, TagIDs: []int64{4}}, prefs, now)
	if strong <= weak {
		t.Fatalf("expected strongest tag to drive affinity: %f vs %f", strong, weak)
	}
}

func TestPersonalizedScore_Bounds(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	published := now

	favorite := int64(1)
	prefs := BuildPreferences(map[int64]int64{favorite: 1}, map[int64]int64{9: 1})
	item := FeedItem{TrendingScore: 99, CategoryID: &favorite, TagIDs: []int64{9}, PublishedAt: &published}

	score := PersonalizedScore(item, prefs, now)
	if score < 0 || score > MaxScore {
		t.Fatalf("personalized score out of range: %f", score)
	}
}
