package trending

import (
	"math"
	"time"
)

// Personalization blend over a trending baseline. Affinities are normalized
// shares of a user's engagement history, so each factor lands in [0,1] before
// scaling back onto the 0-10 score range.
const (
	personalTrendingBlend = 0.50
	personalCategoryBlend = 0.25
	personalTagBlend      = 0.15
	personalRecencyBlend  = 0.10
)

// FeedItem is the projection a personalized ranking needs.
type FeedItem struct {
	TrendingScore float64
	CategoryID    *int64
	TagIDs        []int64
	PublishedAt   *time.Time
}

// Preferences holds a user's normalized affinities keyed by entity ID.
type Preferences struct {
	CategoryAffinity map[int64]float64
	TagAffinity      map[int64]float64
}

// BuildPreferences normalizes raw engagement counts into [0,1] affinities.
// The strongest category (or tag) gets 1.0, the rest proportional shares.
func BuildPreferences(categoryCounts, tagCounts map[int64]int64) Preferences {
	return Preferences{
		CategoryAffinity: normalizeCounts(categoryCounts),
		TagAffinity:      normalizeCounts(tagCounts),
	}
}

func normalizeCounts(counts map[int64]int64) map[int64]float64 {
	if len(counts) == 0 {
		return nil
	}

	var max int64
	for _, count := range counts {
		if count > max {
			max = count
		}
	}
	if max <= 0 {
		return nil
	}

	affinity := make(map[int64]float64, len(counts))
	for id, count := range counts {
		if count <= 0 {
			continue
		}
		affinity[id] = float64(count) / float64(max)
	}
	return affinity
}

// PersonalizedScore blends the item's trending score with the user's category
// and tag affinities plus a recency term, clipped to [0, MaxScore].
func PersonalizedScore(item FeedItem, prefs Preferences, now time.Time) float64 {
	categoryAffinity := 0.0
	if item.CategoryID != nil {
		categoryAffinity = prefs.CategoryAffinity[*item.CategoryID]
	}

	tagAffinity := 0.0
	for _, tagID := range item.TagIDs {
		if a := prefs.TagAffinity[tagID]; a > tagAffinity {
			tagAffinity = a
		}
	}

	recency := 0.0
	if item.PublishedAt != nil && !item.PublishedAt.IsZero() {
		ageHours := now.UTC().Sub(item.PublishedAt.UTC()).Hours()
		if ageHours < 0 {
			ageHours = 0
		}
		recency = math.Exp(-ageHours / decayHours)
	}

	score := personalTrendingBlend*clampScore(item.TrendingScore) +
		personalCategoryBlend*MaxScore*categoryAffinity +
		personalTagBlend*MaxScore*tagAffinity +
		personalRecencyBlend*MaxScore*recency

	return clampScore(score)
}
