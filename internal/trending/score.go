package trending

import (
	"math"
	"time"
)

// Score weights. The engagement sum is normalized per action type, the recency
// term decays with a 36 hour half-scale, and the quality constant keeps fresh
// low-engagement items from ranking at exactly zero.
const (
	viewWeight    = 1.0
	likeWeight    = 2.0
	shareWeight   = 3.0
	commentWeight = 2.5

	viewScale        = 100.0
	interactionScale = 10.0

	decayHours = 36.0

	engagementBlend = 0.50
	recencyBlend    = 0.30
	velocityBlend   = 0.15

	qualityConstant = 1.5

	// MaxScore bounds every trending score.
	MaxScore = 10.0
)

// Engagement carries the raw counters a score is computed from.
type Engagement struct {
	Views    int64
	Likes    int64
	Shares   int64
	Comments int64
}

func (e Engagement) interactions() float64 {
	return float64(e.Views + e.Likes + e.Shares + e.Comments)
}

// Score computes the trending score for one item, clipped to [0, MaxScore].
// Deterministic for a fixed now.
func Score(e Engagement, publishedAt *time.Time, now time.Time) float64 {
	ageHours := 0.0
	if publishedAt != nil && !publishedAt.IsZero() {
		ageHours = now.UTC().Sub(publishedAt.UTC()).Hours()
	}
	if ageHours < 0 {
		ageHours = 0
	}

	raw := viewWeight*float64(e.Views)/viewScale +
		likeWeight*float64(e.Likes)/interactionScale +
		shareWeight*float64(e.Shares)/interactionScale +
		commentWeight*float64(e.Comments)/interactionScale

	decay := math.Exp(-ageHours / decayHours)

	perHour := e.interactions() / math.Max(ageHours, 1)
	velocity := perHour * decay

	score := engagementBlend*raw +
		recencyBlend*MaxScore*decay +
		velocityBlend*velocity +
		qualityConstant

	return clampScore(score)
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > MaxScore:
		return MaxScore
	default:
		return v
	}
}
