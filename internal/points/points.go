package points

import "strings"

// Engagement actions that award citizenship points.
const (
	ActionView    = "view"
	ActionLike    = "like"
	ActionShare   = "share"
	ActionComment = "comment"
)

// Rule describes how an action is rewarded. Non-repeatable actions award at
// most once per (user, entity, action).
type Rule struct {
	Points     int
	Repeatable bool
}

var rules = map[string]Rule{
	ActionView:    {Points: 1, Repeatable: true},
	ActionLike:    {Points: 5, Repeatable: false},
	ActionShare:   {Points: 10, Repeatable: false},
	ActionComment: {Points: 3, Repeatable: true},
}

// NormalizeAction lowercases an action name and returns "" for unknown actions.
func NormalizeAction(raw string) string {
	action := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := rules[action]; !ok {
		return ""
	}
	return action
}

// RuleFor returns the reward rule for an action.
func RuleFor(action string) (Rule, bool) {
	rule, ok := rules[NormalizeAction(action)]
	return rule, ok
}

// Level is one citizenship tier.
type Level struct {
	Name      string `json:"name"`
	Threshold int64  `json:"threshold"`
}

// Levels in ascending threshold order. The first tier starts at zero.
var levels = []Level{
	{Name: "newcomer", Threshold: 0},
	{Name: "reader", Threshold: 50},
	{Name: "contributor", Threshold: 200},
	{Name: "citizen", Threshold: 500},
	{Name: "ambassador", Threshold: 1500},
}

// Progress describes where a lifetime point total lands on the ladder.
type Progress struct {
	Level         Level   `json:"level"`
	NextLevel     *Level  `json:"next_level,omitempty"`
	Lifetime      int64   `json:"lifetime_points"`
	IntoLevel     int64   `json:"points_into_level"`
	ToNextLevel   int64   `json:"points_to_next_level"`
	PercentToNext float64 `json:"percent_to_next"`
}

// ProgressFor maps a lifetime point total onto the citizenship ladder.
// Negative totals are treated as zero.
func ProgressFor(lifetime int64) Progress {
	if lifetime < 0 {
		lifetime = 0
	}

	current := levels[0]
	var next *Level
	for i := range levels {
		if lifetime >= levels[i].Threshold {
			current = levels[i]
			if i+1 < len(levels) {
				nextCopy := levels[i+1]
				next = &nextCopy
			} else {
				next = nil
			}
		}
	}

	progress := Progress{
		Level:     current,
		NextLevel: next,
		Lifetime:  lifetime,
		IntoLevel: lifetime - current.Threshold,
	}
	if next != nil {
		span := next.Threshold - current.Threshold
		progress.ToNextLevel = next.Threshold - lifetime
		if span > 0 {
			progress.PercentToNext = float64(progress.IntoLevel) / float64(span) * 100
		}
	} else {
		progress.PercentToNext = 100
	}
	return progress
}

// AllLevels exposes the ladder for the citizenship endpoint.
func AllLevels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}
