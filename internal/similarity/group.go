package similarity

import (
	"sort"
	"time"
)

// Pair records one duplicate-positive comparison inside a group.
type Pair struct {
	LeftID  int64 `json:"left_id"`
	RightID int64 `json:"right_id"`
	Match   Match `json:"match"`
}

// Group is a transitively-connected cluster of duplicate items.
type Group struct {
	PrimaryID  int64
	MemberIDs  []int64
	Confidence float64
	Pairs      []Pair
}

type scoredPair struct {
	leftIdx  int
	rightIdx int
	pair     Pair
}

// GroupDuplicates runs the O(n^2) pairwise comparison over a bounded candidate
// pool and clusters duplicate-positive pairs transitively. Singleton items are
// not reported. Group confidence is the highest pair confidence seen inside
// the cluster; the primary is chosen by processed status, then confidence,
// then publish recency.
func GroupDuplicates(items []Item) []Group {
	if len(items) < 2 {
		return nil
	}

	parent := make([]int, len(items))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	var matched []scoredPair
	memberConfidence := make(map[int64]float64, len(items))

	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			match := Compare(items[i], items[j])
			if !match.IsDuplicate {
				continue
			}
			union(i, j)
			matched = append(matched, scoredPair{
				leftIdx:  i,
				rightIdx: j,
				pair: Pair{
					LeftID:  items[i].ID,
					RightID: items[j].ID,
					Match:   match,
				},
			})
			if match.Confidence > memberConfidence[items[i].ID] {
				memberConfidence[items[i].ID] = match.Confidence
			}
			if match.Confidence > memberConfidence[items[j].ID] {
				memberConfidence[items[j].ID] = match.Confidence
			}
		}
	}
	if len(matched) == 0 {
		return nil
	}

	clusters := make(map[int][]int)
	for i := range items {
		root := find(i)
		clusters[root] = append(clusters[root], i)
	}

	pairsByRoot := make(map[int][]Pair, len(clusters))
	for _, sp := range matched {
		root := find(sp.leftIdx)
		pairsByRoot[root] = append(pairsByRoot[root], sp.pair)
	}

	groups := make([]Group, 0, len(pairsByRoot))
	for root, indexes := range clusters {
		if len(indexes) < 2 {
			continue
		}

		members := make([]Item, 0, len(indexes))
		for _, idx := range indexes {
			members = append(members, items[idx])
		}
		primary := pickPrimary(members, memberConfidence)

		groupConfidence := 0.0
		memberIDs := make([]int64, 0, len(members))
		for _, member := range members {
			memberIDs = append(memberIDs, member.ID)
			if c := memberConfidence[member.ID]; c > groupConfidence {
				groupConfidence = c
			}
		}
		sort.Slice(memberIDs, func(a, b int) bool { return memberIDs[a] < memberIDs[b] })

		groups = append(groups, Group{
			PrimaryID:  primary.ID,
			MemberIDs:  memberIDs,
			Confidence: groupConfidence,
			Pairs:      pairsByRoot[root],
		})
	}

	sort.Slice(groups, func(a, b int) bool {
		if groups[a].Confidence != groups[b].Confidence {
			return groups[a].Confidence > groups[b].Confidence
		}
		return groups[a].PrimaryID < groups[b].PrimaryID
	})
	return groups
}

// pickPrimary applies the tie-break order: processed first, then highest pair
// confidence, then most recent publish time, then lowest ID for determinism.
func pickPrimary(members []Item, confidence map[int64]float64) Item {
	best := members[0]
	for _, candidate := range members[1:] {
		if candidate.Processed != best.Processed {
			if candidate.Processed {
				best = candidate
			}
			continue
		}
		candConf := confidence[candidate.ID]
		bestConf := confidence[best.ID]
		if candConf != bestConf {
			if candConf > bestConf {
				best = candidate
			}
			continue
		}
		candTime := publishedOrZero(candidate)
		bestTime := publishedOrZero(best)
		if !candTime.Equal(bestTime) {
			if candTime.After(bestTime) {
				best = candidate
			}
			continue
		}
		if candidate.ID < best.ID {
			best = candidate
		}
	}
	return best
}

func publishedOrZero(item Item) time.Time {
	if item.PublishedAt != nil {
		return item.PublishedAt.UTC()
	}
	return time.Time{}
}
