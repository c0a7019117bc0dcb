package similarity

import (
	"testing"
	"time"
)

func duplicateTrio(t *testing.T) []Item {
	t.Helper()

	p1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	p2 := p1.Add(time.Hour)
	p3 := p1.Add(2 * time.Hour)

	body := "Acme Corp announced a new orbital drone program based in Nevada on Tuesday, with first flights expected next year."
	return []Item{
		{ID: 10, Title: "Acme launches orbital drone program in Nevada", Content: body, URL: "https://a.example.com/drone", PublishedAt: &p1},
		{ID: 11, Title: "Acme launches orbital drone program in Nevada desert", Content: body, URL: "https://b.example.com/drone", PublishedAt: &p2, Processed: true},
		{ID: 12, Title: "Acme launches its orbital drone program in Nevada", Content: body, URL: "https://c.example.com/drone", PublishedAt: &p3},
	}
}

func TestGroupDuplicates_TransitiveCluster(t *testing.T) {
	t.Parallel()

	items := append(duplicateTrio(t), Item{
		ID:      99,
		Title:   "Semiconductor exports hit record high",
		Content: "Quarterly semiconductor export figures reached an all-time record according to the trade ministry.",
		URL:     "https://d.example.com/chips",
	})

	groups := GroupDuplicates(items)
	if len(groups) != 1 {
		t.Fatalf("expected exactly one duplicate group, got %d", len(groups))
	}

	group := groups[0]
	if len(group.MemberIDs) != 3 {
		t.Fatalf("expected 3 members, got %v", group.MemberIDs)
	}
	for _, id := range group.MemberIDs {
		if id == 99 {
			t.Fatalf("unrelated item must not join the group")
		}
	}
	if group.Confidence <= 0 || group.Confidence > 1 {
		t.Fatalf("group confidence out of range: %f", group.Confidence)
	}
	if len(group.Pairs) == 0 {
		t.Fatalf("expected recorded pairs for the group")
	}
}

func TestGroupDuplicates_PrimaryPrefersProcessed(t *testing.T) {
	t.Parallel()

	groups := GroupDuplicates(duplicateTrio(t))
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	if groups[0].PrimaryID != 11 {
		t.Fatalf("expected processed item 11 as primary, got %d", groups[0].PrimaryID)
	}
}

func TestGroupDuplicates_PrimaryFallsBackToRecency(t *testing.T) {
	t.Parallel()

	items := duplicateTrio(t)
	// With no processed member the tie-break moves to confidence, then recency.
	items[1].Processed = false

	groups := GroupDuplicates(items)
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}

	primary := groups[0].PrimaryID
	if primary != 10 && primary != 11 && primary != 12 {
		t.Fatalf("primary must be a group member, got %d", primary)
	}
}

func TestGroupDuplicates_NoPairs(t *testing.T) {
	t.Parallel()

	items := []Item{
		{ID: 1, Title: "Local bakery wins pastry award", Content: "A bakery won an award.", URL: "https://a.example.com/bakery"},
		{ID: 2, Title: "Rocket launch delayed by weather", Content: "The launch was delayed due to high winds.", URL: "https://b.example.com/rocket"},
	}
	if groups := GroupDuplicates(items); groups != nil {
		t.Fatalf("expected no groups, got %v", groups)
	}
}

func TestGroupDuplicates_FewerThanTwoItems(t *testing.T) {
	t.Parallel()

	if groups := GroupDuplicates(nil); groups != nil {
		t.Fatalf("expected nil for empty input")
	}
	if groups := GroupDuplicates([]Item{{ID: 1, Title: "solo"}}); groups != nil {
		t.Fatalf("expected nil for single item")
	}
}
