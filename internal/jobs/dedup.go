// Package jobs holds the batch work shared by the HTTP cron endpoints and
// the CLI subcommands: duplicate detection and trending recomputes.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/newsdesk/internal/db"
	"horse.fit/newsdesk/internal/globaltime"
	"horse.fit/newsdesk/internal/metrics"
	"horse.fit/newsdesk/internal/similarity"
)

// DedupReport summarizes one detection run.
type DedupReport struct {
	Candidates    int     `json:"candidates"`
	PairsMatched  int     `json:"pairs_matched"`
	GroupsCreated int     `json:"groups_created"`
	ItemsGrouped  int     `json:"items_grouped"`
	TopConfidence float64 `json:"top_confidence,omitempty"`
	Elapsed       string  `json:"elapsed"`
}

// RunDedup loads recent ungrouped news items, clusters them by pairwise
// similarity and persists each cluster as an open duplicate group.
func RunDedup(
	ctx context.Context,
	pool *db.Pool,
	logger zerolog.Logger,
	lookback time.Duration,
	candidateLimit int,
) (*DedupReport, error) {
	start := globaltime.UTC()

	candidates, err := pool.ListDedupCandidates(ctx, start.Add(-lookback), candidateLimit)
	if err != nil {
		metrics.DedupRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load dedup candidates: %w", err)
	}

	items := make([]similarity.Item, len(candidates))
	for i, candidate := range candidates {
		items[i] = similarity.Item{
			ID:          candidate.NewsID,
			UUID:        candidate.NewsUUID,
			Title:       candidate.Title,
			Content:     candidate.Content,
			URL:         candidate.URL,
			PublishedAt: candidate.PublishedAt,
			Processed:   candidate.Processed,
		}
	}

	groups := similarity.GroupDuplicates(items)

	report := &DedupReport{Candidates: len(candidates)}
	for _, group := range groups {
		report.PairsMatched += len(group.Pairs)

		members := make([]db.GroupMemberInput, 0, len(group.MemberIDs))
		for _, memberID := range group.MemberIDs {
			member := db.GroupMemberInput{NewsID: memberID}
			for _, pair := range group.Pairs {
				if pair.LeftID != memberID && pair.RightID != memberID {
					continue
				}
				if pair.Match.Confidence >= member.Confidence {
					member.Similarity = pair.Match.Overall
					member.Confidence = pair.Match.Confidence
					if details, err := json.Marshal(pair.Match); err == nil {
						member.MatchDetails = details
					}
				}
			}
			members = append(members, member)
		}

		groupID, err := pool.CreateDuplicateGroup(ctx, group.PrimaryID, group.Confidence, members)
		if err != nil {
			metrics.DedupRunsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("persist duplicate group: %w", err)
		}

		logger.Info().
			Int64("group_id", groupID).
			Int64("primary_news_id", group.PrimaryID).
			Int("members", len(members)).
			Float64("confidence", group.Confidence).
			Msg("duplicate group created")

		metrics.DedupGroupsCreatedTotal.Inc()
		report.GroupsCreated++
		report.ItemsGrouped += len(members)
		if group.Confidence > report.TopConfidence {
			report.TopConfidence = group.Confidence
		}
	}

	report.Elapsed = globaltime.UTC().Sub(start).Round(time.Millisecond).String()
	metrics.DedupRunsTotal.WithLabelValues("ok").Inc()

	logger.Info().
		Int("candidates", report.Candidates).
		Int("groups_created", report.GroupsCreated).
		Int("items_grouped", report.ItemsGrouped).
		Str("elapsed", report.Elapsed).
		Msg("dedup run finished")

	return report, nil
}
