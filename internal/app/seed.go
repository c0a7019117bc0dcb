package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/newsdesk/internal/cli"
	"horse.fit/newsdesk/internal/db"
	"horse.fit/newsdesk/internal/globaltime"
	"horse.fit/newsdesk/internal/logging"
	"horse.fit/newsdesk/internal/similarity"
)

type seedNewsItem struct {
	source       string
	sourceItemID string
	title        string
	content      string
	url          string
	category     string
	tags         []string
}

var seedCategories = []struct {
	slug string
	name string
}{
	{slug: "politics", name: "Politics"},
	{slug: "technology", name: "Technology"},
	{slug: "culture", name: "Culture"},
	{slug: "sport", name: "Sport"},
}

var seedNewsItems = []seedNewsItem{
	{
		source:       "seed",
		sourceItemID: "seed-001",
		title:        "City council approves new transit budget",
		content:      "The council voted on Tuesday to expand the transit budget for the coming fiscal year, with most of the increase earmarked for bus service on the east side.",
		url:          "https://example.com/news/transit-budget",
		category:     "politics",
		tags:         []string{"budget", "transit"},
	},
	{
		source:       "seed",
		sourceItemID: "seed-002",
		title:        "Local startup ships open-source database tooling",
		content:      "A four-person team released a suite of migration and inspection tools for Postgres this week, drawing early interest from platform engineering groups.",
		url:          "https://example.com/news/startup-database-tools",
		category:     "technology",
		tags:         []string{"open-source", "databases"},
	},
	{
		source:       "seed",
		sourceItemID: "seed-003",
		title:        "Museum reopens after two-year renovation",
		content:      "The city museum reopened its main wing on Saturday after an extensive renovation, with a new gallery dedicated to regional photography.",
		url:          "https://example.com/news/museum-reopens",
		category:     "culture",
		tags:         []string{"museums"},
	},
}

func runSeed(args []string) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "seed does not accept positional arguments")
		return 2
	}

	ctx, cancel, pool, cfg, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	if err := ensureDefaultAdmin(ctx, pool, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to ensure default admin: %v\n", err)
		return 1
	}

	categoriesCreated, err := seedCategoryRows(ctx, pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed categories: %v\n", err)
		return 1
	}

	newsInserted, newsSkipped, err := seedNewsRows(ctx, pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed news items: %v\n", err)
		return 1
	}

	if err := printJSON(map[string]any{
		"categories_created": categoriesCreated,
		"news_inserted":      newsInserted,
		"news_skipped":       newsSkipped,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}

func seedCategoryRows(ctx context.Context, pool *db.Pool) (int, error) {
	created := 0
	for i, category := range seedCategories {
		if _, err := pool.GetCategoryBySlug(ctx, category.slug); err == nil {
			continue
		} else if !errors.Is(err, db.ErrNoRows) {
			return created, err
		}
		if _, err := pool.CreateCategory(ctx, category.slug, category.name, nil, i); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func seedNewsRows(ctx context.Context, pool *db.Pool) (inserted, skipped int, err error) {
	now := globaltime.UTC()
	for _, item := range seedNewsItems {
		var categoryID *int64
		if item.category != "" {
			category, catErr := pool.GetCategoryBySlug(ctx, item.category)
			if catErr != nil && !errors.Is(catErr, db.ErrNoRows) {
				return inserted, skipped, catErr
			}
			if category != nil {
				categoryID = &category.CategoryID
			}
		}

		payload, marshalErr := json.Marshal(map[string]any{
			"payload_version": 1,
			"source":          item.source,
			"source_item_id":  item.sourceItemID,
			"title":           item.title,
			"body_text":       item.content,
			"url":             item.url,
		})
		if marshalErr != nil {
			return inserted, skipped, marshalErr
		}

		url := item.url
		publishedAt := now.Add(-6 * time.Hour)
		result, insertErr := pool.InsertNewsItem(ctx, db.NewNewsItem{
			Source:        item.source,
			SourceItemID:  item.sourceItemID,
			Title:         item.title,
			Content:       item.content,
			URL:           &url,
			NormalizedURL: similarity.NormalizeURL(item.url),
			Language:      "en",
			CategoryID:    categoryID,
			PublishedAt:   &publishedAt,
			RawPayload:    payload,
		})
		if insertErr != nil {
			return inserted, skipped, insertErr
		}
		if result.Duplicate {
			skipped++
			continue
		}
		inserted++

		if len(item.tags) > 0 {
			tagIDs := make([]int64, 0, len(item.tags))
			for _, name := range item.tags {
				tag, tagErr := pool.EnsureTag(ctx, name)
				if tagErr != nil {
					return inserted, skipped, tagErr
				}
				tagIDs = append(tagIDs, tag.TagID)
			}
			if tagErr := pool.SetNewsTags(ctx, result.NewsID, tagIDs); tagErr != nil {
				return inserted, skipped, tagErr
			}
		}
	}
	return inserted, skipped, nil
}
