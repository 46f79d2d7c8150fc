// internal/service/analysis/search.go

package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trendscout/internal/config"
	"trendscout/internal/domain/trend"
)

// TrendFinder searches the vendor for candidate posts per hashtag.
// Hashtags are processed sequentially with a fixed delay so one
// pipeline run cannot burst the vendor's rate limits. Per-hashtag
// failures are isolated: a bad tag costs its own results only.
type TrendFinder struct {
	data   trend.DataPort
	cache  trend.Cache
	config config.PipelineConfig
	delay  time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewTrendFinder creates a trend finder. delay is the pause between
// consecutive vendor searches.
func NewTrendFinder(data trend.DataPort, cache trend.Cache, cfg config.PipelineConfig, delay time.Duration, logger *slog.Logger) *TrendFinder {
	return &TrendFinder{
		data:   data,
		cache:  cache,
		config: cfg,
		delay:  delay,
		logger: logger,
		now:    time.Now,
	}
}

// Find collects candidates for the given hashtags, then widens to the
// backup hashtag cascade if the primary tags yielded fewer than the
// target count. Candidates are deduplicated by post ID; the first
// hashtag to surface a post owns it.
func (f *TrendFinder) Find(ctx context.Context, hashtags []string) []trend.Candidate {
	seen := make(map[string]struct{})
	var candidates []trend.Candidate

	candidates = f.searchRound(ctx, hashtags, f.config.SearchWindowDays, candidates, seen)

	if len(candidates) < f.config.TargetTrendCount {
		f.logger.Info("primary hashtags yielded too few candidates, widening to backup tags",
			"found", len(candidates), "target", f.config.TargetTrendCount)

		used := make(map[string]struct{}, len(hashtags))
		for _, tag := range hashtags {
			used[strings.ToLower(tag)] = struct{}{}
		}

		var backups []string
		for _, tag := range f.config.BackupHashtags {
			if _, dup := used[strings.ToLower(tag)]; !dup {
				backups = append(backups, tag)
			}
		}

		candidates = f.searchRound(ctx, backups, f.config.WidenedWindowDays, candidates, seen)
	}

	return candidates
}

// searchRound walks tags in order, stopping early once the target
// count is reached or the context is cancelled. A tag that yields
// nothing in its window is retried once at the widened window before
// being skipped.
func (f *TrendFinder) searchRound(ctx context.Context, tags []string, periodDays int, acc []trend.Candidate, seen map[string]struct{}) []trend.Candidate {
	for i, tag := range tags {
		if len(acc) >= f.config.TargetTrendCount {
			break
		}

		found := f.searchTag(ctx, tag, periodDays)
		if len(found) == 0 && periodDays < f.config.WidenedWindowDays {
			select {
			case <-ctx.Done():
				return acc
			case <-time.After(f.delay):
			}
			found = f.searchTag(ctx, tag, f.config.WidenedWindowDays)
		}

		taken := 0
		for _, c := range found {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			acc = append(acc, c)
			taken++
			if taken >= f.config.VideosPerHashtag {
				break
			}
		}

		if i < len(tags)-1 && len(acc) < f.config.TargetTrendCount {
			select {
			case <-ctx.Done():
				return acc
			case <-time.After(f.delay):
			}
		}
	}

	return acc
}

// searchTag fetches candidates for one hashtag, serving repeats within
// the TTL from cache. Vendor failures are logged and yield nil.
func (f *TrendFinder) searchTag(ctx context.Context, tag string, periodDays int) []trend.Candidate {
	fetchCount := f.config.VideosPerHashtag * 5
	cacheKey := fmt.Sprintf("%s:%d:%d", strings.ToLower(tag), periodDays, fetchCount)

	var cached []trend.Candidate
	if f.cache != nil && f.cache.Get(ctx, trend.NSTrends, cacheKey, &cached) {
		return cached
	}

	posts, err := f.data.SearchHashtag(ctx, tag, fetchCount, periodDays, trend.SortRelevance)
	if err != nil {
		f.logger.Warn("hashtag search failed", "hashtag", tag, "error", err)
		return nil
	}

	candidates := f.toCandidates(posts, tag, periodDays)

	if f.cache != nil {
		f.cache.Set(ctx, trend.NSTrends, cacheKey, candidates, 0)
	}

	return candidates
}

// toCandidates converts vendor posts into candidates, enforcing the
// search window. Posts without a parseable timestamp are dropped: an
// unknown age cannot satisfy a recency guarantee.
func (f *TrendFinder) toCandidates(posts []trend.Post, tag string, periodDays int) []trend.Candidate {
	cutoff := f.now().AddDate(0, 0, -periodDays)

	candidates := make([]trend.Candidate, 0, len(posts))
	for _, p := range posts {
		if p.CreateTime.IsZero() || p.CreateTime.Before(cutoff) {
			continue
		}
		candidates = append(candidates, trend.Candidate{
			ID:            p.ID,
			Caption:       p.Caption,
			Views:         p.Views,
			Likes:         p.Likes,
			Comments:      p.Comments,
			Shares:        p.Shares,
			CreateTime:    p.CreateTime,
			VideoURL:      p.VideoURL,
			CoverImageURL: p.CoverImageURL,
			SourceHashtag: strings.ToLower(strings.TrimPrefix(tag, "#")),
			Author:        p.Author,
		})
	}

	return candidates
}
