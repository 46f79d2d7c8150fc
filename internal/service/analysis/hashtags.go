// internal/service/analysis/hashtags.go

// Package analysis implements the trend discovery pipeline: hashtag
// extraction, candidate search, quality filtering, relevance scoring,
// and the orchestrating service that ties them together.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"trendscout/internal/config"
	"trendscout/internal/domain/trend"
)

// HashtagExtractor produces the hashtag list that seeds candidate
// search. It prefers the text classifier and falls back to frequency
// counting over the creator's own posts, so it never fails outright.
type HashtagExtractor struct {
	classifier trend.HashtagClassifier
	config     config.PipelineConfig
	logger     *slog.Logger
}

// NewHashtagExtractor creates a hashtag extractor
func NewHashtagExtractor(classifier trend.HashtagClassifier, cfg config.PipelineConfig, logger *slog.Logger) *HashtagExtractor {
	return &HashtagExtractor{
		classifier: classifier,
		config:     cfg,
		logger:     logger,
	}
}

// Extract returns up to MaxHashtags hashtags for the creator. The
// result is always non-empty: classifier output, else frequency
// counting over the creator's posts, else the generic fallback tags.
func (h *HashtagExtractor) Extract(ctx context.Context, profile *trend.Profile, posts []trend.Post) *trend.HashtagAnalysis {
	top := TopPostsByEngagement(posts, h.config.TopPostsForAI)

	if h.classifier != nil {
		result, err := h.classifier.ExtractHashtags(ctx, top, profile.Bio)
		if err == nil {
			var padded int
			result.Hashtags, padded = h.pad(result.Hashtags)
			if padded > 0 {
				result.Summary = strings.TrimSpace(result.Summary) +
					fmt.Sprintf(" Topped up with %d generic fallback hashtags.", padded)
			}
			return result
		}
		h.logger.Warn("hashtag classifier failed, using frequency fallback",
			"username", profile.Username, "error", err)
	}

	return h.frequencyFallback(posts)
}

// frequencyFallback ranks the hashtags the creator already uses by how
// often they appear, most frequent first. Ties keep first-seen order.
func (h *HashtagExtractor) frequencyFallback(posts []trend.Post) *trend.HashtagAnalysis {
	counts := make(map[string]int)
	order := make(map[string]int)

	for _, post := range posts {
		for _, tag := range post.Hashtags {
			tag = strings.ToLower(strings.TrimPrefix(tag, "#"))
			if tag == "" {
				continue
			}
			if _, seen := counts[tag]; !seen {
				order[tag] = len(order)
			}
			counts[tag]++
		}
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return order[tags[i]] < order[tags[j]]
	})

	if len(tags) > h.config.MaxHashtags {
		tags = tags[:h.config.MaxHashtags]
	}
	tags, padded := h.pad(tags)

	summary := fmt.Sprintf("Selected the creator's %d most frequently used hashtags.", len(tags)-padded)
	if padded > 0 {
		summary += fmt.Sprintf(" Topped up with %d generic fallback hashtags.", padded)
	}

	return &trend.HashtagAnalysis{
		Hashtags: tags,
		Summary:  summary,
		Fallback: true,
	}
}

// pad tops the list up to MaxHashtags with generic fallback tags,
// enforcing the cap, and reports how many generic tags it appended so
// callers can flag the padding as lower-confidence
func (h *HashtagExtractor) pad(tags []string) ([]string, int) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, h.config.MaxHashtags)
	for _, t := range tags {
		if _, dup := seen[t]; dup || t == "" {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == h.config.MaxHashtags {
			return out, 0
		}
	}
	padded := 0
	for _, t := range h.config.FallbackTags {
		if len(out) == h.config.MaxHashtags {
			break
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		padded++
	}
	return out, padded
}

// TopPostsByEngagement returns the creator's strongest posts ranked by
// views plus like count weighted tenfold, which tracks what their
// audience actually rewarded
func TopPostsByEngagement(posts []trend.Post, limit int) []trend.Post {
	ranked := make([]trend.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Views+ranked[i].Likes*10 > ranked[j].Views+ranked[j].Likes*10
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
