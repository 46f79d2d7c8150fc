// internal/service/analysis/relevance.go

package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"trendscout/internal/config"
	"trendscout/internal/domain/trend"
)

// RelevanceScorer rates each candidate's fit against the creator's
// niche. Vision verdicts are cached per candidate-and-niche pair; when
// the vision model is unavailable a deterministic heuristic scores the
// candidate instead, so ranking always completes.
type RelevanceScorer struct {
	rater  trend.RelevanceRater
	cache  trend.Cache
	config config.PipelineConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewRelevanceScorer creates a relevance scorer
func NewRelevanceScorer(rater trend.RelevanceRater, cache trend.Cache, cfg config.PipelineConfig, logger *slog.Logger) *RelevanceScorer {
	return &RelevanceScorer{
		rater:  rater,
		cache:  cache,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Score assigns every candidate a relevance score in [0, 1] and
// returns the candidates re-ranked by it, ties keeping their prior
// (engagement) order
func (s *RelevanceScorer) Score(ctx context.Context, candidates []trend.Candidate, profile *trend.Profile) []trend.Candidate {
	scored := make([]trend.Candidate, len(candidates))
	copy(scored, candidates)

	for i := range scored {
		verdict := s.scoreOne(ctx, scored[i], profile)
		scored[i].RelevanceScore = clamp01(verdict.Score)
		scored[i].Relevance = verdict
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	return scored
}

func (s *RelevanceScorer) scoreOne(ctx context.Context, c trend.Candidate, profile *trend.Profile) *trend.RelevanceAnalysis {
	cacheKey := fmt.Sprintf("%s:%s", c.ID, nicheSlug(profile.NicheCategory))

	var cached trend.RelevanceAnalysis
	if s.cache != nil && s.cache.Get(ctx, trend.NSRelevance, cacheKey, &cached) {
		return &cached
	}

	var verdict *trend.RelevanceAnalysis
	if s.rater != nil {
		v, err := s.rater.ScoreRelevance(ctx, c, profile.NicheCategory, profile.NicheDescription, profile.KeyTopics)
		if err != nil {
			s.logger.Warn("vision relevance scoring failed, using heuristic",
				"candidate", c.ID, "error", err)
		} else {
			verdict = v
		}
	}
	if verdict == nil {
		verdict = s.heuristic(c, profile)
	}

	if s.cache != nil {
		s.cache.Set(ctx, trend.NSRelevance, cacheKey, verdict, 0)
	}

	return verdict
}

// heuristic approximates topical fit from text overlap and engagement
// signals. Each component is capped so no single signal can dominate.
func (s *RelevanceScorer) heuristic(c trend.Candidate, profile *trend.Profile) *trend.RelevanceAnalysis {
	text := strings.ToLower(c.Caption + " " + c.SourceHashtag)

	var score float64

	// Niche term overlap, up to 0.4
	nicheTerms := significantWords(profile.NicheCategory + " " + profile.NicheDescription)
	if len(nicheTerms) > 0 {
		matched := 0
		for _, term := range nicheTerms {
			if strings.Contains(text, term) {
				matched++
			}
		}
		score += 0.4 * float64(matched) / float64(len(nicheTerms))
	}

	// Key topic overlap, up to 0.3
	if len(profile.KeyTopics) > 0 {
		matched := 0
		for _, topic := range profile.KeyTopics {
			if topic != "" && strings.Contains(text, strings.ToLower(topic)) {
				matched++
			}
		}
		score += 0.3 * float64(matched) / float64(len(profile.KeyTopics))
	}

	// Engagement strength, up to 0.15
	switch er := c.EngagementRate(); {
	case er >= 0.05:
		score += 0.15
	case er >= 0.02:
		score += 0.10
	case er >= 0.01:
		score += 0.05
	}

	// Freshness, up to 0.1
	switch age := c.AgeDays(s.now()); {
	case age <= 3:
		score += 0.10
	case age <= 7:
		score += 0.07
	case age <= s.config.QualityMaxAgeDays:
		score += 0.04
	}

	// Reach, up to 0.05
	switch {
	case c.Views >= 1_000_000:
		score += 0.05
	case c.Views >= 100_000:
		score += 0.03
	case c.Views >= 10_000:
		score += 0.02
	}

	// Completeness bonus
	if c.Views > 0 && c.Caption != "" {
		score += 0.05
	}

	return &trend.RelevanceAnalysis{
		Score:       clamp01(score),
		Explanation: "Estimated from caption and engagement signals without visual review.",
		Confidence:  0.3,
	}
}

// significantWords extracts lowercase words longer than three
// characters, which skips stopwords without needing a list
func significantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}

// nicheSlug normalizes a niche category for use inside a cache key
func nicheSlug(category string) string {
	if category == "" {
		return "general"
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(category)), " ", "-")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
