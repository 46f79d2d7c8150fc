// internal/service/analysis/quality.go

package analysis

import (
	"log/slog"
	"sort"
	"time"

	"trendscout/internal/config"
	"trendscout/internal/domain/trend"
)

// QualityFilter keeps the strongest candidates via a tiered cascade of
// engagement thresholds. Each tier is strictly weaker than the one
// before it, so the filter can only fail to select when the input is
// empty: never return nothing when something survived a weaker bar.
// Every tier but the last enforces the recency window; only the
// last-resort tier takes candidates of any age.
type QualityFilter struct {
	config config.PipelineConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewQualityFilter creates a quality filter
func NewQualityFilter(cfg config.PipelineConfig, logger *slog.Logger) *QualityFilter {
	return &QualityFilter{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Filter selects the first non-empty tier of the cascade, ranks it by
// composite engagement score, and truncates to the ranked pool size.
// Equal scores keep their input order.
func (q *QualityFilter) Filter(candidates []trend.Candidate) []trend.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	now := q.now()

	tiers := []struct {
		name string
		keep func(trend.Candidate) bool
	}{
		{"strict", func(c trend.Candidate) bool {
			return c.EngagementRate() >= q.config.StrictMinEngagement &&
				c.Views >= q.config.StrictMinViews &&
				c.Likes >= q.config.StrictMinLikes &&
				c.AgeDays(now) <= q.config.QualityMaxAgeDays
		}},
		{"relaxed", func(c trend.Candidate) bool {
			return c.Views > q.config.RelaxedMinViews &&
				c.Likes > q.config.RelaxedMinLikes &&
				c.AgeDays(now) <= q.config.QualityMaxAgeDays
		}},
		{"minimal", func(c trend.Candidate) bool {
			return c.Views > 0 && c.AgeDays(now) <= q.config.QualityMaxAgeDays
		}},
		{"all", func(trend.Candidate) bool {
			return true
		}},
	}

	var selected []trend.Candidate
	for _, tier := range tiers {
		selected = selected[:0]
		for _, c := range candidates {
			if tier.keep(c) {
				selected = append(selected, c)
			}
		}
		if len(selected) > 0 {
			q.logger.Debug("quality tier selected",
				"tier", tier.name, "kept", len(selected), "input", len(candidates))
			break
		}
	}

	ranked := make([]trend.Candidate, len(selected))
	copy(ranked, selected)
	sort.SliceStable(ranked, func(i, j int) bool {
		return q.compositeScore(ranked[i]) > q.compositeScore(ranked[j])
	})

	if len(ranked) > q.config.RankedPoolSize {
		ranked = ranked[:q.config.RankedPoolSize]
	}

	return ranked
}

// compositeScore blends raw reach with the interaction counts that
// signal genuine engagement. Shares and comments outweigh likes; the
// engagement-rate term keeps small-but-devoted posts competitive.
func (q *QualityFilter) compositeScore(c trend.Candidate) float64 {
	return float64(c.Views)*q.config.ViewWeight +
		float64(c.Likes)*q.config.LikeWeight +
		float64(c.Comments)*q.config.CommentWeight +
		float64(c.Shares)*q.config.ShareWeight +
		c.EngagementRate()*q.config.EngagementWeight
}
