// internal/service/analysis/pipeline.go

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

// HistoryStore archives completed pipeline runs. Implementations are
// optional; archiving failures never fail an analysis.
type HistoryStore interface {
	SaveRun(ctx context.Context, run RunRecord) error
	RecentRuns(ctx context.Context, handle string, limit int) ([]RunRecord, error)
}

// RunRecord is one archived pipeline run
type RunRecord struct {
	ID            int64     `json:"id"`
	Handle        string    `json:"handle"`
	NicheCategory string    `json:"niche_category"`
	Hashtags      []string  `json:"hashtags"`
	TrendCount    int       `json:"trend_count"`
	UsedFallback  bool      `json:"used_fallback"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// EventPublisher announces completed runs to interested consumers.
// Implementations are optional; publish failures never fail a run.
type EventPublisher interface {
	AnalysisCompleted(ctx context.Context, event CompletedEvent) error
}

// CompletedEvent is the payload published after a successful run
type CompletedEvent struct {
	Handle        string    `json:"handle"`
	NicheCategory string    `json:"niche_category"`
	TrendCount    int       `json:"trend_count"`
	UsedFallback  bool      `json:"used_fallback"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Service runs the full discovery pipeline: profile, posts, niche,
// hashtags, candidate search, quality filtering, relevance ranking.
// One run per handle at a time; concurrent requests for the same
// handle wait briefly for the winner's cached result.
type Service struct {
	data      trend.DataPort
	cache     trend.Cache
	locker    trend.Locker
	niche     trend.NicheClassifier
	extractor *HashtagExtractor
	finder    *TrendFinder
	quality   *QualityFilter
	relevance *RelevanceScorer
	history   HistoryStore
	events    EventPublisher
	config    config.PipelineConfig
	lockTTL   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates the pipeline service. history and events may be
// nil when those subsystems are not configured.
func NewService(
	data trend.DataPort,
	cache trend.Cache,
	locker trend.Locker,
	niche trend.NicheClassifier,
	extractor *HashtagExtractor,
	finder *TrendFinder,
	quality *QualityFilter,
	relevance *RelevanceScorer,
	history HistoryStore,
	events EventPublisher,
	cfg config.PipelineConfig,
	lockTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		data:      data,
		cache:     cache,
		locker:    locker,
		niche:     niche,
		extractor: extractor,
		finder:    finder,
		quality:   quality,
		relevance: relevance,
		history:   history,
		events:    events,
		config:    cfg,
		lockTTL:   lockTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Analyze runs the pipeline for one creator handle. Repeat requests
// within the analysis TTL are served from cache; a request that loses
// the per-handle lock polls for the winner's result and returns
// ErrBusy if none appears in time.
func (s *Service) Analyze(ctx context.Context, handle string) (*trend.Analysis, error) {
	handle = NormalizeHandle(handle)
	if handle == "" {
		return nil, fmt.Errorf("empty creator handle")
	}

	if cached, ok := s.GetCached(ctx, handle); ok {
		s.logger.Info("serving cached analysis", "username", handle)
		return cached, nil
	}

	lockName := "analysis:" + handle
	if !s.locker.Acquire(ctx, lockName, s.lockTTL) {
		return s.awaitPeerResult(ctx, handle)
	}

	// The pipeline keeps running once started: a caller-side timeout
	// must not waste the vendor calls already spent. The result lands
	// in cache for the next request either way.
	runCtx := context.WithoutCancel(ctx)
	defer s.locker.Release(runCtx, lockName)

	// A peer may have finished between our cache miss and lock grab
	if cached, ok := s.GetCached(runCtx, handle); ok {
		return cached, nil
	}

	started := s.now()
	s.logger.Info("starting analysis", "username", handle)

	profile, err := s.Profile(runCtx, handle)
	if err != nil {
		return nil, fmt.Errorf("fetching profile for %s: %w", handle, err)
	}

	posts, err := s.Posts(runCtx, handle, s.config.MaxPostsPerUser)
	if err != nil {
		return nil, fmt.Errorf("fetching posts for %s: %w", handle, err)
	}
	if len(posts) == 0 {
		return nil, &trend.InsufficientDataError{Handle: handle, Reason: "creator has no public posts"}
	}

	s.enrichNiche(runCtx, handle, profile, posts)

	hashtagAnalysis := s.extractor.Extract(runCtx, profile, posts)

	candidates := s.finder.Find(runCtx, hashtagAnalysis.Hashtags)
	ranked := s.quality.Filter(candidates)
	scored := s.relevance.Score(runCtx, ranked, profile)

	trends := s.assemble(runCtx, scored, profile)
	if len(trends) == 0 {
		// An empty result is a failure, not an artifact worth caching
		return nil, &trend.InsufficientDataError{
			Handle: handle,
			Reason: "no trend candidates found, even with backup hashtags and the popular supplement",
		}
	}

	analysis := &trend.Analysis{
		Profile:  *profile,
		Posts:    posts,
		Hashtags: hashtagAnalysis.Hashtags,
		Trends:   trends,
		Summary:  hashtagAnalysis.Summary,
	}

	s.cache.Set(runCtx, trend.NSAnalysis, handle, analysis, 0)

	duration := s.now().Sub(started)
	s.archive(runCtx, handle, profile, hashtagAnalysis, trends, duration)
	s.announce(runCtx, handle, profile, hashtagAnalysis, trends)

	s.logger.Info("analysis complete",
		"username", handle,
		"trends", len(trends),
		"hashtag_fallback", hashtagAnalysis.Fallback,
		"duration", duration)

	return analysis, nil
}

// GetCached returns the cached analysis for a handle, if present
func (s *Service) GetCached(ctx context.Context, handle string) (*trend.Analysis, bool) {
	var analysis trend.Analysis
	if !s.cache.Get(ctx, trend.NSAnalysis, NormalizeHandle(handle), &analysis) {
		return nil, false
	}
	return &analysis, true
}

// Profile returns the creator's profile, cached under the profile TTL
func (s *Service) Profile(ctx context.Context, handle string) (*trend.Profile, error) {
	handle = NormalizeHandle(handle)

	var cached trend.Profile
	if s.cache.Get(ctx, trend.NSProfile, handle, &cached) {
		return &cached, nil
	}

	profile, err := s.data.Profile(ctx, handle)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, trend.NSProfile, handle, profile, 0)
	return profile, nil
}

// Posts returns the creator's recent posts, cached under the posts TTL
func (s *Service) Posts(ctx context.Context, handle string, count int) ([]trend.Post, error) {
	handle = NormalizeHandle(handle)
	cacheKey := fmt.Sprintf("%s:%d", handle, count)

	var cached []trend.Post
	if s.cache.Get(ctx, trend.NSPosts, cacheKey, &cached) {
		return cached, nil
	}

	posts, err := s.data.Posts(ctx, handle, count, "")
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, trend.NSPosts, cacheKey, posts, 0)
	return posts, nil
}

// SearchHashtag exposes a single-hashtag candidate search, cached
// under the trends TTL
func (s *Service) SearchHashtag(ctx context.Context, tag string, count, periodDays int) ([]trend.Post, error) {
	tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	if tag == "" {
		return nil, fmt.Errorf("empty hashtag")
	}
	cacheKey := fmt.Sprintf("raw:%s:%d:%d", tag, count, periodDays)

	var cached []trend.Post
	if s.cache.Get(ctx, trend.NSTrends, cacheKey, &cached) {
		return cached, nil
	}

	posts, err := s.data.SearchHashtag(ctx, tag, count, periodDays, trend.SortRelevance)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, trend.NSTrends, cacheKey, posts, 0)
	return posts, nil
}

// History returns recent archived runs for a handle
func (s *Service) History(ctx context.Context, handle string, limit int) ([]RunRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.RecentRuns(ctx, NormalizeHandle(handle), limit)
}

// awaitPeerResult polls the cache while another process runs the
// pipeline for the same handle, returning ErrBusy if no result lands
// within the wait budget
func (s *Service) awaitPeerResult(ctx context.Context, handle string) (*trend.Analysis, error) {
	s.logger.Info("analysis already running elsewhere, polling for its result", "username", handle)

	deadline := s.now().Add(s.config.BusyWait)
	for s.now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.config.BusyPollInterval):
		}
		if cached, ok := s.GetCached(ctx, handle); ok {
			return cached, nil
		}
	}

	return nil, trend.ErrBusy
}

// enrichNiche classifies the creator's niche once per profile-cache
// cycle. Classifier failure falls back to a generic niche so the rest
// of the pipeline always has one.
func (s *Service) enrichNiche(ctx context.Context, handle string, profile *trend.Profile, posts []trend.Post) {
	if profile.NicheCategory != "" {
		return
	}

	captions := make([]string, 0, len(posts))
	for _, p := range posts {
		if p.Caption != "" {
			captions = append(captions, p.Caption)
		}
		if len(captions) == 10 {
			break
		}
	}

	var niche *trend.NicheAnalysis
	if s.niche != nil {
		n, err := s.niche.ClassifyNiche(ctx, handle, profile.Bio, captions, profile.FollowerCount, profile.VideoCount)
		if err != nil {
			s.logger.Warn("niche classification failed, using generic niche",
				"username", handle, "error", err)
		} else {
			niche = n
		}
	}
	if niche == nil {
		niche = &trend.NicheAnalysis{
			Category:    "General Content Creator",
			Description: "Creates varied content across general interest topics.",
			KeyTopics:   []string{"lifestyle", "entertainment"},
			Audience:    "general audience",
			Style:       "mixed",
		}
	}

	profile.NicheCategory = niche.Category
	profile.NicheDescription = niche.Description
	profile.KeyTopics = niche.KeyTopics
	profile.TargetAudience = niche.Audience
	profile.ContentStyle = niche.Style

	// Refresh the cached profile so repeat runs skip classification
	s.cache.Set(ctx, trend.NSProfile, handle, profile, 0)
}

// assemble takes the top niche-ranked candidates and tops the list up
// to the overall cap from the broad-popularity pool. Niche candidates
// keep priority on ID collisions; supplement posts obey the same
// recency window as searched candidates.
func (s *Service) assemble(ctx context.Context, scored []trend.Candidate, profile *trend.Profile) []trend.Candidate {
	trends := scored
	if len(trends) > s.config.TargetTrendCount {
		trends = trends[:s.config.TargetTrendCount]
	}
	if len(trends) >= s.config.OverallTrendCap {
		return trends
	}

	posts, err := s.data.SearchPopular(ctx, s.config.TargetTrendCount*2, s.config.WidenedWindowDays)
	if err != nil {
		s.logger.Warn("popular supplement failed", "error", err)
		return trends
	}

	seen := make(map[string]struct{}, len(trends))
	for _, c := range trends {
		seen[c.ID] = struct{}{}
	}
	cutoff := s.now().AddDate(0, 0, -s.config.WidenedWindowDays)

	supplement := make([]trend.Candidate, 0, len(posts))
	for _, p := range posts {
		if p.CreateTime.IsZero() || p.CreateTime.Before(cutoff) {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		supplement = append(supplement, trend.Candidate{
			ID:            p.ID,
			Caption:       p.Caption,
			Views:         p.Views,
			Likes:         p.Likes,
			Comments:      p.Comments,
			Shares:        p.Shares,
			CreateTime:    p.CreateTime,
			VideoURL:      p.VideoURL,
			CoverImageURL: p.CoverImageURL,
			SourceHashtag: "popular",
			Author:        p.Author,
		})
	}

	supplement = s.relevance.Score(ctx, supplement, profile)

	for _, c := range supplement {
		if len(trends) >= s.config.OverallTrendCap {
			break
		}
		trends = append(trends, c)
	}

	return trends
}

func (s *Service) archive(ctx context.Context, handle string, profile *trend.Profile, ha *trend.HashtagAnalysis, trends []trend.Candidate, duration time.Duration) {
	if s.history == nil {
		return
	}
	run := RunRecord{
		Handle:        handle,
		NicheCategory: profile.NicheCategory,
		Hashtags:      ha.Hashtags,
		TrendCount:    len(trends),
		UsedFallback:  ha.Fallback,
		DurationMs:    duration.Milliseconds(),
		CreatedAt:     s.now(),
	}
	if err := s.history.SaveRun(ctx, run); err != nil {
		s.logger.Warn("failed to archive analysis run", "username", handle, "error", err)
	}
}

func (s *Service) announce(ctx context.Context, handle string, profile *trend.Profile, ha *trend.HashtagAnalysis, trends []trend.Candidate) {
	if s.events == nil {
		return
	}
	event := CompletedEvent{
		Handle:        handle,
		NicheCategory: profile.NicheCategory,
		TrendCount:    len(trends),
		UsedFallback:  ha.Fallback,
		CompletedAt:   s.now(),
	}
	if err := s.events.AnalysisCompleted(ctx, event); err != nil {
		s.logger.Warn("failed to publish completion event", "username", handle, "error", err)
	}
}

// NormalizeHandle canonicalizes a creator handle: trimmed, lowercased,
// without a leading @
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}
