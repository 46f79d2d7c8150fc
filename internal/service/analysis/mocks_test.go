// internal/service/analysis/mocks_test.go

package analysis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"trendscout/internal/config"
	"trendscout/internal/domain/trend"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		MaxPostsPerUser:   20,
		MaxHashtags:       5,
		VideosPerHashtag:  2,
		TargetTrendCount:  10,
		OverallTrendCap:   15,
		SearchWindowDays:  7,
		WidenedWindowDays: 30,
		BackupHashtags: []string{
			"fyp", "viral", "trending", "foryou", "tiktok",
			"dance", "comedy", "music", "lifestyle",
		},
		FallbackTags:  []string{"contentcreator", "creative", "creator", "content", "original"},
		TopPostsForAI: 5,

		StrictMinEngagement: 0.02,
		StrictMinViews:      10000,
		StrictMinLikes:      200,
		RelaxedMinViews:     5000,
		RelaxedMinLikes:     50,
		QualityMaxAgeDays:   14,
		RankedPoolSize:      30,

		ViewWeight:       0.3,
		LikeWeight:       8,
		CommentWeight:    15,
		ShareWeight:      20,
		EngagementWeight: 50000,

		BusyWait:         50 * time.Millisecond,
		BusyPollInterval: 10 * time.Millisecond,
	}
}

// memCache mirrors the real cache's JSON round-trip semantics
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, namespace, key string, dest any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.data[namespace+":"+key]
	if !ok {
		return false
	}
	return json.Unmarshal(payload, dest) == nil
}

func (c *memCache) Set(_ context.Context, namespace, key string, payload any, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.data[namespace+":"+key] = b
	c.sets++
}

func (c *memCache) ClearPattern(_ context.Context, _ string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.data)
	c.data = make(map[string][]byte)
	return n
}

// memLocker is an in-process lock with a switch to simulate contention
type memLocker struct {
	mu     sync.Mutex
	held   map[string]bool
	denied bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) Acquire(_ context.Context, name string, _ time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denied || l.held[name] {
		return false
	}
	l.held[name] = true
	return true
}

func (l *memLocker) Release(_ context.Context, name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held[name] {
		return false
	}
	delete(l.held, name)
	return true
}

// stubData implements trend.DataPort with per-call hooks
type stubData struct {
	profileFn       func(handle string) (*trend.Profile, error)
	postsFn         func(handle string, count int) ([]trend.Post, error)
	searchHashtagFn func(tag string, count, periodDays int) ([]trend.Post, error)
	searchPopularFn func(count, periodDays int) ([]trend.Post, error)

	mu             sync.Mutex
	searchedTags   []string
	searchedPeriod []int
}

func (d *stubData) Profile(_ context.Context, handle string) (*trend.Profile, error) {
	return d.profileFn(handle)
}

func (d *stubData) Posts(_ context.Context, handle string, count int, _ string) ([]trend.Post, error) {
	return d.postsFn(handle, count)
}

func (d *stubData) SearchHashtag(_ context.Context, tag string, count, periodDays int, _ trend.SortOrder) ([]trend.Post, error) {
	d.mu.Lock()
	d.searchedTags = append(d.searchedTags, tag)
	d.searchedPeriod = append(d.searchedPeriod, periodDays)
	d.mu.Unlock()
	return d.searchHashtagFn(tag, count, periodDays)
}

func (d *stubData) SearchPopular(_ context.Context, count, periodDays int) ([]trend.Post, error) {
	if d.searchPopularFn == nil {
		return nil, nil
	}
	return d.searchPopularFn(count, periodDays)
}

// stubHashtagClassifier implements trend.HashtagClassifier
type stubHashtagClassifier struct {
	result *trend.HashtagAnalysis
	err    error
}

func (s *stubHashtagClassifier) ExtractHashtags(_ context.Context, _ []trend.Post, _ string) (*trend.HashtagAnalysis, error) {
	return s.result, s.err
}

// stubNicheClassifier implements trend.NicheClassifier
type stubNicheClassifier struct {
	result *trend.NicheAnalysis
	err    error
}

func (s *stubNicheClassifier) ClassifyNiche(_ context.Context, _, _ string, _ []string, _, _ int) (*trend.NicheAnalysis, error) {
	return s.result, s.err
}

// stubRater implements trend.RelevanceRater
type stubRater struct {
	fn    func(c trend.Candidate) (*trend.RelevanceAnalysis, error)
	calls int
}

func (s *stubRater) ScoreRelevance(_ context.Context, c trend.Candidate, _, _ string, _ []string) (*trend.RelevanceAnalysis, error) {
	s.calls++
	return s.fn(c)
}

// post builds a vendor post created the given number of days ago
func post(id string, views, likes int, ageDays int) trend.Post {
	return trend.Post{
		ID:         id,
		Caption:    "caption " + id,
		Views:      views,
		Likes:      likes,
		CreateTime: time.Now().AddDate(0, 0, -ageDays),
	}
}

// candidate builds a quality-cascade input with explicit stats
func candidate(id string, views, likes, comments, shares int, ageDays int) trend.Candidate {
	return trend.Candidate{
		ID:         id,
		Caption:    "caption " + id,
		Views:      views,
		Likes:      likes,
		Comments:   comments,
		Shares:     shares,
		CreateTime: time.Now().AddDate(0, 0, -ageDays),
	}
}
