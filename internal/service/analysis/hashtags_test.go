// internal/service/analysis/hashtags_test.go

package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendscout/internal/domain/trend"
)

func TestHashtagExtractorUsesClassifier(t *testing.T) {
	classifier := &stubHashtagClassifier{
		result: &trend.HashtagAnalysis{
			Hashtags: []string{"homecooking", "mealprep", "airfryer"},
			Summary:  "Food-focused creator.",
		},
	}
	extractor := NewHashtagExtractor(classifier, testPipelineConfig(), testLogger())

	got := extractor.Extract(context.Background(), &trend.Profile{Username: "chef"}, nil)

	require.NotNil(t, got)
	assert.False(t, got.Fallback)
	// Padded to the limit with generic tags, and the padding is called
	// out in the summary
	assert.Equal(t, []string{"homecooking", "mealprep", "airfryer", "contentcreator", "creative"}, got.Hashtags)
	assert.Equal(t, "Food-focused creator. Topped up with 2 generic fallback hashtags.", got.Summary)
}

func TestHashtagExtractorLeavesFullClassifierOutputUnmarked(t *testing.T) {
	classifier := &stubHashtagClassifier{
		result: &trend.HashtagAnalysis{
			Hashtags: []string{"homecooking", "mealprep", "airfryer", "baking", "desserts"},
			Summary:  "Food-focused creator.",
		},
	}
	extractor := NewHashtagExtractor(classifier, testPipelineConfig(), testLogger())

	got := extractor.Extract(context.Background(), &trend.Profile{Username: "chef"}, nil)

	require.NotNil(t, got)
	assert.Equal(t, "Food-focused creator.", got.Summary)
}

func TestHashtagExtractorFallsBackOnClassifierError(t *testing.T) {
	classifier := &stubHashtagClassifier{err: errors.New("model unavailable")}
	extractor := NewHashtagExtractor(classifier, testPipelineConfig(), testLogger())

	posts := []trend.Post{
		{ID: "1", Hashtags: []string{"cooking", "recipe"}},
		{ID: "2", Hashtags: []string{"cooking", "kitchen"}},
		{ID: "3", Hashtags: []string{"cooking", "recipe"}},
	}

	got := extractor.Extract(context.Background(), &trend.Profile{Username: "chef"}, posts)

	require.NotNil(t, got)
	assert.True(t, got.Fallback)
	// Frequency order: cooking x3, recipe x2, kitchen x1, then padding
	assert.Equal(t, []string{"cooking", "recipe", "kitchen", "contentcreator", "creative"}, got.Hashtags)
	assert.Contains(t, got.Summary, "generic fallback hashtags")
}

func TestHashtagExtractorFallbackWithNoPostHashtags(t *testing.T) {
	classifier := &stubHashtagClassifier{err: errors.New("model unavailable")}
	extractor := NewHashtagExtractor(classifier, testPipelineConfig(), testLogger())

	got := extractor.Extract(context.Background(), &trend.Profile{Username: "quiet"}, []trend.Post{{ID: "1"}})

	require.NotNil(t, got)
	assert.True(t, got.Fallback)
	assert.Equal(t, []string{"contentcreator", "creative", "creator", "content", "original"}, got.Hashtags)
}

func TestHashtagExtractorCapsClassifierOutput(t *testing.T) {
	classifier := &stubHashtagClassifier{
		result: &trend.HashtagAnalysis{
			Hashtags: []string{"a", "b", "c", "d", "e", "f", "g"},
		},
	}
	extractor := NewHashtagExtractor(classifier, testPipelineConfig(), testLogger())

	got := extractor.Extract(context.Background(), &trend.Profile{}, nil)

	assert.Len(t, got.Hashtags, 5)
}

func TestTopPostsByEngagement(t *testing.T) {
	tests := map[string]struct {
		posts []trend.Post
		limit int
		want  []string
	}{
		"likes weighted tenfold over views": {
			posts: []trend.Post{
				{ID: "views", Views: 5000, Likes: 0},
				{ID: "likes", Views: 0, Likes: 1000},
			},
			limit: 2,
			want:  []string{"likes", "views"},
		},
		"truncates to limit": {
			posts: []trend.Post{
				{ID: "a", Views: 300},
				{ID: "b", Views: 200},
				{ID: "c", Views: 100},
			},
			limit: 2,
			want:  []string{"a", "b"},
		},
		"ties keep input order": {
			posts: []trend.Post{
				{ID: "first", Views: 100},
				{ID: "second", Views: 100},
			},
			limit: 2,
			want:  []string{"first", "second"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := TopPostsByEngagement(tc.posts, tc.limit)
			ids := make([]string, len(got))
			for i, p := range got {
				ids[i] = p.ID
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}
