// internal/adapter/ai/client_test.go

package ai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendscout/internal/config"
	"trendscout/internal/domain/trend"
)

func newTestAIClient(baseURL string) *Client {
	return NewClient(config.AIConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		TextModel:   "text-model",
		VisionModel: "vision-model",
		NicheModel:  "niche-model",
		Temperature: 0.3,
		MaxTokens:   500,
		Timeout:     5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestStripFences(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"bare json passes through":  {in: `{"a": 1}`, want: `{"a": 1}`},
		"json fence is stripped":    {in: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		"plain fence is stripped":   {in: "```\n{\"a\": 1}\n```", want: `{"a": 1}`},
		"surrounding space trimmed": {in: "  {\"a\": 1}\n", want: `{"a": 1}`},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripFences(tc.in))
		})
	}
}

func TestExtractHashtags(t *testing.T) {
	srv := completionServer(t, "```json\n"+`{"top_hashtags": ["#HomeCooking", "mealprep", "mealprep", "airfryer"], "analysis_summary": "Food creator."}`+"\n```")
	defer srv.Close()

	classifier := NewHashtagClassifier(newTestAIClient(srv.URL), 3)

	got, err := classifier.ExtractHashtags(context.Background(), []trend.Post{{Caption: "dinner"}}, "bio")
	require.NoError(t, err)

	// Normalized, deduplicated, capped at the limit
	assert.Equal(t, []string{"homecooking", "mealprep", "airfryer"}, got.Hashtags)
	assert.Equal(t, "Food creator.", got.Summary)
	assert.False(t, got.Fallback)
}

func TestExtractHashtagsRejectsEmptyModelOutput(t *testing.T) {
	srv := completionServer(t, `{"top_hashtags": [], "analysis_summary": ""}`)
	defer srv.Close()

	classifier := NewHashtagClassifier(newTestAIClient(srv.URL), 5)

	_, err := classifier.ExtractHashtags(context.Background(), nil, "bio")

	var cerr *trend.ClassifierError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "hashtags", cerr.Classifier)
}

func TestClassifiersFailFastWithoutAPIKey(t *testing.T) {
	client := NewClient(config.AIConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := NewHashtagClassifier(client, 5).ExtractHashtags(context.Background(), nil, "")
	assert.Error(t, err)

	_, err = NewNicheClassifier(client).ClassifyNiche(context.Background(), "h", "b", nil, 0, 0)
	assert.Error(t, err)

	_, err = NewRelevanceRater(client).ScoreRelevance(context.Background(), trend.Candidate{}, "", "", nil)
	assert.Error(t, err)
}

func TestClassifyNiche(t *testing.T) {
	srv := completionServer(t, `{"niche_category": "Home Cooking", "niche_description": "Recipes.", "key_topics": ["cooking"], "target_audience": "home cooks", "content_style": "tutorial"}`)
	defer srv.Close()

	classifier := NewNicheClassifier(newTestAIClient(srv.URL))

	got, err := classifier.ClassifyNiche(context.Background(), "chef", "I cook", []string{"dinner"}, 1000, 50)
	require.NoError(t, err)
	assert.Equal(t, "Home Cooking", got.Category)
	assert.Equal(t, []string{"cooking"}, got.KeyTopics)
}

func TestScoreRelevanceClampsScore(t *testing.T) {
	srv := completionServer(t, `{"relevance_score": 4.2, "relevance_explanation": "off the scale", "confidence_level": 0.9}`)
	defer srv.Close()

	rater := NewRelevanceRater(newTestAIClient(srv.URL))

	got, err := rater.ScoreRelevance(context.Background(), trend.Candidate{ID: "1"}, "Cooking", "Recipes", nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Score, 1e-9)
}

func TestChatSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	classifier := NewNicheClassifier(newTestAIClient(srv.URL))

	_, err := classifier.ClassifyNiche(context.Background(), "chef", "bio", nil, 0, 0)

	var cerr *trend.ClassifierError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "niche", cerr.Classifier)
}
