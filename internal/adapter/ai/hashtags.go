// internal/adapter/ai/hashtags.go

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"trendscout/internal/domain/trend"
)

const hashtagSystemPrompt = `You are a social media trend analyst. You study a creator's best-performing videos and identify the hashtags most likely to surface relevant trending content for them. Respond with JSON only, no prose and no code fences.`

// HashtagClassifier extracts ranked niche hashtags from a creator's top
// posts via the text model
type HashtagClassifier struct {
	client *Client
	limit  int
}

// NewHashtagClassifier creates a hashtag classifier that returns at
// most limit hashtags
func NewHashtagClassifier(client *Client, limit int) *HashtagClassifier {
	return &HashtagClassifier{client: client, limit: limit}
}

// ExtractHashtags asks the text model for the hashtags that best
// represent the creator's niche, grounded in their top posts and bio
func (h *HashtagClassifier) ExtractHashtags(ctx context.Context, topPosts []trend.Post, bio string) (*trend.HashtagAnalysis, error) {
	if !h.client.Configured() {
		return nil, &trend.ClassifierError{Classifier: "hashtags", Err: fmt.Errorf("text model not configured")}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Creator bio: %q\n\nTop posts by engagement:\n", bio)
	for i, p := range topPosts {
		fmt.Fprintf(&sb, "%d. caption: %q views: %d likes: %d comments: %d shares: %d hashtags: %s\n",
			i+1, p.Caption, p.Views, p.Likes, p.Comments, p.Shares, strings.Join(p.Hashtags, " "))
	}
	fmt.Fprintf(&sb, "\nIdentify the %d hashtags that best capture this creator's niche and would surface trending videos their audience cares about. Prefer specific niche hashtags over generic ones like fyp or viral.\n", h.limit)
	sb.WriteString(`Respond with JSON of the shape {"top_hashtags": ["tag1", "..."], "analysis_summary": "one short paragraph"}. Hashtags must be lowercase and without the # prefix.`)

	content, err := h.client.chat(ctx, h.client.cfg.TextModel, []message{
		{Role: "system", Content: hashtagSystemPrompt},
		{Role: "user", Content: sb.String()},
	}, h.client.cfg.MaxTokens)
	if err != nil {
		return nil, &trend.ClassifierError{Classifier: "hashtags", Err: err}
	}

	var parsed struct {
		TopHashtags []string `json:"top_hashtags"`
		Summary     string   `json:"analysis_summary"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, &trend.ClassifierError{Classifier: "hashtags", Err: fmt.Errorf("decoding model output: %w", err)}
	}

	tags := normalizeTags(parsed.TopHashtags, h.limit)
	if len(tags) == 0 {
		return nil, &trend.ClassifierError{Classifier: "hashtags", Err: fmt.Errorf("model returned no usable hashtags")}
	}

	return &trend.HashtagAnalysis{
		Hashtags: tags,
		Summary:  parsed.Summary,
	}, nil
}

// normalizeTags lowercases, strips # prefixes, dedups, and truncates
func normalizeTags(raw []string, limit int) []string {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, limit)
	for _, t := range raw {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
		if len(tags) == limit {
			break
		}
	}
	return tags
}
