// internal/adapter/ai/niche.go

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"trendscout/internal/domain/trend"
)

const nicheSystemPrompt = `You are a creator economy analyst. Given a creator's public profile signals you classify their content niche precisely. Respond with JSON only, no prose and no code fences.`

// NicheClassifier infers a creator's content niche from profile signals
type NicheClassifier struct {
	client *Client
}

// NewNicheClassifier creates a niche classifier
func NewNicheClassifier(client *Client) *NicheClassifier {
	return &NicheClassifier{client: client}
}

// ClassifyNiche asks the model to categorize the creator's content
// niche from their bio, recent captions, and audience scale
func (n *NicheClassifier) ClassifyNiche(ctx context.Context, handle, bio string, recentCaptions []string, followerCount, videoCount int) (*trend.NicheAnalysis, error) {
	if !n.client.Configured() {
		return nil, &trend.ClassifierError{Classifier: "niche", Err: fmt.Errorf("text model not configured")}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Creator: @%s\nBio: %q\nFollowers: %d\nVideos published: %d\n\nRecent captions:\n", handle, bio, followerCount, videoCount)
	for i, caption := range recentCaptions {
		if caption == "" {
			continue
		}
		fmt.Fprintf(&sb, "%d. %q\n", i+1, caption)
	}
	sb.WriteString("\nClassify this creator's content niche.\n")
	sb.WriteString(`Respond with JSON of the shape {"niche_category": "2-4 word category", "niche_description": "one sentence", "key_topics": ["topic1", "..."], "target_audience": "short phrase", "content_style": "short phrase"}.`)

	content, err := n.client.chat(ctx, n.client.cfg.NicheModel, []message{
		{Role: "system", Content: nicheSystemPrompt},
		{Role: "user", Content: sb.String()},
	}, n.client.cfg.MaxTokens)
	if err != nil {
		return nil, &trend.ClassifierError{Classifier: "niche", Err: err}
	}

	var parsed trend.NicheAnalysis
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, &trend.ClassifierError{Classifier: "niche", Err: fmt.Errorf("decoding model output: %w", err)}
	}
	if parsed.Category == "" {
		return nil, &trend.ClassifierError{Classifier: "niche", Err: fmt.Errorf("model returned an empty niche category")}
	}

	return &parsed, nil
}
