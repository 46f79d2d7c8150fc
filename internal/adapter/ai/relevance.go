// internal/adapter/ai/relevance.go

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"trendscout/internal/domain/trend"
)

const relevanceSystemPrompt = `You judge whether a trending video fits a creator's content niche, using its thumbnail and caption. Respond with JSON only, no prose and no code fences.`

// RelevanceRater scores candidate-to-niche fit with the vision model
type RelevanceRater struct {
	client *Client
}

// NewRelevanceRater creates a vision relevance rater
func NewRelevanceRater(client *Client) *RelevanceRater {
	return &RelevanceRater{client: client}
}

// ScoreRelevance asks the vision model how well the candidate fits the
// niche. The thumbnail is attached as an image part when available.
func (r *RelevanceRater) ScoreRelevance(ctx context.Context, c trend.Candidate, nicheCategory, nicheDescription string, topics []string) (*trend.RelevanceAnalysis, error) {
	if !r.client.Configured() {
		return nil, &trend.ClassifierError{Classifier: "relevance", Err: fmt.Errorf("vision model not configured")}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Creator niche: %s\nNiche description: %s\nKey topics: %s\n\n", nicheCategory, nicheDescription, strings.Join(topics, ", "))
	fmt.Fprintf(&sb, "Candidate video caption: %q\nSource hashtag: #%s\nViews: %d Likes: %d Comments: %d Shares: %d\n\n",
		c.Caption, c.SourceHashtag, c.Views, c.Likes, c.Comments, c.Shares)
	sb.WriteString("Rate how relevant this video is to the creator's niche on a 0.0-1.0 scale.\n")
	sb.WriteString(`Respond with JSON of the shape {"relevance_score": 0.0, "relevance_explanation": "one sentence", "confidence_level": 0.0}.`)

	parts := []any{textPart{Type: "text", Text: sb.String()}}
	if c.CoverImageURL != "" {
		parts = append(parts, imagePart{Type: "image_url", ImageURL: imageURL{URL: c.CoverImageURL}})
	}

	content, err := r.client.chat(ctx, r.client.cfg.VisionModel, []message{
		{Role: "system", Content: relevanceSystemPrompt},
		{Role: "user", Content: parts},
	}, r.client.cfg.MaxTokens)
	if err != nil {
		return nil, &trend.ClassifierError{Classifier: "relevance", Err: err}
	}

	var parsed trend.RelevanceAnalysis
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, &trend.ClassifierError{Classifier: "relevance", Err: fmt.Errorf("decoding model output: %w", err)}
	}

	if parsed.Score < 0 {
		parsed.Score = 0
	}
	if parsed.Score > 1 {
		parsed.Score = 1
	}

	return &parsed, nil
}
