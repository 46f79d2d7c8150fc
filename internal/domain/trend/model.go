// internal/domain/trend/model.go

package trend

import (
	"time"
)

// Author identifies the creator of a post
type Author struct {
	Username   string `json:"username"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	IsVerified bool   `json:"is_verified"`
}

// Profile represents a creator's public profile, enriched once with
// niche analysis and immutable for the rest of a pipeline run
type Profile struct {
	Username         string   `json:"username"`
	Bio              string   `json:"bio"`
	FollowerCount    int      `json:"follower_count"`
	FollowingCount   int      `json:"following_count"`
	LikesCount       int      `json:"likes_count"`
	VideoCount       int      `json:"video_count"`
	AvatarURL        string   `json:"avatar_url,omitempty"`
	IsVerified       bool     `json:"is_verified"`
	NicheCategory    string   `json:"niche_category,omitempty"`
	NicheDescription string   `json:"niche_description,omitempty"`
	KeyTopics        []string `json:"key_topics,omitempty"`
	TargetAudience   string   `json:"target_audience,omitempty"`
	ContentStyle     string   `json:"content_style,omitempty"`
}

// Post is a single published video, read-only within the pipeline
type Post struct {
	ID            string    `json:"id"`
	Caption       string    `json:"caption"`
	Views         int       `json:"views"`
	Likes         int       `json:"likes"`
	Comments      int       `json:"comments"`
	Shares        int       `json:"shares"`
	CreateTime    time.Time `json:"create_time"`
	VideoURL      string    `json:"video_url,omitempty"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	Hashtags      []string  `json:"hashtags,omitempty"`
	Author        Author    `json:"author"`
}

// Candidate is a vendor post being evaluated for inclusion in the
// final ranked result. RelevanceScore is set exactly once by the
// relevance scorer and is always within [0, 1].
type Candidate struct {
	ID             string             `json:"id"`
	Caption        string             `json:"caption"`
	Views          int                `json:"views"`
	Likes          int                `json:"likes"`
	Comments       int                `json:"comments"`
	Shares         int                `json:"shares"`
	CreateTime     time.Time          `json:"create_time"`
	VideoURL       string             `json:"video_url,omitempty"`
	CoverImageURL  string             `json:"cover_image_url,omitempty"`
	SourceHashtag  string             `json:"source_hashtag"`
	Author         Author             `json:"author"`
	RelevanceScore float64            `json:"relevance_score"`
	Relevance      *RelevanceAnalysis `json:"relevance,omitempty"`
}

// EngagementRate returns (likes+comments+shares)/views, guarding
// against zero views
func (c Candidate) EngagementRate() float64 {
	views := c.Views
	if views < 1 {
		views = 1
	}
	return float64(c.Likes+c.Comments+c.Shares) / float64(views)
}

// AgeDays returns the number of whole days since the candidate was
// created, relative to now
func (c Candidate) AgeDays(now time.Time) int {
	if c.CreateTime.IsZero() {
		return 0
	}
	d := int(now.Sub(c.CreateTime).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// Analysis is the cached, externally visible artifact of one pipeline
// run. Immutable once stored; a fresh run supersedes it after TTL.
type Analysis struct {
	Profile  Profile     `json:"profile"`
	Posts    []Post      `json:"posts"`
	Hashtags []string    `json:"hashtags"`
	Trends   []Candidate `json:"trends"`
	Summary  string      `json:"analysis_summary"`
}

// HashtagAnalysis is the text classifier's output: a ranked hashtag
// list plus an explanation of how it was produced
type HashtagAnalysis struct {
	Hashtags []string `json:"top_hashtags"`
	Summary  string   `json:"analysis_summary"`
	Fallback bool     `json:"fallback"`
}

// NicheAnalysis describes a creator's inferred content niche
type NicheAnalysis struct {
	Category    string   `json:"niche_category"`
	Description string   `json:"niche_description"`
	KeyTopics   []string `json:"key_topics"`
	Audience    string   `json:"target_audience"`
	Style       string   `json:"content_style"`
}

// RelevanceAnalysis is the vision collaborator's verdict on how well a
// candidate fits a niche
type RelevanceAnalysis struct {
	Score       float64 `json:"relevance_score"`
	Explanation string  `json:"relevance_explanation"`
	Confidence  float64 `json:"confidence_level"`
}
