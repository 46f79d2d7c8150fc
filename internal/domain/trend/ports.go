// internal/domain/trend/ports.go

package trend

import (
	"context"
	"time"
)

// SortOrder selects how a hashtag search ranks its results
type SortOrder int

const (
	// SortRelevance orders results by topical match
	SortRelevance SortOrder = 0

	// SortLikes orders results by like count
	SortLikes SortOrder = 1
)

// DataPort is the contract with the social-data vendor. Implementations
// retry Transient and RateLimited failures with bounded exponential
// backoff; NotFound and Forbidden are terminal for the call.
type DataPort interface {
	// Profile fetches a creator's public profile
	Profile(ctx context.Context, handle string) (*Profile, error)

	// Posts fetches a creator's recent posts, optionally resuming
	// from a pagination cursor
	Posts(ctx context.Context, handle string, count int, cursor string) ([]Post, error)

	// SearchHashtag searches posts tagged with the given hashtag
	// within the trailing period
	SearchHashtag(ctx context.Context, tag string, count, periodDays int, sort SortOrder) ([]Post, error)

	// SearchPopular fetches broadly popular posts within the
	// trailing period
	SearchPopular(ctx context.Context, count, periodDays int) ([]Post, error)
}

// Cache namespaces. Each maps to a TTL class owned by the cache
// implementation.
const (
	NSProfile   = "profile"
	NSPosts     = "posts"
	NSTrends    = "trends"
	NSAnalysis  = "analysis"
	NSRelevance = "relevance"
)

// Cache is a namespaced read-through cache with per-namespace TTLs.
// Implementations never surface backend errors: a failing backend
// behaves as an always-miss cache.
type Cache interface {
	// Get unmarshals the cached payload into dest and reports whether
	// the key was present
	Get(ctx context.Context, namespace, key string, dest any) bool

	// Set stores the payload under the namespace's TTL; a zero ttl
	// selects the namespace default
	Set(ctx context.Context, namespace, key string, payload any, ttl time.Duration)

	// ClearPattern removes all keys matching the glob and returns
	// how many were deleted
	ClearPattern(ctx context.Context, pattern string) int
}

// Locker is a distributed mutual-exclusion primitive with TTL-bounded
// holds. An unavailable backend degrades to always-allow.
type Locker interface {
	// Acquire attempts an atomic set-if-absent with expiry and
	// reports whether the lock was obtained
	Acquire(ctx context.Context, name string, ttl time.Duration) bool

	// Release frees the lock if this process still holds it
	Release(ctx context.Context, name string) bool
}

// HashtagClassifier extracts ranked hashtags from a creator's top posts
type HashtagClassifier interface {
	ExtractHashtags(ctx context.Context, topPosts []Post, bio string) (*HashtagAnalysis, error)
}

// NicheClassifier infers a creator's content niche
type NicheClassifier interface {
	ClassifyNiche(ctx context.Context, handle, bio string, recentCaptions []string, followerCount, videoCount int) (*NicheAnalysis, error)
}

// RelevanceRater scores a candidate's topical fit against a niche,
// using the candidate's thumbnail when one is available
type RelevanceRater interface {
	ScoreRelevance(ctx context.Context, c Candidate, nicheCategory, nicheDescription string, topics []string) (*RelevanceAnalysis, error)
}
