// internal/adapter/ensemble/parse_test.go

package ensemble

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRecord(t *testing.T, src string) map[string]json.RawMessage {
	t.Helper()
	var record map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(src), &record))
	return record
}

func TestParsePost(t *testing.T) {
	record := rawRecord(t, `{
		"aweme_id": "7301",
		"desc": "my best recipe #cooking #Recipe",
		"create_time": 1756300000,
		"statistics": {
			"play_count": 150000,
			"digg_count": 9000,
			"comment_count": 300,
			"share_count": 120
		},
		"video": {
			"cover": "https://cdn.example.com/cover.jpg",
			"play_addr": {"url_list": ["https://cdn.example.com/video.mp4"]}
		},
		"author": {"unique_id": "chef", "verified": true},
		"text_extra": [
			{"hashtag_name": "cooking"},
			{"hashtag_name": "Recipe"}
		]
	}`)

	post, ok := parsePost(record)
	require.True(t, ok)

	assert.Equal(t, "7301", post.ID)
	assert.Equal(t, "my best recipe #cooking #Recipe", post.Caption)
	assert.Equal(t, 150000, post.Views)
	assert.Equal(t, 9000, post.Likes)
	assert.Equal(t, 300, post.Comments)
	assert.Equal(t, 120, post.Shares)
	assert.Equal(t, time.Unix(1756300000, 0).UTC(), post.CreateTime)
	assert.Equal(t, "https://cdn.example.com/cover.jpg", post.CoverImageURL)
	assert.Equal(t, "https://cdn.example.com/video.mp4", post.VideoURL)
	assert.Equal(t, "chef", post.Author.Username)
	assert.True(t, post.Author.IsVerified)
	assert.Equal(t, []string{"cooking", "recipe"}, post.Hashtags)
}

func TestParsePostVariants(t *testing.T) {
	tests := map[string]struct {
		src    string
		wantOK bool
		check  func(t *testing.T, record map[string]json.RawMessage)
	}{
		"record without an id is rejected": {
			src:    `{"desc": "no id here", "statistics": {"play_count": 5}}`,
			wantOK: false,
		},
		"string-encoded counters are accepted": {
			src:    `{"id": "1", "create_time": "1756300000", "stats": {"playCount": "1200", "diggCount": "34"}}`,
			wantOK: true,
			check: func(t *testing.T, record map[string]json.RawMessage) {
				post, _ := parsePost(record)
				assert.Equal(t, 1200, post.Views)
				assert.Equal(t, 34, post.Likes)
				assert.False(t, post.CreateTime.IsZero())
			},
		},
		"missing timestamp leaves a zero create time": {
			src:    `{"aweme_id": "2", "desc": "undated"}`,
			wantOK: true,
			check: func(t *testing.T, record map[string]json.RawMessage) {
				post, _ := parsePost(record)
				assert.True(t, post.CreateTime.IsZero())
			},
		},
		"garbage timestamp leaves a zero create time": {
			src:    `{"aweme_id": "3", "create_time": "not-a-number"}`,
			wantOK: true,
			check: func(t *testing.T, record map[string]json.RawMessage) {
				post, _ := parsePost(record)
				assert.True(t, post.CreateTime.IsZero())
			},
		},
		"hashtags fall back to caption scanning": {
			src:    `{"aweme_id": "4", "desc": "dinner ideas #MealPrep #dinner"}`,
			wantOK: true,
			check: func(t *testing.T, record map[string]json.RawMessage) {
				post, _ := parsePost(record)
				assert.Equal(t, []string{"mealprep", "dinner"}, post.Hashtags)
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			record := rawRecord(t, tc.src)
			_, ok := parsePost(record)
			assert.Equal(t, tc.wantOK, ok)
			if tc.check != nil {
				tc.check(t, record)
			}
		})
	}
}

func TestParseProfile(t *testing.T) {
	user := rawRecord(t, `{
		"uniqueId": "chef",
		"signature": "I cook things",
		"verified": true,
		"avatarLarger": "https://cdn.example.com/avatar.jpg"
	}`)
	stats := rawRecord(t, `{
		"followerCount": 52000,
		"followingCount": 120,
		"heartCount": 900000,
		"videoCount": 340
	}`)

	profile := parseProfile(user, stats, "fallback")

	assert.Equal(t, "chef", profile.Username)
	assert.Equal(t, "I cook things", profile.Bio)
	assert.True(t, profile.IsVerified)
	assert.Equal(t, 52000, profile.FollowerCount)
	assert.Equal(t, 120, profile.FollowingCount)
	assert.Equal(t, 900000, profile.LikesCount)
	assert.Equal(t, 340, profile.VideoCount)
}

func TestParseProfileFallsBackToHandle(t *testing.T) {
	profile := parseProfile(nil, nil, "somebody")
	assert.Equal(t, "somebody", profile.Username)
}
