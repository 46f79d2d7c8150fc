// internal/adapter/ensemble/parse.go

package ensemble

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"trendscout/internal/domain/trend"
)

// parseProfile converts the vendor's user/stats payloads into a domain
// profile. Missing fields default to zero values; the handle argument
// backstops an absent username.
func parseProfile(user, stats map[string]json.RawMessage, handle string) *trend.Profile {
	p := &trend.Profile{
		Username:       jsonString(user, "uniqueId", "unique_id", "username"),
		Bio:            jsonString(user, "signature", "bio"),
		AvatarURL:      jsonString(user, "avatarLarger", "avatar_larger", "avatar_url"),
		IsVerified:     jsonBool(user, "verified"),
		FollowerCount:  jsonInt(stats, "followerCount", "follower_count"),
		FollowingCount: jsonInt(stats, "followingCount", "following_count"),
		LikesCount:     jsonInt(stats, "heartCount", "heart_count", "likes_count"),
		VideoCount:     jsonInt(stats, "videoCount", "video_count"),
	}
	if p.Username == "" {
		p.Username = handle
	}
	return p
}

// parsePost converts one vendor post record into a domain post. A
// record without a usable id is rejected; a record whose timestamp
// cannot be parsed keeps a zero CreateTime and is dropped later by the
// search window filter.
func parsePost(record map[string]json.RawMessage) (trend.Post, bool) {
	id := jsonString(record, "aweme_id", "id", "video_id")
	if id == "" {
		return trend.Post{}, false
	}

	post := trend.Post{
		ID:      id,
		Caption: jsonString(record, "desc", "description", "caption"),
	}

	if ts := jsonInt64(record, "create_time", "createTime"); ts > 0 {
		post.CreateTime = time.Unix(ts, 0).UTC()
	}

	if stats := jsonObject(record, "statistics", "stats"); stats != nil {
		post.Views = jsonInt(stats, "play_count", "playCount", "views")
		post.Likes = jsonInt(stats, "digg_count", "diggCount", "likes")
		post.Comments = jsonInt(stats, "comment_count", "commentCount", "comments")
		post.Shares = jsonInt(stats, "share_count", "shareCount", "shares")
	} else {
		post.Views = jsonInt(record, "play_count", "views")
		post.Likes = jsonInt(record, "digg_count", "likes")
		post.Comments = jsonInt(record, "comment_count", "comments")
		post.Shares = jsonInt(record, "share_count", "shares")
	}

	if video := jsonObject(record, "video"); video != nil {
		post.CoverImageURL = jsonString(video, "cover", "origin_cover", "dynamic_cover")
		if addr := jsonObject(video, "play_addr", "playAddr"); addr != nil {
			post.VideoURL = firstURL(addr, "url_list")
		}
		if post.VideoURL == "" {
			post.VideoURL = jsonString(video, "play_addr", "playAddr", "download_addr")
		}
	}

	if author := jsonObject(record, "author"); author != nil {
		post.Author = trend.Author{
			Username:   jsonString(author, "unique_id", "uniqueId", "username"),
			AvatarURL:  jsonString(author, "avatar_thumb", "avatarThumb", "avatar_url"),
			IsVerified: jsonBool(author, "verified"),
		}
	}

	post.Hashtags = parseHashtags(record)

	return post, true
}

// parseHashtags collects hashtag names from the structured extras when
// present, falling back to scanning the caption
func parseHashtags(record map[string]json.RawMessage) []string {
	var tags []string
	seen := make(map[string]struct{})

	add := func(name string) {
		name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}

	for _, key := range []string{"text_extra", "textExtra", "cha_list", "challenges"} {
		raw, ok := record[key]
		if !ok {
			continue
		}
		var extras []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &extras); err != nil {
			continue
		}
		for _, extra := range extras {
			if name := jsonString(extra, "hashtag_name", "hashtagName", "cha_name", "title"); name != "" {
				add(name)
			}
		}
	}

	if len(tags) == 0 {
		for _, word := range strings.Fields(jsonString(record, "desc", "caption")) {
			if strings.HasPrefix(word, "#") && len(word) > 1 {
				add(word)
			}
		}
	}

	return tags
}

// firstURL returns the first entry of a string-array field
func firstURL(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil || len(urls) == 0 {
		return ""
	}
	return urls[0]
}

func jsonObject(obj map[string]json.RawMessage, keys ...string) map[string]json.RawMessage {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			return nested
		}
	}
	return nil
}

func jsonString(obj map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return ""
}

func jsonBool(obj map[string]json.RawMessage, keys ...string) bool {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return b
		}
	}
	return false
}

// jsonInt64 reads a numeric field that vendors serialize as either a
// JSON number or a quoted string
func jsonInt64(obj map[string]json.RawMessage, keys ...string) int64 {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			return n
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if parsed, perr := strconv.ParseInt(s, 10, 64); perr == nil {
				return parsed
			}
		}
	}
	return 0
}

func jsonInt(obj map[string]json.RawMessage, keys ...string) int {
	return int(jsonInt64(obj, keys...))
}
