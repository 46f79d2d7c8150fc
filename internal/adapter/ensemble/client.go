// internal/adapter/ensemble/client.go

// Package ensemble implements the social-data vendor port against the
// Ensemble Data HTTP API.
package ensemble

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"trendscout/internal/config"
	"trendscout/internal/domain/trend"
	"trendscout/internal/retry"
)

// popularKeywords seed the broad-appeal search used by SearchPopular
var popularKeywords = []string{"viral", "trending", "fyp", "foryou", "funny", "dance"}

// Client calls the vendor API and converts its loosely-typed JSON into
// domain values. Transient and rate-limit failures are retried with
// exponential backoff; malformed records are skipped, not propagated.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retrier    *retry.Retrier
	delay      time.Duration
	logger     *slog.Logger
}

// NewClient creates a vendor API client
func NewClient(cfg config.VendorConfig, logger *slog.Logger) *Client {
	retrier := retry.New(retry.Config{
		MaxAttempts:   cfg.RetryAttempts,
		BaseDelay:     cfg.RetryBaseWait,
		MaxDelay:      cfg.RetryMaxWait,
		BackoffFactor: 2.0,
		JitterFactor:  0.2,
	}, retryableVendorError, logger)

	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.APIToken,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retrier:    retrier,
		delay:      cfg.RequestDelay,
		logger:     logger,
	}
}

func retryableVendorError(err error) bool {
	var ve *trend.VendorError
	if !errors.As(err, &ve) {
		return false
	}
	return ve.Retryable()
}

// Profile fetches a creator's public profile
func (c *Client) Profile(ctx context.Context, handle string) (*trend.Profile, error) {
	params := url.Values{}
	params.Set("username", handle)

	var raw json.RawMessage
	err := c.retrier.Do(ctx, "get_profile", func() error {
		var callErr error
		raw, callErr = c.get(ctx, "/tt/user/info", params)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		User  map[string]json.RawMessage `json:"user"`
		Stats map[string]json.RawMessage `json:"stats"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, trend.NewVendorError(trend.VendorTransient, "get_profile",
			fmt.Errorf("decoding profile payload: %w", err))
	}

	profile := parseProfile(envelope.User, envelope.Stats, handle)
	return profile, nil
}

// Posts fetches a creator's recent posts, optionally resuming from a
// pagination cursor
func (c *Client) Posts(ctx context.Context, handle string, count int, cursor string) ([]trend.Post, error) {
	if count > 50 {
		count = 50
	}

	// Each depth unit pages roughly ten posts
	depth := (count + 9) / 10
	if depth > 5 {
		depth = 5
	}

	params := url.Values{}
	params.Set("username", handle)
	params.Set("depth", strconv.Itoa(depth))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var raw json.RawMessage
	err := c.retrier.Do(ctx, "get_posts", func() error {
		var callErr error
		raw, callErr = c.get(ctx, "/tt/user/posts", params)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	return c.parsePostList(raw, "get_posts", count)
}

// SearchHashtag searches posts tagged with the given hashtag within
// the trailing period
func (c *Client) SearchHashtag(ctx context.Context, tag string, count, periodDays int, sortOrder trend.SortOrder) ([]trend.Post, error) {
	params := url.Values{}
	params.Set("name", tag)
	params.Set("days", strconv.Itoa(periodDays))
	params.Set("remap_output", "true")
	if sortOrder == trend.SortLikes {
		params.Set("sorting", "1")
	}

	var raw json.RawMessage
	err := c.retrier.Do(ctx, "search_hashtag", func() error {
		var callErr error
		raw, callErr = c.get(ctx, "/tt/hashtag/recent-posts", params)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	return c.parsePostList(raw, "search_hashtag", count)
}

// SearchPopular fetches broadly popular posts within the trailing
// period by fanning out over a fixed keyword set. Individual keyword
// failures are logged and skipped.
func (c *Client) SearchPopular(ctx context.Context, count, periodDays int) ([]trend.Post, error) {
	if count > 50 {
		count = 50
	}

	perKeyword := count/len(popularKeywords) + 1
	seen := make(map[string]struct{})
	var all []trend.Post

	for i, keyword := range popularKeywords {
		params := url.Values{}
		params.Set("name", keyword)
		params.Set("period", strconv.Itoa(periodDays))
		params.Set("count", strconv.Itoa(perKeyword))

		var raw json.RawMessage
		err := c.retrier.Do(ctx, "search_popular", func() error {
			var callErr error
			raw, callErr = c.get(ctx, "/tt/keyword/search", params)
			return callErr
		})
		if err != nil {
			c.logger.Warn("popular keyword search failed", "keyword", keyword, "error", err)
			continue
		}

		posts, err := c.parsePostList(raw, "search_popular", perKeyword*2)
		if err != nil {
			c.logger.Warn("popular keyword parse failed", "keyword", keyword, "error", err)
			continue
		}

		for _, p := range posts {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			all = append(all, p)
		}

		if i < len(popularKeywords)-1 {
			select {
			case <-ctx.Done():
				return all, nil
			case <-time.After(c.delay):
			}
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Views+all[i].Likes > all[j].Views+all[j].Likes
	})
	if len(all) > count {
		all = all[:count]
	}

	return all, nil
}

// get performs one API call and classifies failures into vendor error
// kinds. The response envelope is {"data": ...}.
func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, trend.NewVendorError(trend.VendorTransient, path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, trend.NewVendorError(trend.VendorTransient, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, trend.NewVendorError(trend.VendorTransient, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, trend.NewVendorError(trend.VendorRateLimited, path,
			fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return nil, trend.NewVendorError(trend.VendorNotFound, path,
			fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusUnauthorized:
		return nil, trend.NewVendorError(trend.VendorForbidden, path,
			fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return nil, trend.NewVendorError(trend.VendorTransient, path,
			fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, trend.NewVendorError(trend.VendorTransient, path,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, trend.NewVendorError(trend.VendorTransient, path,
			fmt.Errorf("decoding response envelope: %w", err))
	}
	if envelope.Data == nil {
		envelope.Data = body
	}

	return envelope.Data, nil
}

func (c *Client) parsePostList(raw json.RawMessage, op string, count int) ([]trend.Post, error) {
	var page struct {
		Data []map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		// Some endpoints return the list directly
		var list []map[string]json.RawMessage
		if err2 := json.Unmarshal(raw, &list); err2 != nil {
			return nil, trend.NewVendorError(trend.VendorTransient, op,
				fmt.Errorf("decoding post list: %w", err))
		}
		page.Data = list
	}

	posts := make([]trend.Post, 0, len(page.Data))
	for i, record := range page.Data {
		post, ok := parsePost(record)
		if !ok {
			c.logger.Warn("skipping malformed post record", "op", op, "index", i)
			continue
		}
		posts = append(posts, post)
		if len(posts) >= count {
			break
		}
	}

	return posts, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
