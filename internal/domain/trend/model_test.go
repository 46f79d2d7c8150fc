// internal/domain/trend/model_test.go

package trend

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEngagementRate(t *testing.T) {
	tests := map[string]struct {
		c    Candidate
		want float64
	}{
		"typical post": {
			c:    Candidate{Views: 10000, Likes: 400, Comments: 50, Shares: 50},
			want: 0.05,
		},
		"zero views guards against division by zero": {
			c:    Candidate{Views: 0, Likes: 3},
			want: 3,
		},
		"no interactions": {
			c:    Candidate{Views: 500},
			want: 0,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.c.EngagementRate(), 1e-9)
		})
	}
}

func TestAgeDays(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		created time.Time
		want    int
	}{
		"five days old":           {created: now.AddDate(0, 0, -5), want: 5},
		"under a day rounds down": {created: now.Add(-6 * time.Hour), want: 0},
		"zero time is age zero":   {created: time.Time{}, want: 0},
		"future time is age zero": {created: now.Add(24 * time.Hour), want: 0},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := Candidate{CreateTime: tc.created}
			assert.Equal(t, tc.want, c.AgeDays(now))
		})
	}
}

func TestVendorErrorRetryable(t *testing.T) {
	assert.True(t, NewVendorError(VendorTransient, "op", errors.New("x")).Retryable())
	assert.True(t, NewVendorError(VendorRateLimited, "op", errors.New("x")).Retryable())
	assert.False(t, NewVendorError(VendorNotFound, "op", errors.New("x")).Retryable())
	assert.False(t, NewVendorError(VendorForbidden, "op", errors.New("x")).Retryable())
}

func TestIsVendorKindSeesThroughWrapping(t *testing.T) {
	inner := NewVendorError(VendorNotFound, "get_profile", errors.New("status 404"))
	wrapped := errors.Join(errors.New("fetching profile"), inner)

	assert.True(t, IsVendorKind(wrapped, VendorNotFound))
	assert.False(t, IsVendorKind(wrapped, VendorTransient))
	assert.False(t, IsVendorKind(errors.New("plain"), VendorNotFound))
}
