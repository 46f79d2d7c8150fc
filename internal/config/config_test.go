// internal/config/config_test.go

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)

	assert.Equal(t, 20, cfg.Pipeline.MaxPostsPerUser)
	assert.Equal(t, 5, cfg.Pipeline.MaxHashtags)
	assert.Equal(t, 10, cfg.Pipeline.TargetTrendCount)
	assert.Equal(t, 7, cfg.Pipeline.SearchWindowDays)
	assert.Equal(t, 30, cfg.Pipeline.WidenedWindowDays)
	assert.NotEmpty(t, cfg.Pipeline.BackupHashtags)
	assert.NotEmpty(t, cfg.Pipeline.FallbackTags)

	assert.Equal(t, 30*time.Minute, cfg.Cache.ProfileTTL)
	assert.Equal(t, 15*time.Minute, cfg.Cache.PostsTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.AnalysisTTL)
	assert.Equal(t, time.Hour, cfg.Cache.RelevanceTTL)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)

	assert.Equal(t, 3, cfg.Vendor.RetryAttempts)
	assert.Equal(t, time.Second, cfg.Vendor.RequestDelay)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PIPELINE_TARGET_TREND_COUNT", "12")
	t.Setenv("CACHE_PROFILE_TTL", "10m")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Pipeline.TargetTrendCount)
	assert.Equal(t, 10*time.Minute, cfg.Cache.ProfileTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CorsOrigins)
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		env     map[string]string
		wantErr string
	}{
		"missing vendor token outside development": {
			env:     map[string]string{"APP_ENV": "production"},
			wantErr: "VENDOR_API_TOKEN",
		},
		"non-positive target count": {
			env:     map[string]string{"PIPELINE_TARGET_TREND_COUNT": "0"},
			wantErr: "PIPELINE_TARGET_TREND_COUNT",
		},
		"cap below target": {
			env: map[string]string{
				"PIPELINE_TARGET_TREND_COUNT": "10",
				"PIPELINE_OVERALL_TREND_CAP":  "5",
			},
			wantErr: "PIPELINE_OVERALL_TREND_CAP",
		},
		"widened window narrower than search window": {
			env: map[string]string{
				"PIPELINE_SEARCH_WINDOW_DAYS":  "14",
				"PIPELINE_WIDENED_WINDOW_DAYS": "7",
			},
			wantErr: "PIPELINE_WIDENED_WINDOW_DAYS",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
