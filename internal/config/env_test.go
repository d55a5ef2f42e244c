package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safelens/pkg/s3"
)

func TestLoadEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"APP_PORT", "REQUEST_TIMEOUT", "HANDLER_TIMEOUT", "SESSION_TTL", "SHARE_TTL",
		"DEFAULT_MEMBER_ID", "REDIS_ADDRESS", "REDIS_DB", "RATE_LIMIT", "RATE_BURST",
		"AWS_REGION", "AWS_BUCKET_NAME", "PUBLIC_BASE_URL",
	} {
		t.Setenv(key, "")
	}

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "3000", env.AppPort)
	assert.Equal(t, 30*time.Second, env.RequestTimeout)
	assert.Equal(t, 60*time.Second, env.HandlerTimeout)
	assert.Equal(t, 2*time.Hour, env.SessionTTL)
	assert.Equal(t, s3.DefaultPresignTTL, env.ShareTTL)
	assert.Equal(t, int64(1), env.DefaultMemberID)
	assert.Equal(t, 50.0, env.RateLimit)
	assert.Equal(t, 100, env.RateBurst)
	assert.Empty(t, env.Redis.Addr)
	assert.False(t, env.S3.Enabled())
	assert.Equal(t, "/api/v1/blobs", env.BlobPrefix())
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("HANDLER_TIMEOUT", "")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("DEFAULT_MEMBER_ID", "12345")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("RATE_LIMIT", "2.5")
	t.Setenv("RATE_BURST", "5")
	t.Setenv("AWS_REGION", "ap-northeast-2")
	t.Setenv("AWS_BUCKET_NAME", "safelens-shares")
	t.Setenv("PUBLIC_BASE_URL", "https://editor.example.com")

	env, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", env.AppPort)
	assert.Equal(t, 5*time.Second, env.RequestTimeout)
	assert.Equal(t, 10*time.Second, env.HandlerTimeout)
	assert.Equal(t, 30*time.Minute, env.SessionTTL)
	assert.Equal(t, int64(12345), env.DefaultMemberID)
	assert.Equal(t, "localhost:6379", env.Redis.Addr)
	assert.Equal(t, 2, env.Redis.DB)
	assert.Equal(t, 2.5, env.RateLimit)
	assert.Equal(t, 5, env.RateBurst)
	assert.True(t, env.S3.Enabled())
	assert.Equal(t, "https://editor.example.com/api/v1/blobs", env.BlobPrefix())
}

func TestLoadEnv_Malformed(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "REQUEST_TIMEOUT", value: "thirty"},
		{key: "SESSION_TTL", value: "-1m"},
		{key: "DEFAULT_MEMBER_ID", value: "me"},
		{key: "REDIS_DB", value: "zero"},
		{key: "RATE_LIMIT", value: "fast"},
		{key: "RATE_BURST", value: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadEnv()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}
