package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"safelens/pkg/redis"
	"safelens/pkg/s3"
)

// Env is the process configuration read from the environment.
type Env struct {
	AppPort string
	AppEnv  string

	APIBaseURL    string
	ImageBaseURL  string
	PublicBaseURL string

	RequestTimeout  time.Duration
	HandlerTimeout  time.Duration
	InjectTimeout   time.Duration
	SessionTTL      time.Duration
	ShareTTL        time.Duration
	DefaultMemberID int64

	Redis redis.Options
	S3    s3.Config

	RateLimit float64
	RateBurst int
}

// LoadEnv reads the environment. Missing values fall back to defaults;
// malformed values are errors.
func LoadEnv() (Env, error) {
	env := Env{
		AppPort:       getEnv("APP_PORT", "3000"),
		AppEnv:        getEnv("APP_ENV", "development"),
		APIBaseURL:    getEnv("SAFELENS_API_BASE_URL", "https://api.example.com/v1"),
		ImageBaseURL:  getEnv("SAFELENS_IMAGE_BASE_URL", "https://image.example.com/v1"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		Redis: redis.Options{
			Addr:     os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		S3: s3.Config{
			Region:          os.Getenv("AWS_REGION"),
			Bucket:          os.Getenv("AWS_BUCKET_NAME"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Endpoint:        os.Getenv("AWS_ENDPOINT"),
		},
	}

	var err error
	if env.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return Env{}, err
	}
	if env.HandlerTimeout, err = getDuration("HANDLER_TIMEOUT", 2*env.RequestTimeout); err != nil {
		return Env{}, err
	}
	if env.InjectTimeout, err = getDuration("INJECT_TIMEOUT", 15*time.Second); err != nil {
		return Env{}, err
	}
	if env.SessionTTL, err = getDuration("SESSION_TTL", 2*time.Hour); err != nil {
		return Env{}, err
	}
	if env.ShareTTL, err = getDuration("SHARE_TTL", s3.DefaultPresignTTL); err != nil {
		return Env{}, err
	}
	if env.DefaultMemberID, err = getInt64("DEFAULT_MEMBER_ID", 1); err != nil {
		return Env{}, err
	}
	db, err := getInt64("REDIS_DB", 0)
	if err != nil {
		return Env{}, err
	}
	env.Redis.DB = int(db)
	if env.RateLimit, err = getFloat("RATE_LIMIT", 50); err != nil {
		return Env{}, err
	}
	burst, err := getInt64("RATE_BURST", 100)
	if err != nil {
		return Env{}, err
	}
	env.RateBurst = int(burst)

	return env, nil
}

// BlobPrefix is the public location object URLs are served under.
func (e Env) BlobPrefix() string {
	return e.PublicBaseURL + "/api/v1/blobs"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want a positive duration such as 30s", key, v)
	}
	return d, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}
