// Package config loads runtime configuration from defaults, an optional YAML file
// and environment variables, in that order of precedence (env wins).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Environment     string        `koanf:"environment"`
	APIPrefix       string        `koanf:"api_prefix"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

// MongoConfig selects the document store and collection names.
type MongoConfig struct {
	URI                      string        `koanf:"uri"`
	Database                 string        `koanf:"database"`
	ConnectTimeout           time.Duration `koanf:"connect_timeout"`
	UserCollection           string        `koanf:"user_collection"`
	CompanyCollection        string        `koanf:"company_collection"`
	RecommendationCollection string        `koanf:"recommendation_collection"`
	NotificationCollection   string        `koanf:"notification_collection"`
	SurveyCollection         string        `koanf:"survey_collection"`
	CommentCollection        string        `koanf:"comment_collection"`
	FailedDeliveryCollection string        `koanf:"failed_delivery_collection"`
}

// CacheConfig controls the embedded key/value cache.
type CacheConfig struct {
	// Path is the badger directory; empty runs in memory.
	Path       string        `koanf:"path"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// AuthConfig controls token issuance and verification.
type AuthConfig struct {
	JWTSecret        string        `koanf:"jwt_secret"`
	Issuer           string        `koanf:"issuer"`
	TokenTTL         time.Duration `koanf:"token_ttl"`
	ResetTokenTTL    time.Duration `koanf:"reset_token_ttl"`
	RefreshThreshold time.Duration `koanf:"refresh_threshold"`
	BcryptCost       int           `koanf:"bcrypt_cost"`
	AdminEmails      []string      `koanf:"admin_emails"`
}

// RateLimitConfig mirrors RATE_LIMIT_WINDOW_MINUTES / RATE_LIMIT_MAX_REQUESTS.
type RateLimitConfig struct {
	Enabled       bool `koanf:"enabled"`
	WindowMinutes int  `koanf:"window_minutes"`
	MaxRequests   int  `koanf:"max_requests"`
}

// Window returns the limiter window.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

// CORSConfig lists allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
	MaxAge         int      `koanf:"max_age"`
}

// RecommendationConfig tunes caching and the scoring run.
type RecommendationConfig struct {
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	MinScore     float64       `koanf:"min_score"`
	ComputeLimit int           `koanf:"compute_limit"`
}

// NotificationConfig tunes caching and the live stream.
type NotificationConfig struct {
	ListCacheTTL      time.Duration `koanf:"list_cache_ttl"`
	UnreadCacheTTL    time.Duration `koanf:"unread_cache_ttl"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	StreamBufferSize  int64         `koanf:"stream_buffer_size"`
}

// SurveyConfig tunes caching.
type SurveyConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// CatalogConfig tunes company caching.
type CatalogConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// SECConfig configures the EDGAR submissions client.
type SECConfig struct {
	BaseURL           string        `koanf:"base_url"`
	UserAgent         string        `koanf:"user_agent"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	BreakerFailures   uint32        `koanf:"breaker_failures"`
	BreakerTimeout    time.Duration `koanf:"breaker_timeout"`
}

// LoggingConfig is passed to logging.New.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Server         ServerConfig         `koanf:"server"`
	Mongo          MongoConfig          `koanf:"mongo"`
	Cache          CacheConfig          `koanf:"cache"`
	Auth           AuthConfig           `koanf:"auth"`
	RateLimit      RateLimitConfig      `koanf:"rate_limit"`
	CORS           CORSConfig           `koanf:"cors"`
	Recommendation RecommendationConfig `koanf:"recommendation"`
	Notification   NotificationConfig   `koanf:"notification"`
	Survey         SurveyConfig         `koanf:"survey"`
	Catalog        CatalogConfig        `koanf:"catalog"`
	SEC            SECConfig            `koanf:"sec"`
	Logging        LoggingConfig        `koanf:"logging"`
}

// IsProduction reports whether internal error details must be hidden.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Validate checks required values and ranges.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if strings.TrimSpace(c.Mongo.URI) == "" {
		errs = append(errs, errors.New("mongo.uri is required"))
	}
	if strings.TrimSpace(c.Mongo.Database) == "" {
		errs = append(errs, errors.New("mongo.database is required"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters (set JWT_SECRET)"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Auth.RefreshThreshold < 0 || c.Auth.RefreshThreshold >= c.Auth.TokenTTL {
		errs = append(errs, fmt.Errorf("auth.refresh_threshold must be within [0, %s)", c.Auth.TokenTTL))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, errors.New("auth.bcrypt_cost must be between 4 and 31"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.WindowMinutes <= 0 || c.RateLimit.MaxRequests <= 0) {
		errs = append(errs, errors.New("rate_limit.window_minutes and rate_limit.max_requests must be positive"))
	}
	if c.Recommendation.MinScore < 0 || c.Recommendation.MinScore > 100 {
		errs = append(errs, errors.New("recommendation.min_score must be between 0 and 100"))
	}
	if c.Recommendation.ComputeLimit <= 0 {
		errs = append(errs, errors.New("recommendation.compute_limit must be positive"))
	}
	if c.Notification.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("notification.heartbeat_interval must be positive"))
	}
	if strings.TrimSpace(c.SEC.UserAgent) == "" {
		errs = append(errs, errors.New("sec.user_agent is required by the EDGAR fair access policy"))
	}
	return errors.Join(errs...)
}
