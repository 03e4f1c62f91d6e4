package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ethical-choice/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Environment:     "development",
			APIPrefix:       "/api",
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Mongo: MongoConfig{
			URI:                      "mongodb://mongo:27017",
			Database:                 "ethical-choice",
			ConnectTimeout:           10 * time.Second,
			UserCollection:           "users",
			CompanyCollection:        "companies",
			RecommendationCollection: "recommendations",
			NotificationCollection:   "notifications",
			SurveyCollection:         "surveys",
			CommentCollection:        "comments",
			FailedDeliveryCollection: "failed_deliveries",
		},
		Cache: CacheConfig{
			Path:       "",
			GCInterval: 10 * time.Minute,
		},
		Auth: AuthConfig{
			Issuer:           "ethical-choice-api",
			TokenTTL:         time.Hour,
			ResetTokenTTL:    time.Hour,
			RefreshThreshold: 10 * time.Minute,
			BcryptCost:       10,
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			WindowMinutes: 15,
			MaxRequests:   100,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			MaxAge:         300,
		},
		Recommendation: RecommendationConfig{
			CacheTTL:     time.Hour,
			MinScore:     50,
			ComputeLimit: 10,
		},
		Notification: NotificationConfig{
			ListCacheTTL:      5 * time.Minute,
			UnreadCacheTTL:    time.Minute,
			HeartbeatInterval: 10 * time.Second,
			StreamBufferSize:  16,
		},
		Survey: SurveyConfig{
			CacheTTL: 5 * time.Minute,
		},
		Catalog: CatalogConfig{
			CacheTTL: 10 * time.Minute,
		},
		SEC: SECConfig{
			BaseURL:           "https://data.sec.gov/submissions",
			UserAgent:         "ethical-choice-api (ops@ethical-choice.example)",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
			BreakerFailures:   5,
			BreakerTimeout:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load layers defaults, the optional YAML file and environment variables, then
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"auth.admin_emails",
	"cors.allowed_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_addr":                     "server.addr",
	"app_env":                       "server.environment",
	"node_env":                      "server.environment",
	"api_prefix":                    "server.api_prefix",
	"request_timeout":               "server.request_timeout",
	"shutdown_timeout":              "server.shutdown_timeout",
	"max_body_bytes":                "server.max_body_bytes",
	"mongo_uri":                     "mongo.uri",
	"mongo_db":                      "mongo.database",
	"mongo_connect_timeout":         "mongo.connect_timeout",
	"user_collection":               "mongo.user_collection",
	"company_collection":            "mongo.company_collection",
	"recommendation_collection":     "mongo.recommendation_collection",
	"notification_collection":       "mongo.notification_collection",
	"survey_collection":             "mongo.survey_collection",
	"comment_collection":            "mongo.comment_collection",
	"failed_delivery_collection":    "mongo.failed_delivery_collection",
	"cache_path":                    "cache.path",
	"cache_gc_interval":             "cache.gc_interval",
	"jwt_secret":                    "auth.jwt_secret",
	"jwt_issuer":                    "auth.issuer",
	"jwt_expires_in":                "auth.token_ttl",
	"reset_token_ttl":               "auth.reset_token_ttl",
	"token_refresh_threshold":       "auth.refresh_threshold",
	"bcrypt_cost":                   "auth.bcrypt_cost",
	"admin_emails":                  "auth.admin_emails",
	"rate_limit_enabled":            "rate_limit.enabled",
	"rate_limit_window_minutes":     "rate_limit.window_minutes",
	"rate_limit_max_requests":       "rate_limit.max_requests",
	"api_allowed_origins":           "cors.allowed_origins",
	"cors_max_age":                  "cors.max_age",
	"recommendation_cache_ttl":      "recommendation.cache_ttl",
	"recommendation_min_score":      "recommendation.min_score",
	"recommendation_compute_limit":  "recommendation.compute_limit",
	"notification_list_cache_ttl":   "notification.list_cache_ttl",
	"notification_unread_cache_ttl": "notification.unread_cache_ttl",
	"notification_heartbeat":        "notification.heartbeat_interval",
	"survey_cache_ttl":              "survey.cache_ttl",
	"company_cache_ttl":             "catalog.cache_ttl",
	"sec_base_url":                  "sec.base_url",
	"sec_user_agent":                "sec.user_agent",
	"sec_timeout":                   "sec.timeout",
	"sec_requests_per_second":       "sec.requests_per_second",
	"log_level":                     "logging.level",
	"log_format":                    "logging.format",
	"log_caller":                    "logging.caller",
}

// envTransformFunc maps known environment variables to config paths and skips
// everything else.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
