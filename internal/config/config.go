// Package config loads the session layer configuration from the environment.
package config

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"archie-shopify-session-layer/internal/domain"

	"github.com/caarlos0/env/v11"
)

const (
	TokenStoreSession = "session"
	TokenStoreMongo   = "mongo"

	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	SameSiteLax    = "lax"
	SameSiteStrict = "strict"
	SameSiteNone   = "none"
)

var apiVersionPattern = regexp.MustCompile(`^(\d{4}-\d{2}|unstable)$`)

// Config holds the complete server configuration
type Config struct {
	// Shopify app credentials
	APIKey         string        `env:"SHOPIFY_API_KEY"`
	SharedSecret   string        `env:"SHOPIFY_SHARED_SECRET"`
	APIVersion     string        `env:"SHOPIFY_API_VERSION" envDefault:"2024-10"`
	DefaultScopes  []string      `env:"SHOPIFY_SCOPES" envSeparator:","`
	CallbackMaxAge time.Duration `env:"SHOPIFY_CALLBACK_MAX_AGE" envDefault:"5m"`

	// HTTP
	AppURL             string   `env:"APP_URL" envDefault:"http://localhost:8080"`
	Port               string   `env:"PORT" envDefault:"8080"`
	LoginPath          string   `env:"LOGIN_PATH"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Storage
	TokenStore          string `env:"TOKEN_STORE" envDefault:"session"`
	SessionBackend      string `env:"SESSION_BACKEND" envDefault:"memory"`
	SessionCookieName   string `env:"SESSION_COOKIE_NAME" envDefault:"shopify_app_session"`
	SessionCookieSecure bool   `env:"SESSION_COOKIE_SECURE" envDefault:"true"`
	// lax suits a top-level app; an app embedded in the Shopify admin iframe needs none
	SessionCookieSameSite string        `env:"SESSION_COOKIE_SAME_SITE" envDefault:"lax"`
	SessionTTL            time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	RedisURL              string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	MongoURI              string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase         string        `env:"MONGODB_DATABASE" envDefault:"shopify_app"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates the result.
// Every failure is a *domain.ConfigurationError.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, &domain.ConfigurationError{Field: "environment", Reason: err.Error()}
	}
	cfg.DefaultScopes = compact(cfg.DefaultScopes)
	cfg.AppURL = strings.TrimSuffix(cfg.AppURL, "/")
	cfg.SessionCookieSameSite = strings.ToLower(strings.TrimSpace(cfg.SessionCookieSameSite))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and enumerated options
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &domain.ConfigurationError{Field: "SHOPIFY_API_KEY", Reason: "is required"}
	}
	if c.SharedSecret == "" {
		return &domain.ConfigurationError{Field: "SHOPIFY_SHARED_SECRET", Reason: "is required"}
	}
	if !apiVersionPattern.MatchString(c.APIVersion) {
		return &domain.ConfigurationError{Field: "SHOPIFY_API_VERSION", Reason: "must look like 2024-10 or be unstable"}
	}
	if c.CallbackMaxAge <= 0 {
		return &domain.ConfigurationError{Field: "SHOPIFY_CALLBACK_MAX_AGE", Reason: "must be positive"}
	}
	if u, err := url.Parse(c.AppURL); err != nil || u.Scheme == "" || u.Host == "" {
		return &domain.ConfigurationError{Field: "APP_URL", Reason: "must be an absolute URL"}
	}
	if c.LoginPath != "" && !strings.HasPrefix(c.LoginPath, "/") {
		return &domain.ConfigurationError{Field: "LOGIN_PATH", Reason: "must be a path starting with /"}
	}
	switch c.TokenStore {
	case TokenStoreSession, TokenStoreMongo:
	default:
		return &domain.ConfigurationError{Field: "TOKEN_STORE", Reason: "must be session or mongo"}
	}
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return &domain.ConfigurationError{Field: "SESSION_BACKEND", Reason: "must be memory or redis"}
	}
	switch c.SessionCookieSameSite {
	case SameSiteLax, SameSiteStrict:
	case SameSiteNone:
		// browsers drop SameSite=None cookies that are not Secure
		if !c.SessionCookieSecure {
			return &domain.ConfigurationError{Field: "SESSION_COOKIE_SAME_SITE", Reason: "none requires SESSION_COOKIE_SECURE=true"}
		}
	default:
		return &domain.ConfigurationError{Field: "SESSION_COOKIE_SAME_SITE", Reason: "must be lax, strict or none"}
	}
	return nil
}

// CookieSameSite maps the configured mode to the cookie attribute
func (c *Config) CookieSameSite() http.SameSite {
	switch c.SessionCookieSameSite {
	case SameSiteStrict:
		return http.SameSiteStrictMode
	case SameSiteNone:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// RedirectURI is where the platform sends the merchant back after the permission grant
func (c *Config) RedirectURI() string {
	return c.AppURL + "/auth/callback"
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
