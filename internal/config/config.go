// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App        AppConfig        `koanf:"app"`
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Session    SessionConfig    `koanf:"session"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	CORS       CORSConfig       `koanf:"cors"`
	Log        LogConfig        `koanf:"log"`
	Otel       OtelConfig       `koanf:"otel"`
	Mail       MailConfig       `koanf:"mail"`
	Stripe     StripeConfig     `koanf:"stripe"`
	Firebase   FirebaseConfig   `koanf:"firebase"`
	Cloudflare CloudflareConfig `koanf:"cloudflare"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	BrandName   string `koanf:"brand_name"`
	PublicURL   string `koanf:"public_url"`
	LogoURL     string `koanf:"logo_url"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type SessionConfig struct {
	TTLSeconds int `koanf:"ttl_seconds"`
}

func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MailConfig struct {
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	Secure    bool   `koanf:"secure"`
	User      string `koanf:"user"`
	Password  string `koanf:"password"`
	FromEmail string `koanf:"from_email"`
	FromName  string `koanf:"from_name"`
}

func (m MailConfig) Configured() bool {
	return m.Host != "" && m.User != "" && m.Password != "" && m.FromEmail != ""
}

type StripeConfig struct {
	SecretKey             string        `koanf:"secret_key"`
	WebhookSecret         string        `koanf:"webhook_secret"`
	PortalConfigurationID string        `koanf:"portal_configuration_id"`
	TrialPeriodDays       int           `koanf:"trial_period_days"`
	SyncInterval          time.Duration `koanf:"sync_interval"`
	Prices                StripePrices  `koanf:"prices"`
}

// StripePrices holds either Stripe price ids (price_...) or plain EUR
// amounts per plan and cycle.
type StripePrices struct {
	StarterMonthly string `koanf:"starter_monthly"`
	StarterYearly  string `koanf:"starter_yearly"`
	GrowthMonthly  string `koanf:"growth_monthly"`
	GrowthYearly   string `koanf:"growth_yearly"`
	ProMonthly     string `koanf:"pro_monthly"`
	ProYearly      string `koanf:"pro_yearly"`
}

func (s StripeConfig) Configured() bool {
	return s.SecretKey != ""
}

type FirebaseConfig struct {
	ServiceAccountJSON string `koanf:"service_account_json"`
	ProjectID          string `koanf:"project_id"`
	ClientEmail        string `koanf:"client_email"`
	PrivateKey         string `koanf:"private_key"`
}

func (f FirebaseConfig) Configured() bool {
	if f.ServiceAccountJSON != "" {
		return true
	}
	return f.ProjectID != "" && f.ClientEmail != "" && f.PrivateKey != ""
}

// NormalizedPrivateKey undoes the escaping that env files commonly apply
// to PEM keys.
func (f FirebaseConfig) NormalizedPrivateKey() string {
	key := strings.TrimSpace(f.PrivateKey)
	key = strings.Trim(key, `"'`)
	return strings.ReplaceAll(key, `\n`, "\n")
}

type CloudflareConfig struct {
	AccountID          string `koanf:"account_id"`
	APIToken           string `koanf:"api_token"`
	ImagesAPIBase      string `koanf:"images_api_base"`
	ImagesDeliveryBase string `koanf:"images_delivery_base"`
}

func (c CloudflareConfig) Configured() bool {
	return c.AccountID != "" && c.APIToken != ""
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "visitpro-api",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.brand_name":  "visitpro",
		"app.public_url":  "http://localhost:3000",

		"server.host":             "0.0.0.0",
		"server.port":             4000,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",
		"server.max_body_bytes":   2 << 20,

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"session.ttl_seconds": 604800,

		"rate_limit.requests":      300,
		"rate_limit.window":        "1m",
		"rate_limit.burst":         50,
		"rate_limit.auth_requests": 20,
		"rate_limit.auth_burst":    5,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": false,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "visitpro-api",

		"mail.port":      465,
		"mail.secure":    true,
		"mail.from_name": "visitpro",

		"stripe.trial_period_days": 14,
		"stripe.sync_interval":     "5m",

		"cloudflare.images_api_base": "https://api.cloudflare.com/client/v4",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"APP_BRAND_NAME":              "app.brand_name",
	"APP_PUBLIC_URL":              "app.public_url",
	"APP_LOGO_URL":                "app.logo_url",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"CORS_ORIGIN":                 "cors.allowed_origins",
	"SESSION_TTL_SECONDS":         "session.ttl_seconds",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_AUTH_REQUESTS":    "rate_limit.auth_requests",
	"RATE_LIMIT_AUTH_BURST":       "rate_limit.auth_burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",

	"SMTP_HOST":       "mail.host",
	"SMTP_PORT":       "mail.port",
	"SMTP_SECURE":     "mail.secure",
	"SMTP_USER":       "mail.user",
	"SMTP_PASS":       "mail.password",
	"SMTP_FROM_EMAIL": "mail.from_email",
	"SMTP_FROM_NAME":  "mail.from_name",

	"STRIPE_SECRET_KEY":                      "stripe.secret_key",
	"STRIPE_WEBHOOK_SECRET":                  "stripe.webhook_secret",
	"STRIPE_BILLING_PORTAL_CONFIGURATION_ID": "stripe.portal_configuration_id",
	"STRIPE_TRIAL_PERIOD_DAYS":               "stripe.trial_period_days",
	"STRIPE_SYNC_INTERVAL":                   "stripe.sync_interval",
	"STRIPE_PRICE_STARTER_MONTHLY":           "stripe.prices.starter_monthly",
	"STRIPE_PRICE_STARTER_YEARLY":            "stripe.prices.starter_yearly",
	"STRIPE_PRICE_GROWTH_MONTHLY":            "stripe.prices.growth_monthly",
	"STRIPE_PRICE_GROWTH_YEARLY":             "stripe.prices.growth_yearly",
	"STRIPE_PRICE_PRO_MONTHLY":               "stripe.prices.pro_monthly",
	"STRIPE_PRICE_PRO_YEARLY":                "stripe.prices.pro_yearly",

	"FIREBASE_SERVICE_ACCOUNT_JSON": "firebase.service_account_json",
	"FIREBASE_PROJECT_ID":           "firebase.project_id",
	"FIREBASE_CLIENT_EMAIL":         "firebase.client_email",
	"FIREBASE_PRIVATE_KEY":          "firebase.private_key",

	"CLOUDFLARE_ACCOUNT_ID":           "cloudflare.account_id",
	"CLOUDFLARE_API_TOKEN":            "cloudflare.api_token",
	"CLOUDFLARE_IMAGES_API_BASE":      "cloudflare.images_api_base",
	"CLOUDFLARE_IMAGES_DELIVERY_BASE": "cloudflare.images_delivery_base",
}

var envListKeys = map[string]bool{
	"cors.allowed_origins": true,
}

// envValue maps an environment variable onto its config key. List keys
// accept comma-separated values.
func envValue(name, value string) (string, any) {
	key, ok := envKeyMap[name]
	if !ok {
		return "", nil
	}
	if !envListKeys[key] {
		return key, value
	}

	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Session.TTLSeconds <= 0 {
		return fmt.Errorf("SESSION_TTL_SECONDS must be positive")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.Stripe.TrialPeriodDays < 0 {
		return fmt.Errorf("STRIPE_TRIAL_PERIOD_DAYS cannot be negative")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
