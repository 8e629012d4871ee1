package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/duyho0705/chronic-disease-management-system-sub000/pkg/secrets"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	OpenAI    OpenAIConfig
	OTEL      OTELConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Worker    WorkerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// OpenAIConfig holds OpenAI configuration. An empty APIKey leaves the model
// gateway unconfigured and every AI feature answers with its fallback.
type OpenAIConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	Temperature     float64
	MaxOutputTokens int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// BucketConfig describes one token bucket profile.
type BucketConfig struct {
	Capacity        int
	RefillPerMinute int
}

// RateLimitConfig holds the strict and default limiter profiles
type RateLimitConfig struct {
	Strict  BucketConfig
	Default BucketConfig
	// TrustedProxies lists the addresses or CIDR ranges whose forwarding
	// headers name the client. Empty means every request is keyed on its peer.
	TrustedProxies []string
}

// TierConfig describes one in-process cache tier.
type TierConfig struct {
	Size int
	TTL  time.Duration
}

// CacheConfig holds the HOT/WARM/COLD tier settings
type CacheConfig struct {
	Hot  TierConfig
	Warm TierConfig
	Cold TierConfig
}

// WorkerConfig holds the async worker pool settings
type WorkerConfig struct {
	CoreWorkers int
	MaxWorkers  int
	QueueSize   int
}

// Load loads configuration from environment variables (and an optional .env file)
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// A missing .env file is fine; the environment is authoritative.
	_ = v.ReadInConfig()

	if err := applyVaultSecrets(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		OpenAI: OpenAIConfig{
			APIKey:          v.GetString("OPENAI_API_KEY"),
			Model:           v.GetString("OPENAI_MODEL"),
			BaseURL:         v.GetString("OPENAI_BASE_URL"),
			Temperature:     v.GetFloat64("OPENAI_TEMPERATURE"),
			MaxOutputTokens: v.GetInt("OPENAI_MAX_OUTPUT_TOKENS"),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
		},
		RateLimit: RateLimitConfig{
			Strict: BucketConfig{
				Capacity:        v.GetInt("RATE_LIMIT_STRICT_CAPACITY"),
				RefillPerMinute: v.GetInt("RATE_LIMIT_STRICT_REFILL_PER_MINUTE"),
			},
			Default: BucketConfig{
				Capacity:        v.GetInt("RATE_LIMIT_DEFAULT_CAPACITY"),
				RefillPerMinute: v.GetInt("RATE_LIMIT_DEFAULT_REFILL_PER_MINUTE"),
			},
			TrustedProxies: splitList(v.GetString("RATE_LIMIT_TRUSTED_PROXIES")),
		},
		Cache: CacheConfig{
			Hot:  TierConfig{Size: v.GetInt("CACHE_HOT_SIZE"), TTL: v.GetDuration("CACHE_HOT_TTL")},
			Warm: TierConfig{Size: v.GetInt("CACHE_WARM_SIZE"), TTL: v.GetDuration("CACHE_WARM_TTL")},
			Cold: TierConfig{Size: v.GetInt("CACHE_COLD_SIZE"), TTL: v.GetDuration("CACHE_COLD_TTL")},
		},
		Worker: WorkerConfig{
			CoreWorkers: v.GetInt("WORKER_CORE"),
			MaxWorkers:  v.GetInt("WORKER_MAX"),
			QueueSize:   v.GetInt("WORKER_QUEUE_SIZE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyVaultSecrets overlays the keys of the configured Vault secret.
// Values already present in the environment win unless VAULT_OVERWRITE is set.
func applyVaultSecrets(v *viper.Viper) error {
	if !v.GetBool("VAULT_ENABLED") {
		return nil
	}

	cfg := secrets.VaultConfig{
		Addr:      v.GetString("VAULT_ADDR"),
		Token:     v.GetString("VAULT_TOKEN"),
		Namespace: v.GetString("VAULT_NAMESPACE"),
		Mount:     v.GetString("VAULT_MOUNT"),
		Path:      v.GetString("VAULT_PATH"),
		KVVersion: v.GetInt("VAULT_KV_VERSION"),
		Timeout:   v.GetDuration("VAULT_TIMEOUT"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+time.Second)
	defer cancel()

	values, err := secrets.Fetch(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load secrets from vault: %w", err)
	}

	overwrite := v.GetBool("VAULT_OVERWRITE")
	for key, value := range values {
		if !overwrite && os.Getenv(key) != "" {
			continue
		}
		v.Set(key, value)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ALLOWED_ORIGINS", "*")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "chronic_care")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_TEMPERATURE", 0.2)
	v.SetDefault("OPENAI_MAX_OUTPUT_TOKENS", 1500)

	v.SetDefault("OTEL_SERVICE_NAME", "chronic-care-cds")
	v.SetDefault("OTEL_SERVICE_VERSION", "1.0.0")
	v.SetDefault("OTEL_ENDPOINT", "")
	v.SetDefault("OTEL_ENABLED", false)

	v.SetDefault("RATE_LIMIT_STRICT_CAPACITY", 10)
	v.SetDefault("RATE_LIMIT_STRICT_REFILL_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT_DEFAULT_CAPACITY", 100)
	v.SetDefault("RATE_LIMIT_DEFAULT_REFILL_PER_MINUTE", 100)
	v.SetDefault("RATE_LIMIT_TRUSTED_PROXIES", "")

	v.SetDefault("CACHE_HOT_SIZE", 500)
	v.SetDefault("CACHE_HOT_TTL", 2*time.Minute)
	v.SetDefault("CACHE_WARM_SIZE", 1000)
	v.SetDefault("CACHE_WARM_TTL", 15*time.Minute)
	v.SetDefault("CACHE_COLD_SIZE", 2000)
	v.SetDefault("CACHE_COLD_TTL", 60*time.Minute)

	v.SetDefault("WORKER_CORE", 10)
	v.SetDefault("WORKER_MAX", 50)
	v.SetDefault("WORKER_QUEUE_SIZE", 200)

	v.SetDefault("VAULT_ENABLED", false)
	v.SetDefault("VAULT_MOUNT", "secret")
	v.SetDefault("VAULT_KV_VERSION", 2)
	v.SetDefault("VAULT_TIMEOUT", 5*time.Second)
	v.SetDefault("VAULT_OVERWRITE", false)
}

func (c *Config) validate() error {
	if c.Worker.CoreWorkers <= 0 || c.Worker.MaxWorkers < c.Worker.CoreWorkers {
		return fmt.Errorf("invalid worker pool sizing: core=%d max=%d", c.Worker.CoreWorkers, c.Worker.MaxWorkers)
	}
	if c.RateLimit.Strict.Capacity <= 0 || c.RateLimit.Default.Capacity <= 0 {
		return fmt.Errorf("rate limit capacities must be positive")
	}
	if c.Cache.Hot.TTL <= 0 || c.Cache.Warm.TTL <= 0 || c.Cache.Cold.TTL <= 0 {
		return fmt.Errorf("cache tier TTLs must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
