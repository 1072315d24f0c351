package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds every runtime setting of the service.
type AppConfig struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DBURL             string        `mapstructure:"DATABASE_URL"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	RedisPoolSize     int           `mapstructure:"REDIS_POOL_SIZE"`
	RedisMinIdleConns int           `mapstructure:"REDIS_MIN_IDLE_CONNS"`
	RedisDialTimeout  time.Duration `mapstructure:"REDIS_DIAL_TIMEOUT"`
	RedisReadTimeout  time.Duration `mapstructure:"REDIS_READ_TIMEOUT"`
	RedisMaxRetries   int           `mapstructure:"REDIS_MAX_RETRIES"`
	AccessSecret      string        `mapstructure:"JWT_ACCESS_SECRET"`
	RefreshSecret     string        `mapstructure:"JWT_REFRESH_SECRET"`
	TokenFormat       string        `mapstructure:"TOKEN_FORMAT"`
	AccessTokenTTL    time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL   time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	BcryptCost        int           `mapstructure:"BCRYPT_COST"`
	ClientURL         string        `mapstructure:"CLIENT_URL"`
	GeminiAPIKey      string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string        `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL     string        `mapstructure:"GEMINI_BASE_URL"`
	AITimeout         time.Duration `mapstructure:"AI_TIMEOUT"`
	KafkaBrokers      string        `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic        string        `mapstructure:"KAFKA_TOPIC"`
	SMTPHost          string        `mapstructure:"SMTP_HOST"`
	SMTPPort          int           `mapstructure:"SMTP_PORT"`
	SMTPUser          string        `mapstructure:"SMTP_USER"`
	SMTPPass          string        `mapstructure:"SMTP_PASS"`
	SMTPFrom          string        `mapstructure:"SMTP_FROM"`
	RateLimitGlobal   int           `mapstructure:"RATE_LIMIT_GLOBAL"`
	RateLimitAuth     int           `mapstructure:"RATE_LIMIT_AUTH"`
	RateLimitWindow   time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
	AnalyticsCacheTTL time.Duration `mapstructure:"ANALYTICS_CACHE_TTL"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "REDIS_URL",
	"REDIS_POOL_SIZE", "REDIS_MIN_IDLE_CONNS", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_MAX_RETRIES",
	"JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET", "TOKEN_FORMAT",
	"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "BCRYPT_COST", "CLIENT_URL",
	"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL", "AI_TIMEOUT",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_FROM",
	"RATE_LIMIT_GLOBAL", "RATE_LIMIT_AUTH", "RATE_LIMIT_WINDOW", "ANALYTICS_CACHE_TTL",
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 5)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "30s")
	v.SetDefault("REDIS_READ_TIMEOUT", "10s")
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("TOKEN_FORMAT", "jwt")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("CLIENT_URL", "http://localhost:5173")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("AI_TIMEOUT", "20s")
	v.SetDefault("KAFKA_TOPIC", "diagnosis-logs")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("RATE_LIMIT_GLOBAL", 100)
	v.SetDefault("RATE_LIMIT_AUTH", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("ANALYTICS_CACHE_TTL", "60s")

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func (c *AppConfig) IsDev() bool {
	return c.Env == "development"
}

// CORSOrigins splits CLIENT_URL into the list of allowed origins.
func (c *AppConfig) CORSOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ClientURL, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// KafkaBrokerList returns the configured brokers, empty when events are disabled.
func (c *AppConfig) KafkaBrokerList() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// Validate checks that the configuration is safe to serve with.
// requireDB is false for the in-memory development server.
func (c *AppConfig) Validate(requireDB bool) error {
	if requireDB && c.DBURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return fmt.Errorf("access and refresh secrets must differ")
	}
	switch c.TokenFormat {
	case "jwt":
	case "paseto":
		if len(c.AccessSecret) != 32 || len(c.RefreshSecret) != 32 {
			return fmt.Errorf("PASETO secrets must be 32 bytes long")
		}
	default:
		return fmt.Errorf("TOKEN_FORMAT must be \"jwt\" or \"paseto\", got %q", c.TokenFormat)
	}
	if c.BcryptCost < 10 {
		return fmt.Errorf("BCRYPT_COST must be at least 10")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= c.AccessTokenTTL {
		return fmt.Errorf("refresh token TTL must exceed a positive access token TTL")
	}
	return nil
}
