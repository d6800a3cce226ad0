package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Config holds the complete application configuration, loadable from
// environment variables (HUB_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (HUB_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL     string `usage:"Redis URL for session carts; carts are kept in PostgreSQL when empty" flag:"redis-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (HUB_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Cart         CartConfig
	Telegram     TelegramConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// CartConfig controls session cart storage.
type CartConfig struct {
	Prefix string        `default:"unifiedCart" usage:"Key prefix of session carts in Redis"`
	TTL    time.Duration `default:"0s" usage:"Expiry of idle session carts in Redis, 0 keeps them"`
}

// TelegramConfig controls staff notifications. Without a bot token order
// events are only logged.
type TelegramConfig struct {
	BotToken     string        `usage:"Telegram bot token (HUB_TELEGRAM_BOT_TOKEN or TELEGRAM_BOT_TOKEN)" flag:"telegram-bot-token"`
	APIURL       string        `default:"https://api.telegram.org" usage:"Telegram Bot API base URL"`
	AdminChats   []string      `usage:"Chat IDs notified of every order event"`
	KitchenChats []string      `usage:"Chat IDs notified of orders with food"`
	Timeout      time.Duration `default:"5s" usage:"Timeout of one Bot API call"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from an optional .env file, environment
// variables and YAML config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}
	return loadConfig(aconfig.Config{
		EnvPrefix: "HUB",
		Files:     []string{"config.yaml", "/etc/hub/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, ac)
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set HUB_DATABASE_URL or DATABASE_URL")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the HUB_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
	if c.Telegram.BotToken == "" {
		c.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
