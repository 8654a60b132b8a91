package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/database"
	"github.com/spf13/viper"
)

// Config holds all configuration for both binaries
type Config struct {
	Server   ServerConfig
	Database database.PostgresConfig
	Redis    database.RedisConfig
	AMQP     AMQPConfig
	JWT      JWTConfig
	Log      LogConfig
	Inbox    InboxConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
	MigrationsPath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// AMQPConfig holds the native push dispatch queue configuration.
// An empty URL disables push dispatch.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// InboxConfig holds configuration for the in-app client agent
type InboxConfig struct {
	ServerURL       string
	Token           string
	UserID          string
	BridgeAddr      string
	BannerTimeout   time.Duration
	ExitAnimation   time.Duration
	RetryDelays     []time.Duration
	ProfileCacheTTL time.Duration
	CacheTTL        time.Duration
	CacheMaxItems   int
	EnrichTimeout   time.Duration
}

// LoadDotEnv loads a .env file when present. Missing files are not an error.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load reads configuration from environment variables
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
			MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		},
		Database: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: database.RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		AMQP: AMQPConfig{
			URL:        v.GetString("AMQP_URL"),
			Exchange:   v.GetString("PUSH_EXCHANGE"),
			RoutingKey: v.GetString("PUSH_ROUTING_KEY"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Expiry: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Inbox: InboxConfig{
			ServerURL:       v.GetString("INBOX_SERVER_URL"),
			Token:           v.GetString("INBOX_TOKEN"),
			UserID:          v.GetString("INBOX_USER_ID"),
			BridgeAddr:      v.GetString("INBOX_BRIDGE_ADDR"),
			BannerTimeout:   parseDuration(v.GetString("INBOX_BANNER_TIMEOUT"), 5*time.Second),
			ExitAnimation:   parseDuration(v.GetString("INBOX_EXIT_ANIMATION"), 120*time.Millisecond),
			RetryDelays:     parseDurations(v.GetString("INBOX_RETRY_DELAYS"), []time.Duration{time.Second, 2 * time.Second}),
			ProfileCacheTTL: parseDuration(v.GetString("INBOX_PROFILE_CACHE_TTL"), 10*time.Minute),
			CacheTTL:        parseDuration(v.GetString("INBOX_CACHE_TTL"), 30*time.Second),
			CacheMaxItems:   v.GetInt("INBOX_CACHE_MAX"),
			EnrichTimeout:   parseDuration(v.GetString("INBOX_ENRICH_TIMEOUT"), 5*time.Second),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:4200")
	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "notify")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PUSH_EXCHANGE", "push")
	v.SetDefault("PUSH_ROUTING_KEY", "push.notification")
	v.SetDefault("JWT_SECRET", "default-dev-secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("INBOX_SERVER_URL", "http://localhost:8080")
	v.SetDefault("INBOX_BRIDGE_ADDR", "127.0.0.1:7071")
	v.SetDefault("INBOX_CACHE_MAX", 200)
}

// parseDuration parses a duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

// parseDurations parses a comma separated list like "1s,2s". Any invalid entry yields the default.
func parseDurations(value string, defaultValue []time.Duration) []time.Duration {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []time.Duration
	for _, part := range strings.Split(value, ",") {
		d, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil || d < 0 {
			return defaultValue
		}
		out = append(out, d)
	}
	return out
}
