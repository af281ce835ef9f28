package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the portal client.
type Config struct {
	App          AppConfig
	Backend      BackendConfig
	Storage      StorageConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Notification NotificationConfig
	Feedback     FeedbackConfig
}

// AppConfig controls the local control API.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// BackendConfig points at the academy REST backend.
type BackendConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// StorageConfig selects the durable token tier.
type StorageConfig struct {
	Driver    string
	Namespace string
	Secret    string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// NotificationConfig configures the real-time channel and refresh cadence.
type NotificationConfig struct {
	BroadcastAuthURL string
	ChannelPrefix    string
	ToastTTLSeconds  int
	ResyncSchedule   string
}

// FeedbackConfig tunes UI signal timers.
type FeedbackConfig struct {
	LoaderMinDurationMS int
}

const (
	StorageDriverMemory   = "memory"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
)

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	driver := strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverMemory))
	switch driver {
	case StorageDriverMemory, StorageDriverRedis, StorageDriverPostgres:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q", driver)
	}

	backendURL := strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://127.0.0.1:8000/api"), "/")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "academy-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "4200"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Backend: BackendConfig{
			BaseURL:        backendURL,
			TimeoutSeconds: getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 15),
		},
		Storage: StorageConfig{
			Driver:    driver,
			Namespace: getEnv("STORAGE_NAMESPACE", "portal"),
			Secret:    os.Getenv("STORAGE_SECRET"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Notification: NotificationConfig{
			BroadcastAuthURL: getEnv("NOTIFY_BROADCAST_AUTH_URL", backendURL+"/broadcasting/auth"),
			ChannelPrefix:    getEnv("NOTIFY_CHANNEL_PREFIX", ""),
			ToastTTLSeconds:  getEnvAsInt("NOTIFY_TOAST_TTL_SECONDS", 5),
			ResyncSchedule:   getEnv("NOTIFY_RESYNC_SCHEDULE", "@every 1m"),
		},
		Feedback: FeedbackConfig{
			LoaderMinDurationMS: getEnvAsInt("LOADER_MIN_DURATION_MS", 300),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call backend timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// ToastTTL returns how long a toast stays visible.
func (n NotificationConfig) ToastTTL() time.Duration {
	if n.ToastTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(n.ToastTTLSeconds) * time.Second
}

// LoaderMinDuration returns the minimum visible time of the loader.
func (f FeedbackConfig) LoaderMinDuration() time.Duration {
	if f.LoaderMinDurationMS <= 0 {
		return 0
	}
	return time.Duration(f.LoaderMinDurationMS) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
