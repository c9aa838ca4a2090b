package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
		log.Printf("config: %s=%q is not an integer, using %d", key, val, defaultVal)
	}
	return defaultVal
}

// GetDurationEnv parses values like "5s" or "24h".
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
		log.Printf("config: %s=%q is not a positive duration, using %s", key, val, defaultVal)
	}
	return defaultVal
}

// GetDurationListEnv parses a comma separated list such as "10s,30s".
// Any malformed element makes the whole value fall back to the default.
func GetDurationListEnv(key string, defaultVal []time.Duration) []time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(p))
		if err != nil || d < 0 {
			log.Printf("config: %s=%q has invalid element %q, using default", key, val, p)
			return defaultVal
		}
		out = append(out, d)
	}
	return out
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

type DBConfig struct {
	// Driver is "postgres" or "sqlite". With sqlite, Name is the file path.
	Driver          string
	Host            string
	User            string
	Password        string
	Name            string
	Port            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN builds a libpq style connection string for the gorm postgres driver.
func (c DBConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type NotifyConfig struct {
	Queue       string
	Workers     int
	MaxAttempts int
	Backoff     []time.Duration
	Timeout     time.Duration
}

// Config is the full runtime configuration of the server.
type Config struct {
	Port        string
	JWTSecret   string
	CORSOrigins string

	DB    DBConfig
	Redis RedisConfig

	LockTimeout        time.Duration
	IdempotencyTTL     time.Duration
	IdempotencyBackend string
	BalanceCacheTTL    time.Duration
	WriteRateLimit     int

	Notify NotifyConfig
}

// Load reads the configuration from the environment. Call LoadEnv first
// to pick up a .env file.
func Load() *Config {
	return &Config{
		Port:        GetEnv("PORT", "3000"),
		JWTSecret:   GetEnv("JWT_SECRET", "dev-secret-change-me"),
		CORSOrigins: GetEnv("CORS_ORIGINS", "*"),
		DB: DBConfig{
			Driver:          GetEnv("DB_DRIVER", "postgres"),
			Host:            GetEnv("DB_HOST", "localhost"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "walletledger"),
			Port:            GetEnv("DB_PORT", "5432"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		LockTimeout:        GetDurationEnv("LOCK_TIMEOUT", 5*time.Second),
		IdempotencyTTL:     GetDurationEnv("IDEMPOTENCY_TTL", 24*time.Hour),
		IdempotencyBackend: GetEnv("IDEMPOTENCY_BACKEND", "redis"),
		BalanceCacheTTL:    GetDurationEnv("BALANCE_CACHE_TTL", 30*time.Minute),
		WriteRateLimit:     GetIntEnv("WRITE_RATE_LIMIT", 60),
		Notify: NotifyConfig{
			Queue:       GetEnv("NOTIFY_QUEUE", "memory"),
			Workers:     GetIntEnv("NOTIFY_WORKERS", 4),
			MaxAttempts: GetIntEnv("NOTIFY_MAX_ATTEMPTS", 3),
			Backoff:     GetDurationListEnv("NOTIFY_BACKOFF", []time.Duration{10 * time.Second, 30 * time.Second}),
			Timeout:     GetDurationEnv("NOTIFY_TIMEOUT", 5*time.Second),
		},
	}
}
