package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	ServerPort  string
	JWTSecret   string
	JWTExpiry   time.Duration
	RedisURL    string
	CacheTTL    time.Duration
	LogLevel    string
	LogFormat   string
	GinMode     string
	AutoMigrate bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment variables")
	}

	return &Config{
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "workspace_user"),
		DBPassword:  getEnv("DB_PASSWORD", "workspace_pass"),
		DBName:      getEnv("DB_NAME", "workspace_db"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry:   time.Duration(getInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		RedisURL:    getEnv("REDIS_URL", ""),
		CacheTTL:    time.Duration(getInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		GinMode:     getEnv("GIN_MODE", "release"),
		AutoMigrate: getBool("AUTO_MIGRATE", true),
	}
}

// DSN is the libpq style connection string used by gorm.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// MigrateURL is the pgx5:// URL understood by golang-migrate.
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("env value must be an integer, using default", "key", key, "value", value, "default", defaultVal)
		return defaultVal
	}
	return i
}

func getBool(key string, defaultVal bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("env value must be a boolean, using default", "key", key, "value", value, "default", defaultVal)
		return defaultVal
	}
	return b
}
