// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"estocks/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	Env        string
	ServerPort string
	LogLevel   string
	LogFormat  string
	Currency   string

	DB        db.Config
	MigrateDB bool

	Auth  AuthConfig
	CORS  CORSConfig
	Quote QuoteConfig
	Redis RedisConfig
}

// AuthConfig configures session tokens and the session cookie.
type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
	CookieName string
	LoginPath  string
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string
}

// QuoteConfig configures the stock quote provider.
type QuoteConfig struct {
	HTTPTimeout time.Duration
	Concurrency int
	CacheTTL    time.Duration
	SymbolsFile string
}

// RedisConfig configures the optional quote cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadConfig loads configuration from environment variables, after merging an
// optional .env file from the working directory.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	dbPort, err := getInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	retries, err := getInt("DB_CONNECT_RETRIES", 10)
	if err != nil {
		return nil, err
	}
	retryDelay, err := getDuration("DB_CONNECT_RETRY_DELAY", 3*time.Second)
	if err != nil {
		return nil, err
	}
	migrate, err := getBool("DB_MIGRATE", true)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getDuration("SESSION_TTL", 14*24*time.Hour)
	if err != nil {
		return nil, err
	}
	quoteTimeout, err := getDuration("QUOTE_HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	quoteConcurrency, err := getInt("QUOTE_CONCURRENCY", 2)
	if err != nil {
		return nil, err
	}
	if quoteConcurrency < 1 {
		return nil, fmt.Errorf("invalid QUOTE_CONCURRENCY: must be at least 1")
	}
	cacheTTL, err := getDuration("QUOTE_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, err
	}
	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	env := getEnv("APP_ENV", "dev")
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if env == "prod" {
			return nil, fmt.Errorf("JWT_SECRET must be set when APP_ENV=prod")
		}
		secret = "dev-only-insecure-secret" // Default for local development
	}

	return &AppConfig{
		Env:        env,
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
		Currency:   getEnv("CURRENCY", "PKR"),
		DB: db.Config{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "user"),
			Password:          getEnv("DB_PASSWORD", "password"),
			DBName:            getEnv("DB_NAME", "estocks"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			ConnectRetries:    retries,
			ConnectRetryDelay: retryDelay,
		},
		MigrateDB: migrate,
		Auth: AuthConfig{
			JWTSecret:  secret,
			SessionTTL: sessionTTL,
			CookieName: getEnv("SESSION_COOKIE", "estocks_session"),
			LoginPath:  getEnv("LOGIN_PATH", "/api/v1/auth/login"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Quote: QuoteConfig{
			HTTPTimeout: quoteTimeout,
			Concurrency: quoteConcurrency,
			CacheTTL:    cacheTTL,
			SymbolsFile: os.Getenv("STOCK_SYMBOLS_FILE"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
	}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
