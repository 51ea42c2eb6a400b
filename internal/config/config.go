package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	ServerPort  string
	Environment string

	DBMaxOpenConns int
	DBMaxIdleConns int

	JWTSecret          string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	CORSOrigins        []string
	EventJournalPath   string
	TokenSweepSchedule string
}

func Load() *Config {
	// .env is optional; containers pass real environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ServerPort:  getEnv("SERVER_PORT", ":3000"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenExpiry:  getEnvAsDuration("JWT_EXPIRES_IN", "15m"),
		RefreshTokenExpiry: getEnvAsDuration("REFRESH_TOKEN_EXPIRES_IN", "7d"),

		CORSOrigins:        getEnvAsList("CORS_ORIGINS", "http://localhost:5173"),
		EventJournalPath:   getEnv("EVENT_JOURNAL_PATH", "data/events.wal"),
		TokenSweepSchedule: getEnv("TOKEN_SWEEP_SCHEDULE", "@every 1h"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" || cfg.RefreshTokenSecret == "" {
		log.Fatal("JWT_SECRET and REFRESH_TOKEN_SECRET are required")
	}
	if !strings.HasPrefix(cfg.ServerPort, ":") {
		cfg.ServerPort = ":" + cfg.ServerPort
	}

	return cfg
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvAsInt retrieves environment variable as int with default value
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %d", key, defaultVal)
		return defaultVal
	}
	return val
}

// getEnvAsDuration retrieves environment variable as duration with default value.
// Besides Go durations it accepts a day suffix ("7d").
func getEnvAsDuration(key string, defaultVal string) time.Duration {
	valStr := getEnv(key, defaultVal)
	duration, err := ParseDuration(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %s", key, defaultVal)
		duration, _ = ParseDuration(defaultVal)
	}
	return duration
}

func getEnvAsList(key, defaultVal string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultVal), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseDuration is time.ParseDuration plus whole days ("7d").
func ParseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
