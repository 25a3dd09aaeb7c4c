package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "orbit-dev-secret-change-me"

type Config struct {
	// Server
	Port string
	Env  string

	// Redis (optional, enables cross-instance event fan-out and chat rate limiting)
	RedisURL string

	// Session tokens
	JWTSecret    string
	JWTAccessTTL time.Duration

	// CORS
	AllowedOrigins []string

	// Demo fixture loaded into the directory at startup
	SeedFile string

	// Realtime
	WSSendBuffer        int
	ChatRateLimit       int
	ChatRateLimitWindow time.Duration

	// Logging
	LogLevel string
	LogFile  string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Session tokens
		JWTSecret:    getEnv("JWT_SECRET", defaultJWTSecret),
		JWTAccessTTL: parseDuration(getEnv("JWT_ACCESS_TTL", "720h")),

		// CORS
		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		SeedFile: getEnv("SEED_FILE", ""),

		// Realtime
		WSSendBuffer:        parseInt(getEnv("WS_SEND_BUFFER", "256"), 256),
		ChatRateLimit:       parseInt(getEnv("CHAT_RATE_LIMIT", "30"), 30),
		ChatRateLimitWindow: parseDuration(getEnv("CHAT_RATE_LIMIT_WINDOW", "1m")),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	// Simple split by comma
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if start < i {
				result = append(result, s[start:i])
			}
			start = i + 1
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings that are only acceptable outside production
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

// WebSocketOrigins returns the origins accepted on websocket upgrade.
// Development accepts any origin.
func (c *Config) WebSocketOrigins() []string {
	if c.IsDevelopment() {
		return nil
	}
	return c.AllowedOrigins
}
