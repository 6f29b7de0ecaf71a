package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string
	DatabaseURL  string
	DatabasePath string

	JWTSecret  string
	SessionTTL time.Duration

	OtpTTL         time.Duration
	ResendCooldown time.Duration
	ResetGrantTTL  time.Duration

	ReminderInterval time.Duration

	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	Debug bool
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	return &Config{
		ServerPort:   getEnv("PORT", "8080"),
		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:  getEnv("DB_URL", ""),
		DatabasePath: getEnv("DB_PATH", "./taskminder.db"),

		JWTSecret:  getEnv("JWT_SECRET", "fallback_secret_key"),
		SessionTTL: getDuration("SESSION_TTL", 7*24*time.Hour),

		OtpTTL:         getDuration("OTP_TTL", 10*time.Minute),
		ResendCooldown: getDuration("OTP_RESEND_COOLDOWN", 120*time.Second),
		ResetGrantTTL:  getDuration("RESET_GRANT_TTL", 15*time.Minute),

		ReminderInterval: getDuration("REMINDER_INTERVAL", 60*time.Second),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "TaskMinder"),

		Debug: getEnv("DEBUG", "false") == "true",
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration reads a duration environment variable (e.g. "90s", "10m")
// or returns a default value
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration for %s: %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
