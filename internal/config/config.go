package config

import (
	"encoding/base64"
	"errors"
	"os"
	"time"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string

	APNSKeyID      string
	APNSTeamID     string
	APNSTopic      string
	APNSAuthKey    []byte
	APNSProduction bool

	// GitHub App credentials are optional; without them the authorized-repo
	// refresh falls back to what the installation webhook recorded.
	GitHubAppID      string
	GitHubPrivateKey []byte

	PushTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	pushTimeoutStr := getEnv("PUSH_TIMEOUT", "5s")
	pushTimeout, err := time.ParseDuration(pushTimeoutStr)
	if err != nil {
		return nil, errors.New("invalid PUSH_TIMEOUT format")
	}

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		APNSKeyID:      os.Getenv("APNS_KID"),
		APNSTeamID:     os.Getenv("APNS_ISS"),
		APNSTopic:      os.Getenv("APNS_TOPIC"),
		APNSProduction: getEnv("APNS_ENV", "production") != "development",
		GitHubAppID:    os.Getenv("GITHUB_APP_ID"),
		PushTimeout:    pushTimeout,
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.APNSKeyID == "" {
		return nil, errors.New("APNS_KID is required")
	}
	if cfg.APNSTeamID == "" {
		return nil, errors.New("APNS_ISS is required")
	}
	if cfg.APNSTopic == "" {
		return nil, errors.New("APNS_TOPIC is required")
	}

	// Keys arrive base64-encoded so they survive env-var transport.
	encodedKey := os.Getenv("APNS_AUTH_KEY")
	if encodedKey == "" {
		return nil, errors.New("APNS_AUTH_KEY is required")
	}
	cfg.APNSAuthKey, err = base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, errors.New("APNS_AUTH_KEY must be base64 encoded")
	}

	if encodedAppKey := os.Getenv("GITHUB_APP_PRIVATE_KEY"); encodedAppKey != "" {
		cfg.GitHubPrivateKey, err = base64.StdEncoding.DecodeString(encodedAppKey)
		if err != nil {
			return nil, errors.New("GITHUB_APP_PRIVATE_KEY must be base64 encoded")
		}
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
