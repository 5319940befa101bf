package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	RedisURL          string
	RedisTLSInsecure  bool
	AsynqQueue        string
	SlackBotToken     string
	SlackAPIBaseURL   string
	SlackTeamID       string
	LeadsChannel      string
	LeadsChannelID    string
	SalesManagerGroup string
	IdleThreshold     time.Duration
	SweepInterval     time.Duration
	ReminderRepeat    bool
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueue:        getEnv("ASYNQ_QUEUE", "default"),
		SlackBotToken:     getEnv("SLACK_BOT_TOKEN", ""),
		SlackAPIBaseURL:   getEnv("SLACK_API_BASE_URL", "https://slack.com/api"),
		SlackTeamID:       getEnv("SLACK_TEAM_ID", ""),
		LeadsChannel:      getEnv("LEADS_CHANNEL", "#leads-inbox"),
		LeadsChannelID:    getEnv("LEADS_CHANNEL_ID", ""),
		SalesManagerGroup: getEnv("SALES_MANAGERS_GROUP", ""),
		IdleThreshold:     mustDuration(getEnv("IDLE_THRESHOLD", "48h")),
		SweepInterval:     mustDuration(getEnv("SWEEP_INTERVAL", "1h")),
		ReminderRepeat:    strings.EqualFold(getEnv("REMINDER_REPEAT", "false"), "true"),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SlackBotToken == "" {
		return nil, fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if cfg.LeadsChannelID == "" {
		return nil, fmt.Errorf("LEADS_CHANNEL_ID is required")
	}
	if cfg.IdleThreshold <= 0 {
		return nil, fmt.Errorf("IDLE_THRESHOLD must be a positive duration")
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
