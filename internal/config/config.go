package config

import (
	"os"
	"strings"
)

type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr string

	JWTSecret string

	SlackBotToken      string
	SlackSigningSecret string
	SlackErrorChannel  string

	// StaffUserIDs and StaffEmails identify the game operators: the
	// Slack IDs gate the staff-only commands, the emails get edit access
	// to the protected worksheet ranges.
	StaffUserIDs []string
	StaffEmails  []string

	GoogleCredentialsFile string
	MasterSheetID         string
	DialogueSheetID       string

	// Timezone for transcript timestamps.
	Timezone string
}

func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "gamemaster"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		JWTSecret: getEnv("JWT_SECRET", "super-secret-key-change-me"),

		SlackBotToken:      getEnv("SLACK_BOT_TOKEN", ""),
		SlackSigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		SlackErrorChannel:  getEnv("SLACK_ERROR_CHANNEL", ""),

		StaffUserIDs: splitList(getEnv("STAFF_USER_IDS", "")),
		StaffEmails:  splitList(getEnv("STAFF_EMAILS", "")),

		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		MasterSheetID:         getEnv("MASTER_SHEET_ID", ""),
		DialogueSheetID:       getEnv("DIALOGUE_SHEET_ID", ""),

		Timezone: getEnv("TIMEZONE", "Asia/Tokyo"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
