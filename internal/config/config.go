package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	Location    *time.Location
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string

	JWTSecret string
	TokenTTL  time.Duration

	// Канал доставки напоминаний: fcm|telegram|off.
	NotifyChannel      string
	FCMCredentialsFile string
	TelegramBotToken   string
	OutboxBatch        int
	OutboxMaxAttempts  int
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Asia/Jakarta")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	cfg := &Config{
		DatabaseURL: mustEnv("DATABASE_URL"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		Location:    loc,
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),

		JWTSecret: mustEnv("JWT_SECRET"),
		TokenTTL:  getenvDuration("TOKEN_TTL", 24*time.Hour),

		NotifyChannel:      getenv("NOTIFY_CHANNEL", "off"),
		FCMCredentialsFile: os.Getenv("FCM_CREDENTIALS_FILE"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		OutboxBatch:        getenvInt("OUTBOX_BATCH", 100),
		OutboxMaxAttempts:  getenvInt("OUTBOX_MAX_ATTEMPTS", 5),
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
