package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	StripeSecretKey     string
	StripeWebhookSecret string

	SendgridAPIKey    string
	SendgridFromEmail string
	SendgridFromName  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	FrontendBaseURL string
	AllowedOrigins  []string

	// LessonPriceCents is the fixed price of a single lesson, charged for
	// online bookings and used as the default for /api/payments/create.
	LessonPriceCents int64
	LessonDuration   time.Duration

	SlotCacheTTL time.Duration
}

func Load() Config {
	godotenv.Load()

	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		SendgridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		SendgridFromEmail:   os.Getenv("SENDGRID_FROM_EMAIL"),
		SendgridFromName:    getEnv("SENDGRID_FROM_NAME", "AutoEscuela"),
		TwilioAccountSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:    os.Getenv("TWILIO_FROM_NUMBER"),
		FrontendBaseURL:     getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		AllowedOrigins:      []string{getEnv("ALLOWED_ORIGIN", "http://localhost:3000")},
		LessonPriceCents:    getEnvInt64("LESSON_PRICE_CENTS", 6000),
		LessonDuration:      time.Duration(getEnvInt64("LESSON_DURATION_MINUTES", 120)) * time.Minute,
		SlotCacheTTL:        time.Duration(getEnvInt64("SLOT_CACHE_TTL_SECONDS", 60)) * time.Second,
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
