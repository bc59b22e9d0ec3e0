package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	Addr         string
	CORSOrigin   string
	DatabasePath string

	JWTSecret string

	RazorpayKeyID     string
	RazorpayKeySecret string

	CloudinaryURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// C is the loaded configuration shared across packages.
var C = defaults()

func defaults() *Config {
	return &Config{
		Addr:         ":5000",
		CORSOrigin:   "http://127.0.0.1:5173",
		DatabasePath: "./tripway.db",
		JWTSecret:    "jwt-secret-change-in-production",
		SMTPHost:     "smtp.gmail.com",
		SMTPPort:     587,
	}
}

// Load reads configuration from environment variables and stores it in C.
func Load() *Config {
	cfg := &Config{
		Addr:              getEnv("ADDR", ":5000"),
		CORSOrigin:        getEnv("CORS_ORIGIN", "http://127.0.0.1:5173"),
		DatabasePath:      getEnv("DATABASE_PATH", "./tripway.db"),
		JWTSecret:         getEnv("JWT_SECRET_KEY", "jwt-secret-change-in-production"),
		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		CloudinaryURL:     getEnv("CLOUDINARY_URL", ""),
		SMTPHost:          getEnv("MAIL_SERVER", "smtp.gmail.com"),
		SMTPPort:          getEnvAsInt("MAIL_PORT", 587),
		SMTPUsername:      getEnv("MAIL_USERNAME", ""),
		SMTPPassword:      getEnv("MAIL_PASSWORD", ""),
		SMTPFrom:          getEnv("MAIL_FROM", getEnv("MAIL_USERNAME", "")),
	}
	C = cfg
	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
