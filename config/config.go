package config

import (
	"os"
	"strings"
)

type Config struct {
	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Security
	JWTSecret string

	// Server
	Port           string
	TrustedProxies []string

	// External services
	CaptionURL   string
	NominatimURL string
	AMQPURL      string

	// Email (OTP dispatch)
	SendGridAPIKey string
	FromName       string
	FromEmail      string

	// Image storage
	UploadsDir string
}

func Load() *Config {
	cfg := &Config{
		DBUser:         getEnv("DB_USER", "root"),
		DBPassword:     getEnv("DB_PASSWORD", "password"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBName:         getEnv("DB_NAME", "safestreet"),
		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key-here"),
		Port:           getEnv("PORT", "8080"),
		CaptionURL:     getEnv("CAPTION_URL", "http://localhost:5001/analyze"),
		NominatimURL:   getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		AMQPURL:        getEnv("AMQP_URL", ""),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		FromName:       getEnv("FROM_NAME", "SafeStreet"),
		FromEmail:      getEnv("FROM_EMAIL", "noreply@safestreet.app"),
		UploadsDir:     getEnv("UPLOADS_DIR", "uploads"),
	}

	// Handle trusted proxies
	trustedProxies := os.Getenv("TRUSTED_PROXIES")
	if trustedProxies != "" {
		cfg.TrustedProxies = strings.Split(trustedProxies, ",")
		for i, proxy := range cfg.TrustedProxies {
			cfg.TrustedProxies[i] = strings.TrimSpace(proxy)
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
