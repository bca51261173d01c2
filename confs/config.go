package confs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const devSecret = "warbler-development-secret"

// Config holds everything the application factory needs. It is built once in
// main and passed down explicitly.
type Config struct {
	DatabaseURL   string
	SecretKey     string
	Port          string
	LogLevel      string
	GinMode       string
	TokenValidity time.Duration
}

// LoadConfig loads environment variables from a .env file if present
// and builds a Config from them.
func LoadConfig() (Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}

	cfg := Config{
		DatabaseURL:   getenv("DATABASE_URL", "sqlite://warbler.db"),
		SecretKey:     os.Getenv("SECRET_KEY"),
		Port:          getenv("PORT", "5000"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		GinMode:       os.Getenv("GIN_MODE"),
		TokenValidity: 24 * time.Hour,
	}

	if cfg.SecretKey == "" {
		log.Println("warning: SECRET_KEY not set, using development secret")
		cfg.SecretKey = devSecret
	}

	if v := os.Getenv("TOKEN_VALIDITY_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_VALIDITY_HOURS %q", v)
		}
		cfg.TokenValidity = time.Duration(hours) * time.Hour
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
