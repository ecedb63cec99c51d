package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// loadDotenv attempts to load envFile, logging a warning (not failing) if
// it's missing, matching the teacher's best-effort .env bootstrap.
func loadDotenv(envFile string) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Warn().Str("file", envFile).Msg(".env file not found, using environment variables")
	}
}
