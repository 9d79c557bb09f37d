// Package config loads client configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Auth service
	AuthBaseURL string `env:"AUTH_BASE_URL" envDefault:"https://lms-login.onrender.com/api/auth"`

	// Catalog/enrollment service
	CourseBaseURL string `env:"COURSE_BASE_URL" envDefault:"https://course-api-9imo.onrender.com/api"`

	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	// Local session state (sqlite file)
	StatePath string `env:"LMS_STATE_PATH" envDefault:"lms-state.db"`

	// Roster drop
	SFTPHost      string `env:"SFTP_HOST"`
	SFTPPort      int    `env:"SFTP_PORT" envDefault:"22"`
	SFTPUser      string `env:"SFTP_USER"`
	SFTPPass      string `env:"SFTP_PASS"`
	SFTPRemoteDir string `env:"SFTP_REMOTE_DIR" envDefault:"/rosters"`
}

// Load reads a .env file when present, then parses the environment.
func Load() (Config, error) {
	// Missing .env is fine; the environment itself wins either way.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
