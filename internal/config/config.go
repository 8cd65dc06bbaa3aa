package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string        `env:"ADDR" envDefault:":8080"`
	DevLogging   bool          `env:"LOG_DEV" envDefault:"false"`
	TickHz       int           `env:"TICK_HZ" envDefault:"30"`
	ScoreLimit   int           `env:"SCORE_LIMIT" envDefault:"5"`
	RoomTTL      time.Duration `env:"ROOM_TTL" envDefault:"5m"`
	ReapInterval time.Duration `env:"REAP_INTERVAL" envDefault:"1m"`
	// DatabaseURL enables the match-history write-back when set.
	DatabaseURL string `env:"DATABASE_URL"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
