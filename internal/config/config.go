package config

import (
	"os"
	"time"
)

// Frame clock and board geometry.
const (
	TickRate       = 60
	TickInterval   = time.Second / TickRate
	BroadcastEvery = 2 // snapshots at TickRate/BroadcastEvery

	BaseWidth  = 1280
	BaseHeight = 720

	SubmitTimeout = 10 * time.Second
)

// Config is the process environment.
type Config struct {
	Port          string
	DatabaseURL   string
	BalancePath   string
	SessionSecret string
	StaticDir     string
}

// FromEnv reads the environment, filling in local defaults.
func FromEnv() Config {
	return Config{
		Port:          getenv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		BalancePath:   os.Getenv("BALANCE_PATH"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		StaticDir:     getenv("STATIC_DIR", "./web/static"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
