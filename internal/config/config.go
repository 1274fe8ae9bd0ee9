package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, taken from the environment with an
// optional .env file on top.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`

	// StoragePath is the guild snapshot file; backups rotate next to it.
	StoragePath  string        `env:"STORAGE_PATH" envDefault:"guilds.json"`
	SaveInterval time.Duration `env:"SAVE_INTERVAL" envDefault:"5s"`

	// HistoryLimit bounds per-guild queue history kept for "previous".
	HistoryLimit int `env:"QUEUE_HISTORY_LIMIT" envDefault:"20"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	// ProxyURL optionally routes track resolution (http, socks4, socks5).
	ProxyURL string `env:"PROXY_URL"`

	InitSlashCommands bool `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
}

// New loads .env if present and parses the environment.
func New() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}
