package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// Config holds every runtime knob, loaded from environment variables.
// The process carries no ambient globals: main loads this once and hands
// the relevant pieces to each component.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	// GuildID scopes slash command registration to a single guild when set.
	// Empty registers the commands globally (slower to propagate).
	GuildID string `env:"DISCORD_GUILD_ID"`

	// DBDriver selects the gorm dialector: "sqlite" (default) or "mysql".
	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"bgman.sqlite"`

	// RedisAddr enables the redis-backed details cache when set. Empty
	// falls back to the in-process cache.
	RedisAddr string `env:"REDIS_ADDR"`

	BGGBaseURL      string        `env:"BGG_BASE_URL" envDefault:"https://boardgamegeek.com/xmlapi2"`
	BGGTimeout      time.Duration `env:"BGG_TIMEOUT" envDefault:"10s"`
	DetailsCacheTTL time.Duration `env:"DETAILS_CACHE_TTL" envDefault:"10m"`

	SelectTimeout  time.Duration `env:"SELECT_TIMEOUT" envDefault:"30s"`
	ConfirmTimeout time.Duration `env:"CONFIRM_TIMEOUT" envDefault:"30s"`
	PagingTimeout  time.Duration `env:"PAGING_TIMEOUT" envDefault:"60s"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the process environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	return cfg, nil
}
