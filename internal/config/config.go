package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrInvalidValue = errors.New("invalid configuration value")

type Config struct {
	// Server
	ServerPort int `envconfig:"SERVER_PORT" default:"8080"`

	// Outbound fetch policy
	UserAgent            string `envconfig:"USER_AGENT"`
	FetchTimeoutSeconds  int    `envconfig:"FETCH_TIMEOUT_SECONDS" default:"10"`
	OEmbedTimeoutSeconds int    `envconfig:"OEMBED_TIMEOUT_SECONDS" default:"5"`
	MaxRedirects         int    `envconfig:"MAX_REDIRECTS" default:"5"`
	MaxBodySizeMB        int64  `envconfig:"MAX_BODY_SIZE_MB" default:"5"`

	// Embed rendering
	DefaultEmbedWidth  int `envconfig:"DEFAULT_EMBED_WIDTH" default:"500"`
	DefaultEmbedHeight int `envconfig:"DEFAULT_EMBED_HEIGHT" default:"300"`
	EmbedCacheMaxAge   int `envconfig:"EMBED_CACHE_MAX_AGE" default:"3600"`

	// Extraction policy
	MergeTwitterImage bool `envconfig:"MERGE_TWITTER_IMAGE" default:"false"`
}

func Load() (*Config, error) {
	// Env vars may also come from the shell; a missing .env is fine.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("%w: SERVER_PORT %d", ErrInvalidValue, c.ServerPort)
	}
	if c.FetchTimeoutSeconds < 1 {
		return fmt.Errorf("%w: FETCH_TIMEOUT_SECONDS %d", ErrInvalidValue, c.FetchTimeoutSeconds)
	}
	if c.OEmbedTimeoutSeconds < 1 {
		return fmt.Errorf("%w: OEMBED_TIMEOUT_SECONDS %d", ErrInvalidValue, c.OEmbedTimeoutSeconds)
	}
	if c.MaxRedirects < 1 {
		return fmt.Errorf("%w: MAX_REDIRECTS %d", ErrInvalidValue, c.MaxRedirects)
	}
	if c.DefaultEmbedWidth < 1 || c.DefaultEmbedWidth > 2000 {
		return fmt.Errorf("%w: DEFAULT_EMBED_WIDTH %d", ErrInvalidValue, c.DefaultEmbedWidth)
	}
	if c.DefaultEmbedHeight < 1 || c.DefaultEmbedHeight > 2000 {
		return fmt.Errorf("%w: DEFAULT_EMBED_HEIGHT %d", ErrInvalidValue, c.DefaultEmbedHeight)
	}
	return nil
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *Config) OEmbedTimeout() time.Duration {
	return time.Duration(c.OEmbedTimeoutSeconds) * time.Second
}
