package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/chatglyph"
	"github.com/gogpu/chatglyph/chat"
	"github.com/gogpu/chatglyph/fetch"
	"github.com/gogpu/chatglyph/glyph"
)

// TokenEnv names the environment variable read when the config has no token.
const TokenEnv = "CHATGLYPH_TOKEN"

// Config is the CLI configuration file.
type Config struct {
	Token       string      `yaml:"token,omitempty"`
	ClientID    string      `yaml:"client_id,omitempty"`
	EmotesURL   string      `yaml:"emotes_url"`
	BadgesURL   string      `yaml:"badges_url"`
	Concurrency int         `yaml:"concurrency"`
	Scale       float32     `yaml:"scale"`
	Chat        chat.Config `yaml:"chat"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ClientID:    fetch.DefaultClientID,
		EmotesURL:   fetch.GlobalEmotesURL,
		BadgesURL:   fetch.GlobalBadgesURL,
		Concurrency: fetch.DefaultConcurrency,
		Scale:       glyph.DefaultScale,
		Chat:        chat.DefaultConfig(),
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults. Token falls back to $CHATGLYPH_TOKEN.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv(TokenEnv)
	}
	if cfg.Concurrency < 1 {
		return cfg, fmt.Errorf("config: concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.Scale <= 0 {
		return cfg, fmt.Errorf("config: scale must be positive, got %g", cfg.Scale)
	}
	return cfg, nil
}

// Options converts cfg into catalog options.
func (c Config) Options() []chatglyph.Option {
	opts := []chatglyph.Option{
		chatglyph.WithGlobalURLs(c.EmotesURL, c.BadgesURL),
		chatglyph.WithConcurrency(c.Concurrency),
		chatglyph.WithScale(c.Scale),
	}
	if c.Token != "" {
		opts = append(opts, chatglyph.WithToken(c.Token))
	}
	if c.ClientID != "" {
		opts = append(opts, chatglyph.WithClientID(c.ClientID))
	}
	return opts
}
