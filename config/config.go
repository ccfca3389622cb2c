package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// LoadConfig reads the YAML config file if present, layered over defaults.
// Credentials and the public site URL can always be supplied through the
// environment (PINBOARD_API_TOKEN, OPENROUTER_API_KEY, SITE_URL), which takes
// precedence over the file.
func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")

	config := GetDefaultConfig()
	if err := viper.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("cannot read the file %w", err)
		}
	} else if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error reading the config file %w", err)
	}

	if v := os.Getenv("PINBOARD_API_TOKEN"); v != "" {
		config.Pinboard.APIToken = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		config.OpenRouter.APIKey = v
	}
	if v := os.Getenv("SITE_URL"); v != "" {
		config.Site.URL = v
	}
	return config, nil
}

func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:     ":3000",
			ReadTimeout: 10 * time.Second,
			// The processing endpoint runs the pipeline synchronously;
			// three rate-limited LLM calls need headroom.
			WriteTimeout: 3 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		Redis: RedisConfig{
			Host: "localhost:6379",
		},
		Pinboard: PinboardConfig{
			Tag:     "!news",
			BaseURL: "https://api.pinboard.in/v1",
		},
		OpenRouter: OpenRouterConfig{
			Model:   "meta-llama/llama-3.2-3b-instruct:free",
			BaseURL: "https://openrouter.ai/api/v1",
			Referer: "http://localhost:3000",
			Title:   "Pinboard News",
		},
		Limiter: LimiterConfig{
			MinInterval:    5 * time.Second,
			MaxConcurrent:  1,
			Reservoir:      10,
			RefillAmount:   5,
			RefillInterval: time.Minute,
		},
		Site: SiteConfig{
			URL:         "http://localhost:3000",
			Title:       "Pinboard News",
			Description: "Curated news from Pinboard bookmarks, powered by AI summaries",
			AuthorName:  "Pinboard News",
			AuthorEmail: "news@localhost",
		},
	}
}
