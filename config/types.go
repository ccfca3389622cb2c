package config

import "time"

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Pinboard   PinboardConfig
	OpenRouter OpenRouterConfig
	Limiter    LimiterConfig
	Site       SiteConfig
}

type ServerConfig struct {
	HTTPAddr     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type PinboardConfig struct {
	APIToken string
	Tag      string
	BaseURL  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Referer string
	Title   string
}

// LimiterConfig shapes the outbound LLM call budget. Reservoir is the number
// of calls available at startup; RefillAmount is credited every
// RefillInterval.
type LimiterConfig struct {
	MinInterval    time.Duration
	MaxConcurrent  int
	Reservoir      int
	RefillAmount   int
	RefillInterval time.Duration
}

type SiteConfig struct {
	URL         string
	Title       string
	Description string
	AuthorName  string
	AuthorEmail string
}
