package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables
// (and a .env file when present).
type Config struct {
	Port            string        `envconfig:"PORT" default:"8080" validate:"required"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	LogFile         string        `envconfig:"LOG_FILE"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
	CORSOrigins     string        `envconfig:"CORS_ORIGINS" default:"*"`

	// Upstream HTTP behaviour shared by every provider.
	HTTPTimeout        time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`
	ProviderMaxRetries int           `envconfig:"PROVIDER_MAX_RETRIES" default:"2" validate:"gte=0,lte=5"`

	// Weather.
	WeatherInterval   time.Duration `envconfig:"WEATHER_INTERVAL" default:"10m" validate:"gt=0"`
	OpenWeatherAPIKey string        `envconfig:"OPENWEATHER_API_KEY"`
	WeatherAPIKey     string        `envconfig:"WEATHERAPI_API_KEY"`
	GoogleMapsAPIKey  string        `envconfig:"GOOGLE_MAPS_API_KEY"`
	DefaultPrefecture string        `envconfig:"DEFAULT_PREFECTURE" default:"新潟県" validate:"required"`
	DefaultCity       string        `envconfig:"DEFAULT_CITY" default:"新潟市" validate:"required"`

	CommentaryLogSize int `envconfig:"COMMENTARY_LOG_SIZE" default:"50" validate:"gt=0"`

	// Generative commentary. The relay endpoint is served only when AIAPIKey
	// is set; AIRelayURL points the refresh service at a remote relay instead
	// of calling the model in-process.
	AIAPIKey   string        `envconfig:"AI_API_KEY"`
	AIBaseURL  string        `envconfig:"AI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai/" validate:"required,url"`
	AIModel    string        `envconfig:"AI_MODEL" default:"gemini-2.0-flash" validate:"required"`
	AILabel    string        `envconfig:"AI_LABEL" default:"[AI] "`
	AITimeout  time.Duration `envconfig:"AI_TIMEOUT" default:"20s" validate:"gt=0"`
	AIRelayURL string        `envconfig:"AI_RELAY_URL" validate:"omitempty,url"`

	// News ticker.
	NewsFeeds             []string      `envconfig:"NEWS_FEEDS" default:"https://www.nhk.or.jp/rss/news/cat0.xml" validate:"dive,url"`
	NewsInterval          time.Duration `envconfig:"NEWS_INTERVAL" default:"5m" validate:"gt=0"`
	NewsMaxItems          int           `envconfig:"NEWS_MAX_ITEMS" default:"30" validate:"gt=0"`
	BroadcasterFeedPrefix string        `envconfig:"BROADCASTER_FEED_PREFIX" default:"https://www.nhk.or.jp/rss/" validate:"required,url"`

	// Earthquake check.
	QuakeInterval time.Duration `envconfig:"QUAKE_INTERVAL" default:"30s" validate:"gt=0"`
	QuakeLimit    int           `envconfig:"QUAKE_LIMIT" default:"10" validate:"gt=0,lte=100"`

	SettingsDB string `envconfig:"SETTINGS_DB" default:"signage.db" validate:"required"`
}

// AIEnabled reports whether any path to the generative model is configured.
func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != "" || c.AIRelayURL != ""
}

// Load reads configuration from environment with defaults, then validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
