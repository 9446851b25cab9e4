package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coredatabase "github.com/m3rciful/dallebot/core/database"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// OpenAIConfig holds settings for the image generation backend.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key" envconfig:"OPENAI_API_KEY"`
	// ImageSize is the generation size sent to the API, e.g. "512x512".
	ImageSize string `yaml:"image_size" envconfig:"OPENAI_IMAGE_SIZE"`
	// ImagesPerRequest seeds new accounts with the number of images a
	// single generation call requests.
	ImagesPerRequest int `yaml:"images_per_request" envconfig:"OPENAI_IMAGES_PER_REQUEST"`
}

// LimitsConfig holds abuse-limit and conversation settings.
// RateLimitCount is the global ceiling of generated images per user within
// the rolling window. SessionTurns is the turn budget a multi-step command
// arms when it asks the user for a follow-up message.
type LimitsConfig struct {
	RateLimitCount     int `yaml:"rate_limit_count" envconfig:"RATE_LIMIT_COUNT"`
	RateLimitWindowHrs int `yaml:"rate_limit_window_hours" envconfig:"RATE_LIMIT_WINDOW_HOURS"`
	SessionTurns       int `yaml:"session_turns" envconfig:"SESSION_TURNS"`
	SessionTTLMinutes  int `yaml:"session_ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	defaultRateLimitCount     = 10
	defaultRateLimitWindowHrs = 24
	defaultSessionTurns       = 2
	defaultSessionTTLMinutes  = 30
	defaultImagesPerRequest   = 1
	defaultImageSize          = "512x512"
)

// Config aggregates everything the bot reads at startup.
type Config struct {
	Telegram TelegramConfig      `yaml:"telegram"`
	Webhook  WebhookConfig       `yaml:"webhook"`
	Database coredatabase.Config `yaml:"database"`
	OpenAI   OpenAIConfig        `yaml:"openai"`
	Limits   LimitsConfig        `yaml:"limits"`
	Logging  LoggingConfig       `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Limits.RateLimitCount < 0 {
		return fmt.Errorf("limits.rate_limit_count must be >= 0")
	}
	if cfg.Limits.RateLimitCount == 0 {
		cfg.Limits.RateLimitCount = defaultRateLimitCount
	}
	if cfg.Limits.RateLimitWindowHrs < 0 {
		return fmt.Errorf("limits.rate_limit_window_hours must be >= 0")
	}
	if cfg.Limits.RateLimitWindowHrs == 0 {
		cfg.Limits.RateLimitWindowHrs = defaultRateLimitWindowHrs
	}
	if cfg.Limits.SessionTurns < 0 {
		return fmt.Errorf("limits.session_turns must be >= 0")
	}
	if cfg.Limits.SessionTurns == 0 {
		cfg.Limits.SessionTurns = defaultSessionTurns
	}
	if cfg.Limits.SessionTTLMinutes <= 0 {
		cfg.Limits.SessionTTLMinutes = defaultSessionTTLMinutes
	}

	if cfg.OpenAI.ImagesPerRequest <= 0 {
		cfg.OpenAI.ImagesPerRequest = defaultImagesPerRequest
	}
	if strings.TrimSpace(cfg.OpenAI.ImageSize) == "" {
		cfg.OpenAI.ImageSize = defaultImageSize
	}

	return nil
}
