package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc", RunMode: "longpoll"},
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	if err := Normalize(cfg); err == nil {
		t.Fatal("missing token accepted")
	}
}

func TestNormalizeRunModeDefaultsToLongpoll(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = ""
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run_mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
}

func TestNormalizeAcceptsPollingAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run_mode = %q, want alias resolved to %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
}

func TestNormalizeRejectsUnknownRunMode(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "carrier-pigeon"
	err := Normalize(cfg)
	if err == nil {
		t.Fatal("unknown run_mode accepted")
	}
	if !strings.Contains(err.Error(), "run_mode") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNormalizeWebhookRequiresEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("webhook mode without url accepted")
	}

	cfg.Webhook = WebhookConfig{URL: "https://bot.example", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("complete webhook config rejected: %v", err)
	}
}

func TestNormalizeAppliesLimitDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Limits.RateLimitCount != defaultRateLimitCount {
		t.Errorf("rate_limit_count = %d, want %d", cfg.Limits.RateLimitCount, defaultRateLimitCount)
	}
	if cfg.Limits.RateLimitWindowHrs != defaultRateLimitWindowHrs {
		t.Errorf("rate_limit_window_hours = %d, want %d", cfg.Limits.RateLimitWindowHrs, defaultRateLimitWindowHrs)
	}
	if cfg.Limits.SessionTurns != defaultSessionTurns {
		t.Errorf("session_turns = %d, want %d", cfg.Limits.SessionTurns, defaultSessionTurns)
	}
	if cfg.Limits.SessionTTLMinutes != defaultSessionTTLMinutes {
		t.Errorf("session_ttl_minutes = %d, want %d", cfg.Limits.SessionTTLMinutes, defaultSessionTTLMinutes)
	}
	if cfg.OpenAI.ImageSize != defaultImageSize {
		t.Errorf("image_size = %q, want %q", cfg.OpenAI.ImageSize, defaultImageSize)
	}
	if cfg.OpenAI.ImagesPerRequest != defaultImagesPerRequest {
		t.Errorf("images_per_request = %d, want %d", cfg.OpenAI.ImagesPerRequest, defaultImagesPerRequest)
	}
}

func TestNormalizeRejectsNegativeLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Limits.RateLimitCount = -1
	if err := Normalize(cfg); err == nil {
		t.Fatal("negative rate_limit_count accepted")
	}
}
