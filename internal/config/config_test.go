package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "http://127.0.0.1:8000" {
		t.Fatalf("unexpected base url %q", cfg.APIBaseURL)
	}
	if cfg.PollInterval != time.Minute {
		t.Fatalf("unexpected poll interval %v", cfg.PollInterval)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("unexpected api timeout %v", cfg.APITimeout)
	}
	if cfg.StorageTTL != 48*time.Hour {
		t.Fatalf("unexpected storage ttl %v", cfg.StorageTTL)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://habitat.local:9000")
	t.Setenv("POLL_INTERVAL", "5")
	t.Setenv("STORAGE_TYPE", "none")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "http://habitat.local:9000" {
		t.Fatalf("env base url ignored, got %q", cfg.APIBaseURL)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("env poll interval ignored, got %v", cfg.PollInterval)
	}
	if cfg.StorageType != "none" {
		t.Fatalf("env storage type ignored, got %q", cfg.StorageType)
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "0")
	if _, err := load(viper.New()); err == nil {
		t.Fatalf("expected error for zero poll interval")
	}
}
