package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConnectTimeout != 60*time.Second || cfg.Timeout != 30*time.Second {
		t.Fatalf("timeouts = %v / %v", cfg.ConnectTimeout, cfg.Timeout)
	}
	if cfg.FollowRedirects || cfg.Verbose || cfg.FailOnError {
		t.Fatalf("expected redirects, verbose and fail-on-error off by default: %+v", cfg)
	}
	if cfg.StorageType != "none" {
		t.Fatalf("storage type = %q", cfg.StorageType)
	}
	if cfg.APIEncoding != "UTF-8" {
		t.Fatalf("encoding = %q", cfg.APIEncoding)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("API_HOST", "https://api.example.test")
	t.Setenv("API_CHANNEL", "billing")
	t.Setenv("TIMEOUT_SECONDS", "5")
	t.Setenv("FOLLOW_REDIRECTS", "true")
	t.Setenv("STORAGE_TYPE", " BBolt ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIHost != "https://api.example.test" || cfg.APIChannel != "billing" {
		t.Fatalf("api settings = %q %q", cfg.APIHost, cfg.APIChannel)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v", cfg.Timeout)
	}
	if !cfg.FollowRedirects {
		t.Fatalf("expected follow_redirects from env")
	}
	if cfg.StorageType != "bbolt" {
		t.Fatalf("storage type = %q", cfg.StorageType)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"CONNECT_TIMEOUT_SECONDS": "0",
		"TIMEOUT_SECONDS":         "-1",
		"STORAGE_TTL_SECONDS":     "0",
		"STORAGE_TYPE":            "redis",
	}
	for env, val := range cases {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", env, val)
			}
		})
	}
}
