package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Gateway.BaseURL != "http://127.0.0.1:24879" {
			t.Errorf("expected gateway base URL http://127.0.0.1:24879, got %s", config.Gateway.BaseURL)
		}

		if config.Database.Path != "./spotgrab.db" {
			t.Errorf("expected database path ./spotgrab.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Downloads.Quality != "very_high" {
			t.Errorf("expected very_high quality, got %s", config.Downloads.Quality)
		}

		if config.Downloads.ChunkSizeKB != 128 {
			t.Errorf("expected 128KB chunks, got %d", config.Downloads.ChunkSizeKB)
		}

		if !config.Downloads.VorbisOnly {
			t.Error("expected vorbis_only to default on")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		err = CreateConfigFile(configPath)
		if err == nil {
			t.Fatal("creating config file again should fail")
		}
		if !strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "%!w") {
			t.Errorf("unexpected error message: %v", err)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		content := `
[gateway]
base_url = "http://localhost:9999"
rate_limit = 2.5

[downloads]
quality = "normal"
allow_fallback = true
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Gateway.BaseURL != "http://localhost:9999" {
			t.Errorf("expected custom base URL, got %s", config.Gateway.BaseURL)
		}
		if config.Gateway.RateLimit != 2.5 {
			t.Errorf("expected rate limit 2.5, got %f", config.Gateway.RateLimit)
		}
		if config.Downloads.Quality != "normal" {
			t.Errorf("expected normal quality, got %s", config.Downloads.Quality)
		}
		if !config.Downloads.AllowFallback {
			t.Error("expected fallback to be enabled")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("SaveConfig round trips", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		config := DefaultConfig()
		config.Credentials.Path = "/home/user/.spotgrab/credentials.json"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if loaded.Credentials.Path != config.Credentials.Path {
			t.Errorf("credentials path did not round trip, got %s", loaded.Credentials.Path)
		}
	})
}
