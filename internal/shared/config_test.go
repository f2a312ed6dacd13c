package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 3001 {
			t.Errorf("expected server port 3001, got %d", config.Server.Port)
		}

		if config.Sheets.ReadRange != "Sheet1!A:B" {
			t.Errorf("expected read range Sheet1!A:B, got %s", config.Sheets.ReadRange)
		}

		if config.WhatsApp.SessionDir != "./wa_session" {
			t.Errorf("expected session dir ./wa_session, got %s", config.WhatsApp.SessionDir)
		}

		if config.API.RateLimit != 5.0 {
			t.Errorf("expected rate limit 5.0, got %f", config.API.RateLimit)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Server.Port != defaultConfig.Server.Port {
			t.Errorf("created config port doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		content := `
[server]
port = 8080

[api]
key = "secret"
allowed_origins = ["https://ui.example.com"]

[sheets]
sheet_id = "sheet123"
read_range = "Contacts!A:B"
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected port 8080, got %d", config.Server.Port)
		}
		if config.API.Key != "secret" {
			t.Errorf("expected api key secret, got %s", config.API.Key)
		}
		if len(config.API.AllowedOrigins) != 1 || config.API.AllowedOrigins[0] != "https://ui.example.com" {
			t.Errorf("unexpected allowed origins: %v", config.API.AllowedOrigins)
		}
		if config.Sheets.ReadRange != "Contacts!A:B" {
			t.Errorf("expected read range Contacts!A:B, got %s", config.Sheets.ReadRange)
		}
	})

	t.Run("LoadConfigMissing", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("loading a missing config file should fail")
		}
	})

	t.Run("FromEnv", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("API_KEY", "env-secret")
		t.Setenv("SHEET_ID", "env-sheet")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
		t.Setenv("WA_SESSION_DIR", "/var/lib/wabridge")

		config := DefaultConfig()
		config.FromEnv()

		if config.Server.Port != 9090 {
			t.Errorf("expected port 9090, got %d", config.Server.Port)
		}
		if config.API.Key != "env-secret" {
			t.Errorf("expected api key env-secret, got %s", config.API.Key)
		}
		if config.Sheets.SheetID != "env-sheet" {
			t.Errorf("expected sheet id env-sheet, got %s", config.Sheets.SheetID)
		}
		if len(config.API.AllowedOrigins) != 2 || config.API.AllowedOrigins[1] != "https://b.example.com" {
			t.Errorf("unexpected allowed origins: %v", config.API.AllowedOrigins)
		}
		if config.WhatsApp.SessionDir != "/var/lib/wabridge" {
			t.Errorf("unexpected session dir: %s", config.WhatsApp.SessionDir)
		}
	})

	t.Run("FromEnvIgnoresInvalidPort", func(t *testing.T) {
		t.Setenv("PORT", "not-a-port")

		config := DefaultConfig()
		config.FromEnv()

		if config.Server.Port != 3001 {
			t.Errorf("invalid PORT should keep default, got %d", config.Server.Port)
		}
	})

	t.Run("Addr", func(t *testing.T) {
		config := &Config{Server: ServerConfig{Host: "127.0.0.1", Port: 3001}}
		if got := config.Addr(); got != "127.0.0.1:3001" {
			t.Errorf("expected 127.0.0.1:3001, got %s", got)
		}
	})
}
