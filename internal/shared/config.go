package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Deployment platforms inject secrets through the environment instead of a
// config file, so [Config.FromEnv] layers recognized environment variables on
// top of whatever the file provided.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	API      APIConfig      `toml:"api"`
	Sheets   SheetsConfig   `toml:"sheets"`
	WhatsApp WhatsAppConfig `toml:"whatsapp"`
	Proxy    ProxyConfig    `toml:"proxy"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// APIConfig contains settings for the authenticated HTTP surface.
type APIConfig struct {
	Key            string   `toml:"key"`             // shared secret compared against the x-api-key header
	AllowedOrigins []string `toml:"allowed_origins"` // origins allowed by the CORS middleware
	RateLimit      float64  `toml:"rate_limit"`      // requests per second
	Burst          int      `toml:"burst"`
}

// SheetsConfig contains the Google Sheets contact source settings.
type SheetsConfig struct {
	SheetID           string `toml:"sheet_id"`
	CredentialsBase64 string `toml:"credentials_base64"` // base64-encoded service account JSON
	ReadRange         string `toml:"read_range"`         // e.g. "Sheet1!A:B"
}

// WhatsAppConfig contains messaging session settings.
type WhatsAppConfig struct {
	SessionDir string `toml:"session_dir"` // writable directory for the persisted session store
}

// ProxyConfig contains settings for the front-end forwarding proxy.
type ProxyConfig struct {
	BackendURL string `toml:"backend_url"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FromEnv overlays recognized environment variables onto the config.
//
// Recognized variables: PORT, API_KEY, SHEET_ID,
// GOOGLE_APPLICATION_CREDENTIALS_BASE64, WA_SESSION_DIR, ALLOWED_ORIGINS
// (comma-separated), BACKEND_URL.
func (c *Config) FromEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.API.Key = v
	}
	if v := os.Getenv("SHEET_ID"); v != "" {
		c.Sheets.SheetID = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_BASE64"); v != "" {
		c.Sheets.CredentialsBase64 = v
	}
	if v := os.Getenv("WA_SESSION_DIR"); v != "" {
		c.WhatsApp.SessionDir = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := []string{}
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.API.AllowedOrigins = origins
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.Proxy.BackendURL = v
	}
}

// Addr returns the host:port address the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
