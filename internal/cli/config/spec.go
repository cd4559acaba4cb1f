package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Output formats accepted by output.format.
var OutputFormats = []string{"table", "json", "yaml"}

// CLIConfig is the configuration for payauth-cli.
type CLIConfig struct {
	Server  ServerConfig  `koanf:"server" yaml:"server"`
	Address AddressConfig `koanf:"address" yaml:"address"`
	Storage StorageConfig `koanf:"storage" yaml:"storage"`
	Output  OutputConfig  `koanf:"output" yaml:"output"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
}

// ServerConfig locates the authentication backend.
type ServerConfig struct {
	URL     string        `koanf:"url" yaml:"url"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	CA      string        `koanf:"ca" yaml:"ca,omitempty"` // extra PEM roots for https
}

// AddressConfig configures the CEP lookup service.
type AddressConfig struct {
	Endpoint string  `koanf:"endpoint" yaml:"endpoint"`
	Rate     float64 `koanf:"rate" yaml:"rate"` // requests per second
	Burst    int     `koanf:"burst" yaml:"burst"`
}

// StorageConfig controls where the bearer token is kept.
type StorageConfig struct {
	Dir       string `koanf:"dir" yaml:"dir"`
	Encrypt   bool   `koanf:"encrypt" yaml:"encrypt"`
	Ephemeral bool   `koanf:"ephemeral" yaml:"ephemeral"` // memory only, nothing written
}

// OutputConfig holds presentation preferences.
type OutputConfig struct {
	Format string `koanf:"format" yaml:"format"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: ServerConfig{
			URL:     "http://localhost:3000",
			Timeout: 30 * time.Second,
		},
		Address: AddressConfig{
			Endpoint: "https://viacep.com.br/ws",
			Rate:     2,
			Burst:    1,
		},
		Storage: StorageConfig{
			Dir:     filepath.Join(DefaultDir(), "data"),
			Encrypt: true,
		},
		Output: OutputConfig{Format: "table"},
		Log:    LogConfig{Level: "warn", Format: "text"},
	}
}

// Validate reports the first invalid setting.
func (c *CLIConfig) Validate() error {
	if err := validateURL("server.url", c.Server.URL); err != nil {
		return err
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.CA != "" && !strings.HasPrefix(c.Server.URL, "https://") {
		return fmt.Errorf("server.ca is set but server.url %q is not https", c.Server.URL)
	}
	if err := validateURL("address.endpoint", c.Address.Endpoint); err != nil {
		return err
	}
	if c.Address.Rate <= 0 {
		return fmt.Errorf("address.rate must be positive, got %v", c.Address.Rate)
	}
	if c.Address.Burst < 1 {
		return fmt.Errorf("address.burst must be at least 1, got %d", c.Address.Burst)
	}
	if !c.Storage.Ephemeral && c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir is required unless storage.ephemeral is set")
	}
	if !contains(OutputFormats, c.Output.Format) {
		return fmt.Errorf("output.format must be one of %s, got %q", strings.Join(OutputFormats, ", "), c.Output.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not a valid level", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", key, raw)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
