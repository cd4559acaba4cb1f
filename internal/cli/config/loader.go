package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/payauth-go/internal/infra/confloader"
)

// DefaultDir returns the per-user state directory (~/.payauth).
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".payauth")
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "cli.yaml")
}

// Load reads the configuration at path, falling back to DefaultConfigPath.
// A missing file yields the defaults. overrides take precedence over the
// file and the environment; keys are dotted paths such as "server.url".
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithDefaults(defaultValues()),
		confloader.WithOverrides(overrides),
	)

	cfg := &CLIConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.Dir = ExpandHome(cfg.Storage.Dir)
	cfg.Server.CA = ExpandHome(cfg.Server.CA)
	return cfg, nil
}

// Save writes cfg to path as YAML, readable only by the owner.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}

func defaultValues() map[string]any {
	d := Default()
	return map[string]any{
		"server.url":        d.Server.URL,
		"server.timeout":    d.Server.Timeout.String(),
		"server.ca":         d.Server.CA,
		"address.endpoint":  d.Address.Endpoint,
		"address.rate":      d.Address.Rate,
		"address.burst":     d.Address.Burst,
		"storage.dir":       d.Storage.Dir,
		"storage.encrypt":   d.Storage.Encrypt,
		"storage.ephemeral": d.Storage.Ephemeral,
		"output.format":     d.Output.Format,
		"log.level":         d.Log.Level,
		"log.format":        d.Log.Format,
	}
}
