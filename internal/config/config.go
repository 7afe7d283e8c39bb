// Package config loads finderkit configuration: defaults, then an optional
// TOML file, then environment overrides (a .env file is honored via
// godotenv). Flags layered on top belong to the CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultFile is the config file probed when none is given.
const DefaultFile = "finderkit.toml"

type Config struct {
	// RegistryBackend is "file", "sqlite", or "postgres".
	RegistryBackend string `toml:"registry_backend"`
	// RegistryPath is the file or sqlite path.
	RegistryPath string `toml:"registry_path"`
	// RegistryDSN is the postgres DSN.
	RegistryDSN string `toml:"registry_dsn"`
	LogLevel    string `toml:"log_level"`
	// DefaultDepth bounds finder enumeration when the caller gives none.
	DefaultDepth int `toml:"default_depth"`
	// PersistenceInstalled gates finder installation.
	PersistenceInstalled bool `toml:"persistence_installed"`
}

func defaults() Config {
	return Config{
		RegistryBackend:      "file",
		RegistryPath:         "tmp/finder_registry.json",
		LogLevel:             "info",
		DefaultDepth:         1,
		PersistenceInstalled: true,
	}
}

// Load builds the configuration. A named file must exist; the default file
// is probed silently.
func Load(file string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	switch {
	case file != "":
		if _, err := toml.DecodeFile(file, &cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", file, err)
		}
	default:
		if _, err := os.Stat(DefaultFile); err == nil {
			if _, err := toml.DecodeFile(DefaultFile, &cfg); err != nil {
				return nil, fmt.Errorf("load config %s: %w", DefaultFile, err)
			}
		}
	}
	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("FINDERKIT_REGISTRY_BACKEND")); v != "" {
		cfg.RegistryBackend = v
	}
	if v := strings.TrimSpace(os.Getenv("FINDERKIT_REGISTRY_PATH")); v != "" {
		cfg.RegistryPath = v
	}
	if v := strings.TrimSpace(os.Getenv("FINDERKIT_REGISTRY_DSN")); v != "" {
		cfg.RegistryDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("FINDERKIT_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("FINDERKIT_DEPTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultDepth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("FINDERKIT_PERSISTENCE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.PersistenceInstalled = b
		}
	}
}

// Target returns the path or DSN matching the configured backend.
func (c *Config) Target() string {
	if strings.EqualFold(c.RegistryBackend, "postgres") {
		return c.RegistryDSN
	}
	return c.RegistryPath
}

// Gate adapts configuration to the finder feature gate.
type Gate struct {
	Config *Config
}

// ProjectAvailable reports whether a registry target is configured.
func (g Gate) ProjectAvailable() bool {
	return g.Config != nil && strings.TrimSpace(g.Config.Target()) != ""
}

// FeatureInstalled reports whether the named feature is enabled. Only the
// persistence feature exists today.
func (g Gate) FeatureInstalled(feature string) bool {
	return g.Config != nil && feature == "persistence" && g.Config.PersistenceInstalled
}
