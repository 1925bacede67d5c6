package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TONGITS_"

// LoadTable loads the table configuration.
// Search order: customPath -> ~/.tongits/table.yaml -> ./configs/table.yaml -> embedded default.
// Keys missing from a file keep their default; TONGITS_* environment
// variables are applied last.
func LoadTable(customPath string) (TableConfig, error) {
	cfg, err := loadTableFile(customPath)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func loadTableFile(customPath string) (TableConfig, error) {
	cfg := DefaultTableConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("table.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			candidate := DefaultTableConfig()
			if err := yaml.Unmarshal(data, &candidate); err == nil {
				return candidate, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", "table.yaml")); err == nil {
		candidate := DefaultTableConfig()
		if err := yaml.Unmarshal(data, &candidate); err == nil {
			return candidate, nil
		}
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultTableYAML, &cfg); err != nil {
		return DefaultTableConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tongits", filename)
}

// LoadDotEnv reads KEY=VALUE pairs from the given files (default ".env")
// into the process environment without overwriting variables already set.
// Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

type envSetter func(cfg *TableConfig, v string) error

var envOverrides = map[string]envSetter{
	"ENTRY_TYPE":        func(c *TableConfig, v string) error { c.EntryType = v; return nil },
	"CATALOG_ADDRESS":   func(c *TableConfig, v string) error { c.CatalogAddress = v; return nil },
	"REGISTER_INTERVAL": durationSetter(func(c *TableConfig) *time.Duration { return &c.RegisterInterval }),
	"PING_INTERVAL":     durationSetter(func(c *TableConfig) *time.Duration { return &c.PingInterval }),
	"GRACE_DELAY":       durationSetter(func(c *TableConfig) *time.Duration { return &c.GraceDelay }),
	"CATALOG_TIMEOUT":   durationSetter(func(c *TableConfig) *time.Duration { return &c.CatalogTimeout }),
	"SEND_TIMEOUT":      durationSetter(func(c *TableConfig) *time.Duration { return &c.SendTimeout }),
	"MAX_CLIENTS":       intSetter(func(c *TableConfig) *int { return &c.MaxClients }),
	"MIN_CLIENTS":       intSetter(func(c *TableConfig) *int { return &c.MinClients }),
	"HAND_SIZE":         intSetter(func(c *TableConfig) *int { return &c.HandSize }),
	"OUTBOUND_QUEUE":    intSetter(func(c *TableConfig) *int { return &c.OutboundQueue }),
	"MAX_MESSAGE_BYTES": func(c *TableConfig, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.MaxMessageBytes = n
		return nil
	},
	"LEGACY_POINTS": func(c *TableConfig, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.LegacyPoints = b
		return nil
	},
}

func durationSetter(field func(*TableConfig) *time.Duration) envSetter {
	return func(c *TableConfig, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func intSetter(field func(*TableConfig) *int) envSetter {
	return func(c *TableConfig, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

// ApplyEnv overrides cfg from TONGITS_* variables found through lookup.
func ApplyEnv(cfg *TableConfig, lookup func(string) (string, bool)) error {
	for key, set := range envOverrides {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		if err := set(cfg, v); err != nil {
			return fmt.Errorf("config: %s%s=%q: %w", EnvPrefix, key, v, err)
		}
	}
	return nil
}
