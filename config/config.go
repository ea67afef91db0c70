package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/portfolio/fx"
)

// Config represents the complete valuation configuration
type Config struct {
	Reporting ReportingConfig `json:"reporting" yaml:"reporting"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Log       LogConfig       `json:"log" yaml:"log"`
	FX        FXConfig        `json:"fx" yaml:"fx"`
}

// ReportingConfig fixes the currency every value is converted into
type ReportingConfig struct {
	Currency string `json:"currency" yaml:"currency"`
}

type StoreConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	Encoding    string `json:"encoding" yaml:"encoding"` // "json" or "console"
	Development bool   `json:"development" yaml:"development"`
}

// FXConfig holds the static rates used when the ledger has none
type FXConfig struct {
	Fallback fx.Table `json:"fallback" yaml:"fallback"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON).
// Sections the file omits keep their Default values. The result is not
// validated; callers apply their overrides first and then call Validate.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !isCurrencyCode(c.Reporting.Currency) {
		return fmt.Errorf("reporting.currency must be a 3-letter upper-case code, got %q", c.Reporting.Currency)
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path is required")
	}
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	if c.Log.Encoding != "" && c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		return fmt.Errorf("log.encoding must be 'json' or 'console'")
	}
	for i, e := range c.FX.Fallback {
		if !isCurrencyCode(e.From) || !isCurrencyCode(e.To) {
			return fmt.Errorf("fx.fallback[%d]: currencies must be 3-letter upper-case codes", i)
		}
		if e.Rate <= 0 {
			return fmt.Errorf("fx.fallback[%d]: rate must be positive", i)
		}
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Reporting: ReportingConfig{
			Currency: "CNY",
		},
		Store: StoreConfig{
			DBPath: "./portfolio.sqlite",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		FX: FXConfig{
			Fallback: fx.DefaultTable(),
		},
	}
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
