package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sugawarayuuta/sonnet"
	"github.com/tailscale/hujson"

	"github.com/llxisdsh/cset"
)

// Config holds all configuration options.
type Config struct {
	Name          string   `json:"name,omitempty"`
	IntKeys       bool     `json:"int_keys,omitempty"`        //nolint:tagliatelle // snake_case for config file
	MinCapacity   int      `json:"min_capacity,omitempty"`    //nolint:tagliatelle // snake_case for config file
	MaxLoadFactor float64  `json:"max_load_factor,omitempty"` //nolint:tagliatelle // snake_case for config file
	CellarRatio   *float64 `json:"cellar_ratio,omitempty"`    //nolint:tagliatelle // snake_case for config file
	History       string   `json:"history,omitempty"`
}

// ConfigFileName is the default config file name.
const ConfigFileName = ".cset.json"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigFileRead     = errors.New("cannot read config file")
	errConfigInvalid      = errors.New("invalid config")
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Name:    "repl",
		History: defaultHistoryFile(),
	}
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".csetrepl_history")
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Project config file at default location (.cset.json, if exists)
// 3. Explicit config file via configPath (if non-empty, must exist)
//
// Flag overrides are applied by the caller with mergeConfig.
func LoadConfig(workDir, configPath string) (Config, string, error) {
	cfg := DefaultConfig()

	cfgFile := filepath.Join(workDir, ConfigFileName)
	mustExist := false
	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}
		mustExist = true
	}

	fileCfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}
	if !loaded {
		cfgFile = ""
	}
	cfg = mergeConfig(cfg, fileCfg)

	if err := validateConfig(cfg); err != nil {
		return Config{}, "", fmt.Errorf("%w: %w", errConfigInvalid, err)
	}
	return cfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, a missing file
// returns a zero config and loaded=false.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Config{}, false, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
			}
			return Config{}, false, nil
		}
		return Config{}, false, fmt.Errorf("%w: %s: %w", errConfigFileRead, path, err)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := sonnet.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Name != "" {
		base.Name = overlay.Name
	}
	if overlay.IntKeys {
		base.IntKeys = true
	}
	if overlay.MinCapacity != 0 {
		base.MinCapacity = overlay.MinCapacity
	}
	if overlay.MaxLoadFactor != 0 {
		base.MaxLoadFactor = overlay.MaxLoadFactor
	}
	if overlay.CellarRatio != nil {
		base.CellarRatio = overlay.CellarRatio
	}
	if overlay.History != "" {
		base.History = overlay.History
	}
	return base
}

func validateConfig(cfg Config) error {
	if cfg.MinCapacity < 0 {
		return fmt.Errorf("min_capacity must be non-negative, got %d", cfg.MinCapacity)
	}
	if cfg.MaxLoadFactor < 0 || cfg.MaxLoadFactor > 1 {
		return fmt.Errorf("max_load_factor must be in (0, 1], got %v", cfg.MaxLoadFactor)
	}
	if r := cfg.CellarRatio; r != nil && (*r < 0 || *r > 1) {
		return fmt.Errorf("cellar_ratio must be in [0, 1], got %v", *r)
	}
	return nil
}

// options translates the config into set options. Zero values keep the
// library defaults.
func (c Config) options() []func(*cset.SetConfig) {
	var opts []func(*cset.SetConfig)
	if c.MinCapacity > 0 {
		opts = append(opts, cset.WithMinCapacity(c.MinCapacity))
	}
	if c.MaxLoadFactor > 0 {
		opts = append(opts, cset.WithMaxLoadFactor(c.MaxLoadFactor))
	}
	if c.CellarRatio != nil {
		opts = append(opts, cset.WithCellarRatio(*c.CellarRatio))
	}
	return opts
}
