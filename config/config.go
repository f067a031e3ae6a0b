package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon-level settings. Per-deployment economics live in
// state, not here.
type Config struct {
	RPCAddress       string `toml:"RPCAddress"`
	DataDir          string `toml:"DataDir"`
	NetworkName      string `toml:"NetworkName"`
	TruncationPolicy string `toml:"TruncationPolicy"` // "payer" or "treasury"
}

const (
	defaultRPCAddress  = "127.0.0.1:8651"
	defaultDataDir     = "./editions-data"
	defaultNetworkName = "eclipse-local"

	// TruncationPayer leaves fee/royalty rounding dust with the minter.
	TruncationPayer = "payer"
	// TruncationTreasury routes rounding dust to the deployment treasury.
	TruncationTreasury = "treasury"
)

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = defaultRPCAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = defaultDataDir
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = defaultNetworkName
	}
	if strings.TrimSpace(cfg.TruncationPolicy) == "" {
		cfg.TruncationPolicy = TruncationPayer
	}
}

func validate(cfg *Config) error {
	switch cfg.TruncationPolicy {
	case TruncationPayer, TruncationTreasury:
		return nil
	default:
		return fmt.Errorf("config: unknown TruncationPolicy %q (want %q or %q)", cfg.TruncationPolicy, TruncationPayer, TruncationTreasury)
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
