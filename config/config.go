package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"synthd/crypto"

	"github.com/BurntSushi/toml"
)

// AssetConfig wires one approved collateral asset to its price feed. Exactly
// one of FeedURL or ManualPrice must be set: FeedURL points the daemon at an
// HTTP oracle endpoint, ManualPrice pins a static price for local networks.
type AssetConfig struct {
	Address        string `toml:"Address"`
	FeedURL        string `toml:"FeedURL,omitempty"`
	ManualPrice    string `toml:"ManualPrice,omitempty"`
	ManualDecimals uint8  `toml:"ManualDecimals,omitempty"`
}

type EngineConfig struct {
	LiquidationThreshold uint64 `toml:"LiquidationThreshold"`
	ThresholdPrecision   uint64 `toml:"ThresholdPrecision"`
	LiquidationBonus     uint64 `toml:"LiquidationBonus"`
}

type Config struct {
	RPCAddress     string        `toml:"RPCAddress"`
	MetricsAddress string        `toml:"MetricsAddress"`
	DataDir        string        `toml:"DataDir"`
	Environment    string        `toml:"Environment"`
	RPCAuthToken   string        `toml:"RPCAuthToken"`
	Engine         EngineConfig  `toml:"engine"`
	Assets         []AssetConfig `toml:"asset"`
}

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
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8645"
	}
	if strings.TrimSpace(c.MetricsAddress) == "" {
		c.MetricsAddress = ":9464"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./synthd-data"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "dev"
	}
	if c.Engine == (EngineConfig{}) {
		c.Engine = EngineConfig{LiquidationThreshold: 66, ThresholdPrecision: 100, LiquidationBonus: 10}
	}
}

// Validate rejects configurations the daemon could not start with.
func (c *Config) Validate() error {
	if c.Engine.ThresholdPrecision == 0 {
		return fmt.Errorf("config: engine ThresholdPrecision must be positive")
	}
	if c.Engine.LiquidationThreshold == 0 || c.Engine.LiquidationThreshold > c.Engine.ThresholdPrecision {
		return fmt.Errorf("config: engine LiquidationThreshold %d outside (0, %d]", c.Engine.LiquidationThreshold, c.Engine.ThresholdPrecision)
	}
	seen := make(map[string]struct{}, len(c.Assets))
	for i, asset := range c.Assets {
		addr := strings.TrimSpace(asset.Address)
		if addr == "" {
			return fmt.Errorf("config: asset %d missing Address", i)
		}
		if _, err := crypto.DecodeAddress(addr); err != nil {
			return fmt.Errorf("config: asset %d: %w", i, err)
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("config: duplicate asset %s", addr)
		}
		seen[addr] = struct{}{}
		feed := strings.TrimSpace(asset.FeedURL) != ""
		manual := strings.TrimSpace(asset.ManualPrice) != ""
		if feed == manual {
			return fmt.Errorf("config: asset %s must set exactly one of FeedURL or ManualPrice", addr)
		}
		if manual {
			if _, ok := new(big.Int).SetString(strings.TrimSpace(asset.ManualPrice), 10); !ok {
				return fmt.Errorf("config: asset %s: invalid ManualPrice %q", addr, asset.ManualPrice)
			}
		}
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
