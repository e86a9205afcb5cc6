// Copyright 2025 Grug Framework
//
// Node configuration. Values come from an optional YAML file, overridden by
// environment variables, with sane defaults for a local devnet.

package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the Grug node process.
type Config struct {
	// Chain
	ChainID     string `yaml:"chain_id"`
	GenesisPath string `yaml:"genesis_path"`

	// Storage
	DataDir   string `yaml:"data_dir"`
	DBBackend string `yaml:"db_backend"` // "goleveldb" or "memdb"

	// ABCI server
	ListenAddr string `yaml:"listen_addr"` // e.g. tcp://127.0.0.1:26658

	// VM
	ModuleCacheBytes int `yaml:"module_cache_bytes"`

	// Indexer (empty disables the SQL indexer)
	IndexerDatabaseURL string `yaml:"indexer_database_url"`

	// Observability
	MetricsAddr string `yaml:"metrics_addr"`
	HealthAddr  string `yaml:"health_addr"`
	LogLevel    string `yaml:"log_level"`

	// Pruning: retain this many recent versions; 0 disables pruning.
	RetainVersions uint64 `yaml:"retain_versions"`
}

// Default returns the devnet defaults.
func Default() *Config {
	return &Config{
		ChainID:          "grug-devnet",
		GenesisPath:      "genesis.json",
		DataDir:          "data",
		DBBackend:        "goleveldb",
		ListenAddr:       "tcp://127.0.0.1:26658",
		ModuleCacheBytes: 2 << 30, // 2 GiB
		MetricsAddr:      ":9091",
		HealthAddr:       ":8081",
		LogLevel:         "info",
		RetainVersions:   0,
	}
}

// Load builds the config: defaults, then the YAML file at path (if path is
// non-empty and the file exists), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.ChainID == "" {
		return nil, fmt.Errorf("chain_id cannot be empty")
	}
	if cfg.ModuleCacheBytes <= 0 {
		return nil, fmt.Errorf("module_cache_bytes must be positive")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr(&c.ChainID, "GRUG_CHAIN_ID")
	setStr(&c.GenesisPath, "GRUG_GENESIS_PATH")
	setStr(&c.DataDir, "GRUG_DATA_DIR")
	setStr(&c.DBBackend, "GRUG_DB_BACKEND")
	setStr(&c.ListenAddr, "GRUG_LISTEN_ADDR")
	setInt(&c.ModuleCacheBytes, "GRUG_MODULE_CACHE_BYTES")
	setStr(&c.IndexerDatabaseURL, "GRUG_INDEXER_DATABASE_URL")
	setStr(&c.MetricsAddr, "GRUG_METRICS_ADDR")
	setStr(&c.HealthAddr, "GRUG_HEALTH_ADDR")
	setStr(&c.LogLevel, "GRUG_LOG_LEVEL")
	setUint64(&c.RetainVersions, "GRUG_RETAIN_VERSIONS")
}

func setStr(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*target = parsed
		}
	}
}

func setUint64(target *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			*target = parsed
		}
	}
}
