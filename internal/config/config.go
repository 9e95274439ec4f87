// Package config provides configuration management for reclaim.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultListenAddr is the web dashboard bind address.
	DefaultListenAddr = ":8972"
	// DefaultClusterSimilarity is the minimum ssdeep score for cluster membership.
	DefaultClusterSimilarity = 70
	// DefaultStdDevThreshold marks files this many standard deviations above mean size.
	DefaultStdDevThreshold = 2.0
)

// Config holds all runtime settings.
type Config struct {
	ListenAddr        string  `yaml:"listen_addr"`
	TopN              int     `yaml:"top_n"`
	StdDevThreshold   float64 `yaml:"std_dev_threshold"`
	ClusterSimilarity int     `yaml:"cluster_similarity"`
	MinClusterSize    int     `yaml:"min_cluster_size"`
	BatchSize         int     `yaml:"batch_size"`
	HashMinSize       uint64  `yaml:"hash_min_size"`
	HashMaxSize       uint64  `yaml:"hash_max_size"`
	HistoryDBPath     string  `yaml:"history_db_path"`
	WatchDebounceMS   int     `yaml:"watch_debounce_ms"`
}

var (
	cached   *Config
	cachedMu sync.Mutex
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:        DefaultListenAddr,
		TopN:              20,
		StdDevThreshold:   DefaultStdDevThreshold,
		ClusterSimilarity: DefaultClusterSimilarity,
		MinClusterSize:    2,
		BatchSize:         1000,
		HashMinSize:       1024 * 1024,
		HashMaxSize:       1024 * 1024 * 1024,
		HistoryDBPath:     DBPath(),
		WatchDebounceMS:   2000,
	}
}

// DataDir returns the per-user data directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".reclaim")
}

// DBPath returns the history database path.
func DBPath() string {
	return filepath.Join(DataDir(), "reclaim.db")
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.yaml")
}

// EnsureDataDir creates the data directory if missing.
func EnsureDataDir() error {
	if err := os.MkdirAll(DataDir(), 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write default settings: %w", err)
	}
	return nil
}

// EnsureAll initializes the data directory and settings file.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// Load reads the settings file over the defaults. A missing or unparseable
// file yields the defaults rather than an error, so a broken settings file
// never blocks a scan.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default(), nil
	}

	applyEnv(cfg)
	return cfg, nil
}

// Get returns the cached configuration, loading it on first use.
func Get() *Config {
	cachedMu.Lock()
	defer cachedMu.Unlock()
	if cached == nil {
		cached, _ = Load()
	}
	return cached
}

// GetListenAddr resolves the dashboard address, env overriding settings.
func GetListenAddr() string {
	if addr := os.Getenv("RECLAIM_LISTEN_ADDR"); addr != "" {
		return addr
	}
	return Get().ListenAddr
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RECLAIM_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("RECLAIM_CLUSTER_SIMILARITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ClusterSimilarity = n
		}
	}
	if v := os.Getenv("RECLAIM_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TopN = n
		}
	}
}
