// Package config loads and validates docpin configuration.
//
// Configuration is layered: built-in defaults, then the project file
// (.docpin.yaml at the project root), then DOCPIN_* environment
// variables with the highest precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the per-project configuration file.
const ProjectFileName = ".docpin.yaml"

// Config represents the complete docpin configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Pool    PoolConfig    `yaml:"pool" json:"pool"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// IndexConfig configures content indexing and search.
type IndexConfig struct {
	// Exclude specifies glob patterns skipped during project walks.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// MaxFileSizeBytes is the largest file the extractor will open (default: 10MB).
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes" json:"max_file_size_bytes"`

	// Workers bounds concurrent per-file search/extraction (0 = pool size).
	Workers int `yaml:"workers" json:"workers"`

	// CacheSize is the in-memory LRU capacity for content index entries.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// PoolConfig configures the bounded storage-handle pool.
type PoolConfig struct {
	// Size is the concurrency cap K for storage handles (default: 10).
	Size int `yaml:"size" json:"size"`

	// AcquireTimeout bounds how long an acquire waits for a free slot.
	AcquireTimeout time.Duration `yaml:"acquire_timeout" json:"acquire_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Exclude: []string{
				".git/**", "node_modules/**", ".docpin/**",
				"*.tmp", "~$*",
			},
			MaxFileSizeBytes: 10 * 1024 * 1024,
			Workers:          0,
			CacheSize:        256,
		},
		Pool: PoolConfig{
			Size:           10,
			AcquireTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the configuration for the project rooted at dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile merges the project config file into cfg if it exists.
func (c *Config) loadFromFile(dir string) error {
	path := filepath.Join(dir, ProjectFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies DOCPIN_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCPIN_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pool.Size = n
		}
	}
	if v := os.Getenv("DOCPIN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOCPIN_MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Index.MaxFileSizeBytes = n
		}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Pool.Size < 1 {
		return fmt.Errorf("pool.size must be at least 1, got %d", c.Pool.Size)
	}
	if c.Pool.AcquireTimeout <= 0 {
		return fmt.Errorf("pool.acquire_timeout must be positive, got %s", c.Pool.AcquireTimeout)
	}
	if c.Index.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("index.max_file_size_bytes must be positive, got %d", c.Index.MaxFileSizeBytes)
	}
	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must not be negative, got %d", c.Index.Workers)
	}
	if c.Index.CacheSize < 1 {
		return fmt.Errorf("index.cache_size must be at least 1, got %d", c.Index.CacheSize)
	}
	return nil
}

// WriteYAML persists the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// FindProjectRoot walks up from startDir looking for a .git directory or
// a .docpin.yaml file. Returns startDir (absolute) if neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ProjectFileName)) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// DataDir returns the docpin data directory for a project root.
func DataDir(root string) string {
	return filepath.Join(root, ".docpin")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
