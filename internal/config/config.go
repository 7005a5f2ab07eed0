package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for flowc
type Config struct {
	// Namespace is the default namespace applied to converted functions
	Namespace string `yaml:"namespace" env:"FLOWC_NAMESPACE"`

	// FunctionName is the default function name when none is given
	FunctionName string `yaml:"function_name" env:"FLOWC_FUNCTION_NAME"`

	// Indent is the JSON indentation width for converted output
	Indent int `yaml:"indent" env:"FLOWC_INDENT"`

	// CacheEnabled toggles the conversion result cache
	CacheEnabled bool `yaml:"cache_enabled" env:"FLOWC_CACHE_ENABLED"`

	// CachePath is where the conversion cache persists between runs
	CachePath string `yaml:"cache_path" env:"FLOWC_CACHE_PATH"`

	// CacheMaxEntries caps the number of cached conversions
	CacheMaxEntries int `yaml:"cache_max_entries" env:"FLOWC_CACHE_MAX_ENTRIES"`

	// Extensions are the file extensions batch conversion picks up
	Extensions []string `yaml:"extensions" env:"FLOWC_EXTENSIONS"`

	// Logging
	Verbose bool `yaml:"verbose" env:"FLOWC_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Namespace:       "",
		FunctionName:    "eventHandler",
		Indent:          2,
		CacheEnabled:    true,
		CachePath:       defaultCachePath(),
		CacheMaxEntries: 10000,
		Extensions:      []string{".js", ".mjs"},
		Verbose:         false,
	}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowc/cache.msgpack"
	}
	return filepath.Join(home, ".flowc", "cache.msgpack")
}

// globalConfigFilePath returns the global config file path (~/.flowc/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowc/config.yaml"
	}
	return filepath.Join(home, ".flowc", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.flowc/config.yaml)
func projectConfigFilePath() string {
	return ".flowc/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Project-level config (./.flowc/config.yaml)
// 2. Environment variables
// 3. Global config (~/.flowc/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// 1. Load global config (~/.flowc/config.yaml)
	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	// 2. Load project-level config (./.flowc/config.yaml) - overrides global
	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	// 3. Override with environment variables
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// Write to file with 0644 permissions
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FLOWC_NAMESPACE"); v != "" {
		cfg.Namespace = v
	}
	if v := os.Getenv("FLOWC_FUNCTION_NAME"); v != "" {
		cfg.FunctionName = v
	}
	if v := os.Getenv("FLOWC_INDENT"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Indent = i
		}
	}
	if v := os.Getenv("FLOWC_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("FLOWC_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("FLOWC_CACHE_MAX_ENTRIES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheMaxEntries = i
		}
	}
	if v := os.Getenv("FLOWC_VERBOSE"); v != "" {
		cfg.Verbose = v == "true" || v == "1" || v == "yes"
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if c.FunctionName == "" {
		return fmt.Errorf("function_name must not be empty")
	}
	if c.Indent < 0 || c.Indent > 8 {
		return fmt.Errorf("indent must be between 0 and 8")
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("cache_max_entries must be positive")
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions must list at least one file extension")
	}
	for _, ext := range c.Extensions {
		if ext == "" || ext[0] != '.' {
			return fmt.Errorf("invalid extension %q: must start with '.'", ext)
		}
	}
	return nil
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
