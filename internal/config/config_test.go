package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Namespace", cfg.Namespace, ""},
		{"FunctionName", cfg.FunctionName, "eventHandler"},
		{"Indent", cfg.Indent, 2},
		{"CacheEnabled", cfg.CacheEnabled, true},
		{"CacheMaxEntries", cfg.CacheMaxEntries, 10000},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	if len(cfg.Extensions) != 2 || cfg.Extensions[0] != ".js" || cfg.Extensions[1] != ".mjs" {
		t.Errorf("DefaultConfig().Extensions = %v, want [.js .mjs]", cfg.Extensions)
	}
	if cfg.CachePath == "" {
		t.Error("DefaultConfig().CachePath should not be empty")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			FunctionName:    "eventHandler",
			Indent:          2,
			CacheMaxEntries: 100,
			Extensions:      []string{".js"},
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:        "empty function name",
			mutate:      func(c *Config) { c.FunctionName = "" },
			wantErr:     true,
			errContains: "function_name",
		},
		{
			name:        "negative indent",
			mutate:      func(c *Config) { c.Indent = -1 },
			wantErr:     true,
			errContains: "indent",
		},
		{
			name:        "indent too large",
			mutate:      func(c *Config) { c.Indent = 9 },
			wantErr:     true,
			errContains: "indent",
		},
		{
			name:        "zero cache entries",
			mutate:      func(c *Config) { c.CacheMaxEntries = 0 },
			wantErr:     true,
			errContains: "cache_max_entries",
		},
		{
			name:        "no extensions",
			mutate:      func(c *Config) { c.Extensions = nil },
			wantErr:     true,
			errContains: "extensions",
		},
		{
			name:        "extension without dot",
			mutate:      func(c *Config) { c.Extensions = []string{"js"} },
			wantErr:     true,
			errContains: "must start with '.'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error containing %q, got nil", tt.errContains)
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Error = %q, should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		configYAML  string
		checkCfg    func(*testing.T, *Config)
		wantErr     bool
		errContains string
	}{
		{
			name: "load valid config from file",
			configYAML: `
namespace: MyApp.Handlers
function_name: onClick
indent: 4
cache_enabled: false
cache_path: /tmp/flowc-cache.msgpack
cache_max_entries: 500
extensions:
  - .js
  - .mjs
  - .cjs
verbose: true
`,
			checkCfg: func(t *testing.T, cfg *Config) {
				if cfg.Namespace != "MyApp.Handlers" {
					t.Errorf("Namespace = %v, want MyApp.Handlers", cfg.Namespace)
				}
				if cfg.FunctionName != "onClick" {
					t.Errorf("FunctionName = %v, want onClick", cfg.FunctionName)
				}
				if cfg.Indent != 4 {
					t.Errorf("Indent = %v, want 4", cfg.Indent)
				}
				if cfg.CacheEnabled {
					t.Error("CacheEnabled = true, want false")
				}
				if cfg.CachePath != "/tmp/flowc-cache.msgpack" {
					t.Errorf("CachePath = %v, want /tmp/flowc-cache.msgpack", cfg.CachePath)
				}
				if cfg.CacheMaxEntries != 500 {
					t.Errorf("CacheMaxEntries = %v, want 500", cfg.CacheMaxEntries)
				}
				if len(cfg.Extensions) != 3 {
					t.Errorf("Extensions = %v, want 3 entries", cfg.Extensions)
				}
				if !cfg.Verbose {
					t.Error("Verbose = false, want true")
				}
			},
			wantErr: false,
		},
		{
			name: "partial config keeps defaults",
			configYAML: `
namespace: App
`,
			checkCfg: func(t *testing.T, cfg *Config) {
				if cfg.Namespace != "App" {
					t.Errorf("Namespace = %v, want App", cfg.Namespace)
				}
				if cfg.FunctionName != "eventHandler" {
					t.Errorf("FunctionName = %v, want eventHandler (default)", cfg.FunctionName)
				}
				if cfg.Indent != 2 {
					t.Errorf("Indent = %v, want 2 (default)", cfg.Indent)
				}
			},
			wantErr: false,
		},
		{
			name: "invalid yaml",
			configYAML: `
namespace: App
  invalid: indent
`,
			wantErr:     true,
			errContains: "failed to parse",
		},
		{
			name: "invalid values rejected",
			configYAML: `
function_name: ""
`,
			wantErr:     true,
			errContains: "function_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.configYAML), 0644)
			if err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}

			cfg, err := LoadFromFile(configPath)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error containing %q, got nil", tt.errContains)
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Error = %q, should contain %q", err.Error(), tt.errContains)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if tt.checkCfg != nil {
				tt.checkCfg(t, cfg)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	envVars := []string{
		"FLOWC_NAMESPACE",
		"FLOWC_FUNCTION_NAME",
		"FLOWC_INDENT",
		"FLOWC_CACHE_ENABLED",
		"FLOWC_CACHE_PATH",
		"FLOWC_CACHE_MAX_ENTRIES",
		"FLOWC_VERBOSE",
	}
	clearEnv := func() {
		for _, k := range envVars {
			os.Unsetenv(k)
		}
	}
	t.Cleanup(clearEnv)

	tests := []struct {
		name    string
		envVars map[string]string
		check   func(*testing.T, *Config)
	}{
		{
			name: "override namespace and function name",
			envVars: map[string]string{
				"FLOWC_NAMESPACE":     "Env.Namespace",
				"FLOWC_FUNCTION_NAME": "envHandler",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Namespace != "Env.Namespace" {
					t.Errorf("Namespace = %v, want Env.Namespace", cfg.Namespace)
				}
				if cfg.FunctionName != "envHandler" {
					t.Errorf("FunctionName = %v, want envHandler", cfg.FunctionName)
				}
			},
		},
		{
			name: "override numeric values",
			envVars: map[string]string{
				"FLOWC_INDENT":            "4",
				"FLOWC_CACHE_MAX_ENTRIES": "250",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Indent != 4 {
					t.Errorf("Indent = %v, want 4", cfg.Indent)
				}
				if cfg.CacheMaxEntries != 250 {
					t.Errorf("CacheMaxEntries = %v, want 250", cfg.CacheMaxEntries)
				}
			},
		},
		{
			name: "override booleans with various true values",
			envVars: map[string]string{
				"FLOWC_VERBOSE":       "yes",
				"FLOWC_CACHE_ENABLED": "1",
			},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.Verbose {
					t.Error("Verbose = false, want true (from 'yes')")
				}
				if !cfg.CacheEnabled {
					t.Error("CacheEnabled = false, want true (from '1')")
				}
			},
		},
		{
			name: "disable cache via env",
			envVars: map[string]string{
				"FLOWC_CACHE_ENABLED": "false",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.CacheEnabled {
					t.Error("CacheEnabled = true, want false")
				}
			},
		},
		{
			name: "cache path override",
			envVars: map[string]string{
				"FLOWC_CACHE_PATH": "/my/custom/cache.msgpack",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.CachePath != "/my/custom/cache.msgpack" {
					t.Errorf("CachePath = %v, want /my/custom/cache.msgpack", cfg.CachePath)
				}
			},
		},
		{
			name: "invalid int ignored",
			envVars: map[string]string{
				"FLOWC_INDENT": "not-an-int",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Indent != 2 {
					t.Errorf("Indent = %v, want 2 (default)", cfg.Indent)
				}
			},
		},
		{
			name: "negative int ignored",
			envVars: map[string]string{
				"FLOWC_CACHE_MAX_ENTRIES": "-5",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.CacheMaxEntries != 10000 {
					t.Errorf("CacheMaxEntries = %v, want 10000 (default)", cfg.CacheMaxEntries)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg := DefaultConfig()
			applyEnvOverrides(cfg)

			tt.check(t, cfg)
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"0", 0},
		{"100", 100},
		{"512", 512},
		{"invalid", 0},
		{"", 0},
		{"abc123", 0},
		{"10.5", 10}, // Will parse 10 from 10.5
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseInt(tt.input)
			if result != tt.expected {
				t.Errorf("parseInt(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestConfigSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := &Config{
		Namespace:       "Shop.Checkout",
		FunctionName:    "onSubmit",
		Indent:          4,
		CacheEnabled:    true,
		CachePath:       "/tmp/cache.msgpack",
		CacheMaxEntries: 2000,
		Extensions:      []string{".js"},
	}

	err := cfg.Save(configPath)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatalf("Config file was not created at %s", configPath)
	}

	// Verify roundtrip: load and compare
	loadedCfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	if loadedCfg.Namespace != cfg.Namespace {
		t.Errorf("Namespace mismatch: got %s, want %s", loadedCfg.Namespace, cfg.Namespace)
	}
	if loadedCfg.FunctionName != cfg.FunctionName {
		t.Errorf("FunctionName mismatch: got %s, want %s", loadedCfg.FunctionName, cfg.FunctionName)
	}
	if loadedCfg.Indent != cfg.Indent {
		t.Errorf("Indent mismatch: got %d, want %d", loadedCfg.Indent, cfg.Indent)
	}
	if loadedCfg.CacheMaxEntries != cfg.CacheMaxEntries {
		t.Errorf("CacheMaxEntries mismatch: got %d, want %d", loadedCfg.CacheMaxEntries, cfg.CacheMaxEntries)
	}
}

func TestConfigSaveCreatesParentDirs(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "dirs", "config.yaml")

	cfg := DefaultConfig()

	err := cfg.Save(configPath)
	if err != nil {
		t.Fatalf("Save() failed to create parent dirs: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatalf("Config file was not created at %s", configPath)
	}
}
