package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// Load resolves configuration from the embedded defaults, an optional
// config file, and REWIND_* environment variables, in that order of
// precedence (later layers win). An empty cfgFile falls back to
// $XDG_CONFIG_HOME/rewind/config.yaml when that file exists.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Layer 1: embedded defaults. Parsed through yaml.v3 first so a broken
	// defaults file fails loudly instead of half-applying.
	var defaults map[string]any
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return nil, fmt.Errorf("merge defaults: %w", err)
	}

	// Layer 2: config file.
	if cfgFile == "" {
		cfgFile = defaultConfigPath()
	}
	if cfgFile != "" {
		data, err := os.ReadFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("merge config file %s: %w", cfgFile, err)
		}
	}

	// Layer 3: environment variables (REWIND_LASTFM_API_KEY etc).
	v.SetEnvPrefix("REWIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v, defaults, "")

	cfg := &Config{}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	SetConfig(cfg)
	return cfg, nil
}

// GetConfig returns the currently loaded configuration, or nil before Load.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// SetConfig replaces the current configuration. Exposed for tests.
func SetConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// defaultConfigPath returns the user config file when present.
func defaultConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}

	path := filepath.Join(base, "rewind", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// bindEnvKeys registers every known config key with viper so AutomaticEnv
// resolves nested keys (viper only consults the env for keys it has seen).
func bindEnvKeys(v *viper.Viper, node map[string]any, prefix string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			bindEnvKeys(v, child, full)
			continue
		}
		_ = v.BindEnv(full)
	}
}
