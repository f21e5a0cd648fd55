package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader merges configuration from flags, environment, the config file,
// and defaults.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a loader with its own viper instance.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "CONCLAVE",
	}
}

// NewLoaderWithViper creates a loader over an existing viper instance so
// CLI flag bindings participate in precedence.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "CONCLAVE",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load merges all sources. Precedence, highest to lowest:
// 1. CLI flags (bound via viper.BindPFlag)
// 2. Environment variables (CONCLAVE_*)
// 3. Config file (explicit path, ./conclave.json, or the user config dir)
// 4. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("json")
		l.v.AddConfigPath(".")
		if base, err := os.UserConfigDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(base, "conclave"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// A corrupted or unreadable file falls back to defaults; the
			// cost gate treats the same file as empty on its own reads.
			if l.configFile != "" {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("consult.alwaysAllowUnder", 0.50)
	l.v.SetDefault("consult.maxRounds", 4)
	l.v.SetDefault("consult.mode", "converge")
	l.v.SetDefault("consult.confidenceThreshold", 0.90)
	l.v.SetDefault("consult.allowCostOverruns", false)
	l.v.SetDefault("consult.outputDir", ".")

	l.v.SetDefault("judge.provider", "openai")
	l.v.SetDefault("judge.model", "gpt-4o")

	l.v.SetDefault("panel.file", "")

	l.v.SetDefault("store.backend", "sqlite")
	l.v.SetDefault("store.path", "")

	l.v.SetDefault("web.addr", "127.0.0.1:7466")
}

// ConfigFile returns the config file path actually used, if any.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// IsSet checks if a key has been set by any source.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// AllSettings returns all settings as a map.
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}
