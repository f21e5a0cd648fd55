// Package config loads and persists Conclave settings: the global JSON
// config file at the OS-standard path, panel definitions from YAML, and
// the auto-approve threshold consumed by the cost gate.
package config

import (
	"os"
	"path/filepath"
)

// Config is the materialised view of all settings after merging
// defaults, the config file, environment variables, and flags.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Consult ConsultConfig `mapstructure:"consult"`
	Judge   JudgeConfig   `mapstructure:"judge"`
	Panel   PanelConfig   `mapstructure:"panel"`
	Store   StoreConfig   `mapstructure:"store"`
	Web     WebConfig     `mapstructure:"web"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ConsultConfig holds the orchestration knobs.
type ConsultConfig struct {
	AlwaysAllowUnder    float64 `mapstructure:"alwaysAllowUnder"`
	MaxRounds           int     `mapstructure:"maxRounds"`
	Mode                string  `mapstructure:"mode"`
	ConfidenceThreshold float64 `mapstructure:"confidenceThreshold"`
	AllowCostOverruns   bool    `mapstructure:"allowCostOverruns"`
	OutputDir           string  `mapstructure:"outputDir"`
}

// JudgeConfig names the synthesis/verdict model.
type JudgeConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

// PanelConfig points at the panel definition file.
type PanelConfig struct {
	File string `mapstructure:"file"`
}

// StoreConfig selects the history backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// WebConfig configures the local status server.
type WebConfig struct {
	Addr string `mapstructure:"addr"`
}

// DefaultPath returns the OS-standard location of the global config
// file, e.g. ~/.config/conclave/config.json on Linux.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "conclave", "config.json"), nil
}

// DefaultStorePath returns the default history database location.
func DefaultStorePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "conclave", "history.db"), nil
}
