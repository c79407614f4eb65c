// Package config loads the user-level tokf configuration file (spec.md
// §4.9: "user-level directory under the user's configuration home", plus
// the one environment variable that relocates all user paths).
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvUserDirOverride relocates every user-level path (filters,
// discovery cache) to a single root (spec.md §6: "one variable to
// relocate all user-level paths").
const EnvUserDirOverride = "TOKF_USER_DIR"

// EnvPreserveColor forces preserve-color mode regardless of what the
// matched filter specifies (spec.md §6: "one variable to force
// preservation of ANSI color").
const EnvPreserveColor = "TOKF_PRESERVE_COLOR"

// Config is the user's config.yaml: settings that apply across every
// invocation rather than being tied to one filter.
type Config struct {
	PreserveColor  bool     `yaml:"preserve_color"`
	NoLog          bool     `yaml:"no_log"`
	LogDir         string   `yaml:"log_dir"`
	DisabledFilters []string `yaml:"disabled_filters"`
}

// UserDir returns the directory holding the user's filters/, cache,
// and config.yaml, honoring EnvUserDirOverride before falling back to
// os.UserConfigDir()/tokf.
func UserDir() (string, error) {
	if override := os.Getenv(EnvUserDirOverride); override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "tokf"), nil
}

// Load reads config.yaml from UserDir. A missing file yields a
// zero-value Config, not an error — the tool is fully usable with no
// config file present.
func Load() (*Config, error) {
	dir, err := UserDir()
	if err != nil {
		return &Config{}, nil
	}
	raw, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PreserveColorActive reports whether preserve-color should apply
// irrespective of the matched filter's own setting.
func (c *Config) PreserveColorActive() bool {
	if os.Getenv(EnvPreserveColor) != "" {
		return true
	}
	return c != nil && c.PreserveColor
}
