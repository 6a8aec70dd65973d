// Package config loads and persists fridactl settings. Settings come from
// a YAML file (default ~/.fridactl/config.yaml), overridable per key with
// FRIDACTL_* environment variables. A missing config file is not an error;
// every setting has a default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"fridactl/internal/frida"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// Config holds every user-tunable setting.
type Config struct {
	ADBPath        string `mapstructure:"adb_path" yaml:"adb_path"`
	DefaultDevice  string `mapstructure:"default_device" yaml:"default_device"`
	DefaultVersion string `mapstructure:"default_version" yaml:"default_version"`
	AutoStart      bool   `mapstructure:"auto_start" yaml:"auto_start"`
	Port           int    `mapstructure:"frida_port" yaml:"frida_port"`
	ServerDir      string `mapstructure:"server_dir" yaml:"server_dir"`
	DownloadDir    string `mapstructure:"download_dir" yaml:"download_dir"`
	KeepArchives   bool   `mapstructure:"keep_archives" yaml:"keep_archives"`
	CommandTimeout int    `mapstructure:"command_timeout" yaml:"command_timeout"`
	Verbose        bool   `mapstructure:"verbose" yaml:"verbose"`
}

// Timeout returns the adb command timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.CommandTimeout) * time.Second
}

func defaults() map[string]any {
	return map[string]any{
		"adb_path":        "adb",
		"default_device":  "",
		"default_version": "",
		"auto_start":      true,
		"frida_port":      frida.DefaultPort,
		"server_dir":      frida.DefaultServerDir,
		"download_dir":    DefaultDownloadDir(),
		"keep_archives":   false,
		"command_timeout": 30,
		"verbose":         false,
	}
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		ADBPath:        "adb",
		AutoStart:      true,
		Port:           frida.DefaultPort,
		ServerDir:      frida.DefaultServerDir,
		DownloadDir:    DefaultDownloadDir(),
		CommandTimeout: 30,
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	return filepath.Join(baseDir(), "config.yaml")
}

// DefaultDownloadDir returns the standard artifact cache location.
func DefaultDownloadDir() string {
	return filepath.Join(baseDir(), "downloads")
}

func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".fridactl")
}

// Load reads the config file at path, falling back to DefaultPath when
// path is empty. Environment variables of the form FRIDACTL_<KEY> override
// file values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("FRIDACTL")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SetValue updates a single key in the config file, coercing the string
// value to the key's type. Unknown keys are rejected.
func SetValue(path, key, value string) error {
	if path == "" {
		path = DefaultPath()
	}

	known := defaults()
	def, ok := known[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}

	var typed any
	switch def.(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("key %s expects a boolean: %w", key, err)
		}
		typed = b
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("key %s expects a number: %w", key, err)
		}
		typed = n
	default:
		typed = value
	}

	raw := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	raw[key] = typed
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
