package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds tabtray's settings. Precedence, lowest first: defaults,
// config file, TABTRAY_* environment variables, command-line flags.
type Config struct {
	DBPath  string
	LogDir  string
	Port    int
	Profile string
	Live    bool
}

const (
	defaultConfigPath = "~/.config/tabtray/config.toml"
	defaultDBPath     = "~/.local/share/tabtray/tabtray.db"
	defaultLogDir     = "~/.local/share/tabtray/logs"
	defaultPort       = 19191
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath: mustExpand(defaultDBPath),
		LogDir: mustExpand(defaultLogDir),
		Port:   defaultPort,
	}
}

// Load reads the config file at path (or the default location when path
// is empty) and applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		var raw struct {
			DBPath  string `toml:"db_path"`
			LogDir  string `toml:"log_dir"`
			Port    int    `toml:"port"`
			Profile string `toml:"profile"`
			Live    bool   `toml:"live"`
		}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if p := strings.TrimSpace(raw.DBPath); p != "" {
			cfg.DBPath = mustExpand(p)
		}
		if p := strings.TrimSpace(raw.LogDir); p != "" {
			cfg.LogDir = mustExpand(p)
		}
		if raw.Port != 0 {
			cfg.Port = raw.Port
		}
		cfg.Profile = strings.TrimSpace(raw.Profile)
		cfg.Live = raw.Live
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("TABTRAY_DB"); v != "" {
		c.DBPath = mustExpand(v)
	}
	if v := getenv("TABTRAY_LOG_DIR"); v != "" {
		c.LogDir = mustExpand(v)
	}
	if v := getenv("TABTRAY_PROFILE"); v != "" {
		c.Profile = v
	}
	if v := getenv("TABTRAY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("TABTRAY_PORT: invalid port %q", v)
		}
		c.Port = port
	}
	if v := getenv("TABTRAY_LIVE"); v != "" {
		live, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TABTRAY_LIVE: %w", err)
		}
		c.Live = live
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		if env := os.Getenv("TABTRAY_CONFIG"); env != "" {
			return ExpandPath(env)
		}
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ to the home directory and makes path absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
