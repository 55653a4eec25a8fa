package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendFS       = "fs"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds the unified application configuration
type Config struct {
	Workspace    string `yaml:"workspace"`
	Backend      string `yaml:"backend"`
	DSN          string `yaml:"dsn,omitempty"`
	Addr         string `yaml:"addr"`
	RedisAddr    string `yaml:"redis_addr,omitempty"`
	RedisChannel string `yaml:"redis_channel,omitempty"`
	MQTTBroker   string `yaml:"mqtt_broker,omitempty"`
	MQTTTopic    string `yaml:"mqtt_topic,omitempty"`
	LogLevel     string `yaml:"log_level"`
	LogDir       string `yaml:"log_dir,omitempty"`
	DefaultBoard string `yaml:"default_board,omitempty"`
	DefaultView  string `yaml:"default_view,omitempty"`
	UserID       string `yaml:"user_id,omitempty"`
}

// CLIFlags holds parsed CLI flags. Empty fields are unset.
type CLIFlags struct {
	Workspace string
	Backend   string
	DSN       string
	Addr      string
	Board     string
	View      string
}

// Load loads configuration with priority: CLI flags > env vars > config file > default
func Load(flags CLIFlags) (*Config, error) {
	cfg := &Config{
		Backend:      BackendFS,
		Addr:         ":8080",
		RedisChannel: "cardview:refresh",
		MQTTTopic:    "cardview/refresh",
		LogLevel:     "info",
	}

	// Priority 3: config file
	configPath, err := ConfigPath()
	if err == nil {
		fileConfig, err := loadConfigFile(configPath)
		switch {
		case err == nil:
			merge(cfg, fileConfig)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
	}

	// Priority 2: Environment variables override config file
	merge(cfg, &Config{
		Workspace:    os.Getenv("CARDVIEW_WORKSPACE"),
		Backend:      os.Getenv("CARDVIEW_BACKEND"),
		DSN:          os.Getenv("CARDVIEW_DSN"),
		Addr:         os.Getenv("CARDVIEW_ADDR"),
		RedisAddr:    os.Getenv("CARDVIEW_REDIS_ADDR"),
		MQTTBroker:   os.Getenv("CARDVIEW_MQTT_BROKER"),
		LogLevel:     os.Getenv("CARDVIEW_LOG_LEVEL"),
		DefaultBoard: os.Getenv("CARDVIEW_BOARD"),
	})

	// Priority 1: CLI flags override everything
	merge(cfg, &Config{
		Workspace:    flags.Workspace,
		Backend:      flags.Backend,
		DSN:          flags.DSN,
		Addr:         flags.Addr,
		DefaultBoard: flags.Board,
		DefaultView:  flags.View,
	})

	// Default directory if nothing configured
	if cfg.Workspace == "" {
		defaultDir, err := GetDefaultDir()
		if err != nil {
			return nil, err
		}
		cfg.Workspace = defaultDir
	}
	cfg.Workspace = expandPath(cfg.Workspace)
	cfg.LogDir = expandPath(cfg.LogDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge copies every non-empty field of src over dst.
func merge(dst, src *Config) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.Workspace, src.Workspace)
	set(&dst.Backend, src.Backend)
	set(&dst.DSN, src.DSN)
	set(&dst.Addr, src.Addr)
	set(&dst.RedisAddr, src.RedisAddr)
	set(&dst.RedisChannel, src.RedisChannel)
	set(&dst.MQTTBroker, src.MQTTBroker)
	set(&dst.MQTTTopic, src.MQTTTopic)
	set(&dst.LogLevel, src.LogLevel)
	set(&dst.LogDir, src.LogDir)
	set(&dst.DefaultBoard, src.DefaultBoard)
	set(&dst.DefaultView, src.DefaultView)
	set(&dst.UserID, src.UserID)
}

// Validate checks the backend settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFS:
	case BackendSQLite:
		if c.DSN == "" {
			c.DSN = filepath.Join(c.Workspace, "cardview.db")
		}
	case BackendPostgres:
		if c.DSN == "" {
			return fmt.Errorf("backend %s needs a dsn", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q (want fs, sqlite or postgres)", c.Backend)
	}
	return nil
}

// GetDefaultDir returns the default directory path
func GetDefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, "cardview"), nil
}

// ConfigPath returns the path to the configuration file. CARDVIEW_CONFIG
// overrides the default location.
func ConfigPath() (string, error) {
	if p := os.Getenv("CARDVIEW_CONFIG"); p != "" {
		return expandPath(p), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "cardview", "config.yaml"), nil
}

// loadConfigFile loads configuration from the settings file
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var settings Config
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// EnsureConfigFile creates the config file with defaults if it doesn't exist
func EnsureConfigFile() error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	defaultDir, err := GetDefaultDir()
	if err != nil {
		return err
	}

	settings := Config{
		Workspace: defaultDir,
		Backend:   BackendFS,
		Addr:      ":8080",
		LogLevel:  "info",
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
