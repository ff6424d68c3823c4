package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".parley"

	serverURLKey      = "server.url"
	storageDirKey     = "storage.dir"
	healthTimeoutKey  = "timeouts.health"
	startupTimeoutKey = "timeouts.startup"

	defaultServerURL = "http://127.0.0.1:8787"

	configFileMode = 0o600
	configDirMode  = 0o700
)

// Config is the client configuration resolved from config.toml, environment
// overrides (PARLEY_*) and defaults.
type Config struct {
	ServerURL      string
	StorageDir     string
	HealthTimeout  time.Duration
	StartupTimeout time.Duration
}

// Load resolves the configuration. A missing config file is not an error;
// defaults apply.
func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetEnvPrefix("PARLEY")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	cfg.SetDefault(serverURLKey, defaultServerURL)
	cfg.SetDefault(storageDirKey, filepath.Join(homeDir, configDir, "storage"))
	cfg.SetDefault(healthTimeoutKey, 10*time.Second)
	cfg.SetDefault(startupTimeoutKey, 15*time.Second)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	serverURL := cfg.GetString(serverURLKey)
	if serverURL == "" {
		return Config{}, errors.New("server url is empty")
	}

	return Config{
		ServerURL:      serverURL,
		StorageDir:     cfg.GetString(storageDirKey),
		HealthTimeout:  cfg.GetDuration(healthTimeoutKey),
		StartupTimeout: cfg.GetDuration(startupTimeoutKey),
	}, nil
}

type fileSchema struct {
	Server struct {
		URL string `toml:"url"`
	} `toml:"server"`
	Storage struct {
		Dir string `toml:"dir"`
	} `toml:"storage"`
	Timeouts struct {
		Health  string `toml:"health"`
		Startup string `toml:"startup"`
	} `toml:"timeouts"`
}

// WriteDefaultFile writes a config.toml for the given configuration unless
// one already exists at path.
func WriteDefaultFile(path string, cfg Config) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	var schema fileSchema
	schema.Server.URL = cfg.ServerURL
	schema.Storage.Dir = cfg.StorageDir
	schema.Timeouts.Health = cfg.HealthTimeout.String()
	schema.Timeouts.Startup = cfg.StartupTimeout.String()

	data, err := toml.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, configFileMode); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
