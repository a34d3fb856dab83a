package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "STICKYNOTES"

	DefaultMaxBackups  = 20
	DefaultColumnWidth = 40
)

// Settings holds user-configurable settings.
type Settings struct {
	DataDir     string `mapstructure:"data_dir"`
	MaxBackups  int    `mapstructure:"max_backups"`
	LogLevel    string `mapstructure:"log_level"`
	ColumnWidth int    `mapstructure:"column_width"`
}

// NewViper returns a viper instance with defaults, env binding and config
// search paths set. Callers may bind flags on it before Load.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "sticky-notes"))
	}

	v.SetDefault("data_dir", "")
	v.SetDefault("max_backups", DefaultMaxBackups)
	v.SetDefault("log_level", "info")
	v.SetDefault("column_width", DefaultColumnWidth)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	return v
}

// Load reads .env, the optional config file and the environment into Settings.
// A missing config file is not an error.
func Load(v *viper.Viper) (Settings, error) {
	// .env is optional
	_ = godotenv.Load()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}

	if s.MaxBackups <= 0 {
		s.MaxBackups = DefaultMaxBackups
	}
	if s.ColumnWidth < 20 {
		s.ColumnWidth = DefaultColumnWidth
	}
	return s, nil
}
