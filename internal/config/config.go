package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "RITUALOS"

type Config struct {
	Port     string        `mapstructure:"port"`
	DBPath   string        `mapstructure:"db_path"`
	LogLevel string        `mapstructure:"log_level"`
	LogFile  string        `mapstructure:"log_file"`
	JWT      JWTConfig     `mapstructure:"jwt"`
	Shutdown time.Duration `mapstructure:"shutdown_timeout"`
	// AllowedOrigin is a comma-separated list of hosts allowed to open
	// cross-origin websocket connections.
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

type JWTConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// Load reads configuration from, in increasing priority: defaults, the
// optional config file, a .env file in the working directory, and
// RITUALOS_* environment variables (RITUALOS_JWT_SECRET for jwt.secret).
// An empty path searches for ritualos.yaml in the working directory.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "ritualos.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.token_ttl", 30*24*time.Hour)
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("allowed_origin", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ritualos")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 16 {
		return errors.New("jwt secret must be at least 16 characters (set RITUALOS_JWT_SECRET)")
	}
	if c.JWT.TokenTTL <= 0 {
		return errors.New("jwt token_ttl must be positive")
	}
	if c.Port == "" {
		return errors.New("port is required")
	}
	return nil
}

// Origins splits AllowedOrigin into trimmed, non-empty host patterns.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
