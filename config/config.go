package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MARKS"

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Redis   RedisConfig   `yaml:"redis" envconfig:"REDIS"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Chart   ChartConfig   `yaml:"chart" envconfig:"CHART"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	GinMode         string        `yaml:"gin_mode" envconfig:"GIN_MODE" default:"release"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
}

// RedisConfig controls the optional report cache
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	Addr     string        `yaml:"addr" envconfig:"ADDR" default:"127.0.0.1:6379"`
	Password string        `yaml:"password" envconfig:"PASSWORD"`
	DB       int           `yaml:"db" envconfig:"DB" default:"0"`
	TTL      time.Duration `yaml:"ttl" envconfig:"TTL" default:"10m"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"json"`
}

// ChartConfig sets the rendered pie chart size in pixels
type ChartConfig struct {
	Width  int `yaml:"width" envconfig:"WIDTH" default:"512"`
	Height int `yaml:"height" envconfig:"HEIGHT" default:"512"`
}

// Load reads configuration from a .env file, the environment and an optional
// YAML file named by MARKS_CONFIG_FILE. Environment values win over the file.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		fileConfig, err := loadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs fills fields that were not set in the environment from the
// file. envconfig applies defaults, so "set" means the variable is present.
func mergeConfigs(fileConfig, envConfig Config) Config {
	take := func(name string) bool {
		_, ok := os.LookupEnv(EnvPrefix + "_" + name)
		return !ok
	}

	if take("SERVER_PORT") && fileConfig.Server.Port != 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if take("SERVER_GIN_MODE") && fileConfig.Server.GinMode != "" {
		envConfig.Server.GinMode = fileConfig.Server.GinMode
	}
	if take("SERVER_READ_TIMEOUT") && fileConfig.Server.ReadTimeout != 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if take("SERVER_WRITE_TIMEOUT") && fileConfig.Server.WriteTimeout != 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if take("SERVER_SHUTDOWN_TIMEOUT") && fileConfig.Server.ShutdownTimeout != 0 {
		envConfig.Server.ShutdownTimeout = fileConfig.Server.ShutdownTimeout
	}
	if take("SERVER_MAX_UPLOAD_BYTES") && fileConfig.Server.MaxUploadBytes != 0 {
		envConfig.Server.MaxUploadBytes = fileConfig.Server.MaxUploadBytes
	}

	if take("REDIS_ENABLED") && fileConfig.Redis.Enabled {
		envConfig.Redis.Enabled = true
	}
	if take("REDIS_ADDR") && fileConfig.Redis.Addr != "" {
		envConfig.Redis.Addr = fileConfig.Redis.Addr
	}
	if take("REDIS_PASSWORD") && fileConfig.Redis.Password != "" {
		envConfig.Redis.Password = fileConfig.Redis.Password
	}
	if take("REDIS_DB") && fileConfig.Redis.DB != 0 {
		envConfig.Redis.DB = fileConfig.Redis.DB
	}
	if take("REDIS_TTL") && fileConfig.Redis.TTL != 0 {
		envConfig.Redis.TTL = fileConfig.Redis.TTL
	}

	if take("LOGGING_LEVEL") && fileConfig.Logging.Level != "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if take("LOGGING_FORMAT") && fileConfig.Logging.Format != "" {
		envConfig.Logging.Format = fileConfig.Logging.Format
	}

	if take("CHART_WIDTH") && fileConfig.Chart.Width != 0 {
		envConfig.Chart.Width = fileConfig.Chart.Width
	}
	if take("CHART_HEIGHT") && fileConfig.Chart.Height != 0 {
		envConfig.Chart.Height = fileConfig.Chart.Height
	}

	return envConfig
}

// validate checks the configuration for values the server cannot run with
func (c *Config) validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("unknown gin mode %q", c.Server.GinMode))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max upload bytes must be positive"))
	}
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis address is required when the cache is enabled"))
		}
		if c.Redis.TTL <= 0 {
			errs = append(errs, errors.New("redis TTL must be positive"))
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	if c.Chart.Width < 64 || c.Chart.Height < 64 {
		errs = append(errs, fmt.Errorf("chart size %dx%d is too small", c.Chart.Width, c.Chart.Height))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
