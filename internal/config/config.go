package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database   DatabaseConfig
	GRPC       GRPCConfig
	HTTP       HTTPConfig
	Auth       AuthConfig
	Simulation SimulationConfig
	Log        LogConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string // gRPC server listen address (e.g., ":50051")
}

// HTTPConfig contains settings of the public HTTP and websocket listener.
type HTTPConfig struct {
	Address string
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string // JWT signing secret
}

// SimulationConfig tunes the simulation engine and its fan-out.
type SimulationConfig struct {
	Interval         time.Duration // pause between telemetry samples
	SubscriberBuffer int           // events queued per live subscriber
	ZoneCacheTTL     time.Duration // 0 disables the active zone cache
}

// LogConfig selects the log level and an optional rotated log file.
type LogConfig struct {
	Level string
	File  string
}

const devSecret = "dev-secret-change-me"

func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("DB_PATH", "flights.db")
	v.SetDefault("GRPC_ADDRESS", ":50051")
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SIM_INTERVAL", "5s")
	v.SetDefault("SUBSCRIBER_BUFFER", 64)
	v.SetDefault("ZONE_CACHE_TTL", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

func build(v *viper.Viper) (*Config, error) {
	interval, err := duration(v, "SIM_INTERVAL")
	if err != nil {
		return nil, err
	}
	ttl, err := duration(v, "ZONE_CACHE_TTL")
	if err != nil {
		return nil, err
	}
	buffer := v.GetInt("SUBSCRIBER_BUFFER")
	if buffer <= 0 {
		return nil, fmt.Errorf("SUBSCRIBER_BUFFER must be positive, got %q", v.GetString("SUBSCRIBER_BUFFER"))
	}
	return &Config{
		Database:   DatabaseConfig{Path: v.GetString("DB_PATH")},
		GRPC:       GRPCConfig{Address: v.GetString("GRPC_ADDRESS")},
		HTTP:       HTTPConfig{Address: v.GetString("HTTP_ADDRESS")},
		Auth:       AuthConfig{JWTSecret: v.GetString("JWT_SECRET")},
		Simulation: SimulationConfig{Interval: interval, SubscriberBuffer: buffer, ZoneCacheTTL: ttl},
		Log:        LogConfig{Level: v.GetString("LOG_LEVEL"), File: v.GetString("LOG_FILE")},
	}, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

// Load reads configuration from environment variables and, when configFile is
// not empty, a YAML file whose keys match the variable names.
func Load(configFile string) (*Config, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := build(v)
	if err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set; required for production")
	}
	if cfg.Simulation.Interval == 0 {
		return nil, errors.New("SIM_INTERVAL must be positive")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults(configFile string) (*Config, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}
	v.SetDefault("JWT_SECRET", devSecret)
	return build(v)
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, gRPC: %s, HTTP: %s, SimInterval: %s, SubscriberBuffer: %d, ZoneCacheTTL: %s, Log: %s, Auth: *** (masked) ***}",
		c.Database.Path, c.GRPC.Address, c.HTTP.Address, c.Simulation.Interval, c.Simulation.SubscriberBuffer, c.Simulation.ZoneCacheTTL, c.Log.Level)
}
